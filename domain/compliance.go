package domain

// Importance weights a compliance check in reporting (not in scoring; the
// compliance score is always passed/total)
type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

// ComplianceDetail is a named boolean check performed by the markup
// compliance analyzer
type ComplianceDetail struct {
	CheckName  string     `json:"checkName" yaml:"check_name"`
	Passed     bool       `json:"passed" yaml:"passed"`
	Message    string     `json:"message" yaml:"message"`
	Importance Importance `json:"importance" yaml:"importance"`
}

// SizeBreakdown reports where the document's bytes go
type SizeBreakdown struct {
	TotalBytes  int `json:"totalBytes" yaml:"total_bytes"`
	MarkupBytes int `json:"markupBytes" yaml:"markup_bytes"`
	StyleBytes  int `json:"styleBytes" yaml:"style_bytes"`
}

// OptimizationSuggestion references a failing check together with a textual
// estimate of the improvement fixing it would bring
type OptimizationSuggestion struct {
	CheckName       string     `json:"checkName" yaml:"check_name"`
	Suggestion      string     `json:"suggestion" yaml:"suggestion"`
	EstimatedImpact string     `json:"estimatedImpact" yaml:"estimated_impact"`
	Importance      Importance `json:"importance" yaml:"importance"`
}

// ComplianceResult is the immutable output of the markup compliance analyzer
type ComplianceResult struct {
	// Score is passed_checks / total_checks, always in [0,1]
	Score float64 `json:"score" yaml:"score"`

	// Doctype is the detected document type, "none" when absent
	Doctype string `json:"doctype" yaml:"doctype"`

	// Encoding is the declared character encoding, "unknown" when absent
	Encoding string `json:"encoding" yaml:"encoding"`

	Details  []ComplianceDetail `json:"details" yaml:"details"`
	Findings []Finding          `json:"findings,omitempty" yaml:"findings,omitempty"`

	Size            SizeBreakdown `json:"size" yaml:"size"`
	WithinSizeLimit bool          `json:"withinSizeLimit" yaml:"within_size_limit"`

	// SemanticScore is computed independently of the check score from heading
	// hierarchy and list/table/form structure
	SemanticScore float64 `json:"semanticScore" yaml:"semantic_score"`

	Suggestions []OptimizationSuggestion `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

// PassedChecks counts the checks that passed
func (r *ComplianceResult) PassedChecks() int {
	n := 0
	for _, d := range r.Details {
		if d.Passed {
			n++
		}
	}
	return n
}
