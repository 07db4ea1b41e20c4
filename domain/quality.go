package domain

import (
	"context"
	"io"
	"time"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// Severity classifies a single finding. The four levels map onto the
// accessibility score deductions (critical 0.30, serious 0.20, moderate 0.10,
// minor 0.05).
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySerious  Severity = "serious"
	SeverityCritical Severity = "critical"
)

// Priority orders recommendations in the final report
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank returns a sortable weight for a priority (higher sorts first)
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// PriorityForSeverity maps finding severities onto recommendation priorities
func PriorityForSeverity(s Severity) Priority {
	switch s {
	case SeverityCritical:
		return PriorityCritical
	case SeveritySerious:
		return PriorityHigh
	case SeverityModerate:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Grade is the letter mapping of a [0,1] score
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// GradeForScore maps a score in [0,1] to a letter grade using fixed thresholds
func GradeForScore(score float64) Grade {
	switch {
	case score >= 0.9:
		return GradeA
	case score >= 0.8:
		return GradeB
	case score >= 0.7:
		return GradeC
	case score >= 0.6:
		return GradeD
	default:
		return GradeF
	}
}

// Rank returns a sortable weight for a grade (higher is better)
func (g Grade) Rank() int {
	switch g {
	case GradeA:
		return 5
	case GradeB:
		return 4
	case GradeC:
		return 3
	case GradeD:
		return 2
	case GradeF:
		return 1
	default:
		return 0
	}
}

// Finding is the atomic unit of analysis output. Findings are pure values:
// produced once, never mutated, appended into exactly one analyzer result.
type Finding struct {
	RuleID      string   `json:"ruleId" yaml:"rule_id"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Location    string   `json:"location,omitempty" yaml:"location,omitempty"`
	Description string   `json:"description" yaml:"description"`
	Remediation string   `json:"remediation,omitempty" yaml:"remediation,omitempty"`
	SpecRef     string   `json:"specReference,omitempty" yaml:"spec_reference,omitempty"`
}

// Recommendation is the common record every finding, failed check, and
// optimization suggestion is mapped to before the final report is assembled
type Recommendation struct {
	Category       string   `json:"category" yaml:"category"`
	Priority       Priority `json:"priority" yaml:"priority"`
	Title          string   `json:"title" yaml:"title"`
	Description    string   `json:"description" yaml:"description"`
	Impact         string   `json:"impact,omitempty" yaml:"impact,omitempty"`
	Implementation string   `json:"implementation,omitempty" yaml:"implementation,omitempty"`
	Effort         string   `json:"effort,omitempty" yaml:"effort,omitempty"`
	ExpectedImpact string   `json:"expectedImpact,omitempty" yaml:"expected_impact,omitempty"`
}

// TestMetadata records when and on what the analysis ran
type TestMetadata struct {
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
	TestDurationMs int64     `json:"testDurationMs" yaml:"test_duration_ms"`
	HTMLSizeBytes  int       `json:"htmlSizeBytes" yaml:"html_size_bytes"`
	TargetClients  []string  `json:"targetClients,omitempty" yaml:"target_clients,omitempty"`
	Version        string    `json:"version,omitempty" yaml:"version,omitempty"`
}

// ReportSummary provides aggregate statistics across all three analyzers
type ReportSummary struct {
	CriticalFindings  int     `json:"criticalFindings" yaml:"critical_findings"`
	SeriousFindings   int     `json:"seriousFindings" yaml:"serious_findings"`
	ModerateFindings  int     `json:"moderateFindings" yaml:"moderate_findings"`
	MinorFindings     int     `json:"minorFindings" yaml:"minor_findings"`
	ChecksPassed      int     `json:"checksPassed" yaml:"checks_passed"`
	ChecksTotal       int     `json:"checksTotal" yaml:"checks_total"`
	CompliancePercent float64 `json:"compliancePercent" yaml:"compliance_percent"`
}

// QualityReport is the terminal artifact of a quality assurance run. It owns
// the three analyzer results and the merged recommendation list; it is created
// once per invocation and never mutated afterwards.
type QualityReport struct {
	OverallScore    float64              `json:"overallScore" yaml:"overall_score"`
	OverallGrade    Grade                `json:"overallGrade" yaml:"overall_grade"`
	HTML            *ComplianceResult    `json:"html" yaml:"html"`
	Accessibility   *AccessibilityResult `json:"accessibility" yaml:"accessibility"`
	Performance     *PerformanceResult   `json:"performance" yaml:"performance"`
	Recommendations []Recommendation     `json:"recommendations" yaml:"recommendations"`
	Summary         ReportSummary        `json:"summary" yaml:"summary"`
	TestMetadata    TestMetadata         `json:"testMetadata" yaml:"test_metadata"`

	// ContentHash is a SHA-256 hex digest of the input so callers can cache
	// reports keyed by content. The engine itself never caches.
	ContentHash string `json:"contentHash" yaml:"content_hash"`
}

// Options configures a single quality assurance run
type Options struct {
	IncludeAccessibility bool     `json:"includeAccessibility" yaml:"include_accessibility"`
	IncludePerformance   bool     `json:"includePerformance" yaml:"include_performance"`
	TargetClients        []string `json:"targetClients,omitempty" yaml:"target_clients,omitempty"`
}

// DefaultOptions returns the default run options (everything enabled)
func DefaultOptions() Options {
	return Options{
		IncludeAccessibility: true,
		IncludePerformance:   true,
	}
}

// QualityService defines the core business logic for email template quality
// assurance. The contract is total: it always returns a complete report and
// never returns an error or panics for any string input.
type QualityService interface {
	RunQualityAssurance(ctx context.Context, html string, opts Options) *QualityReport
}

// OutputFormatter handles report output formatting
type OutputFormatter interface {
	Write(report *QualityReport, format OutputFormat, writer io.Writer) error
}

// ProgressManager handles progress reporting during batch analysis
type ProgressManager interface {
	StartTask(description string, total int) TaskProgress
	IsInteractive() bool
	Close()
}

// TaskProgress tracks progress of a single task
type TaskProgress interface {
	Increment(n int)
	Describe(description string)
	Complete()
}
