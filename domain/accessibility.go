package domain

// WCAGLevel is the conformance level derived from the accessibility score and
// the worst finding severity
type WCAGLevel string

const (
	WCAGLevelFail WCAGLevel = "fail"
	WCAGLevelA    WCAGLevel = "A"
	WCAGLevelAA   WCAGLevel = "AA"
	WCAGLevelAAA  WCAGLevel = "AAA"
)

// ContrastMeasurement records one foreground/background pair checked against
// the WCAG contrast formula. Ratio is symmetric (lighter over darker) and is
// always >= 1.0.
type ContrastMeasurement struct {
	Foreground    string  `json:"foreground" yaml:"foreground"`
	Background    string  `json:"background" yaml:"background"`
	Ratio         float64 `json:"ratio" yaml:"ratio"`
	RequiredRatio float64 `json:"requiredRatio" yaml:"required_ratio"`
	Passed        bool    `json:"passed" yaml:"passed"`
	PassedAAA     bool    `json:"passedAAA" yaml:"passed_aaa"`
	FontSize      float64 `json:"fontSize" yaml:"font_size"`
	FontWeight    int     `json:"fontWeight" yaml:"font_weight"`
	SampledText   string  `json:"sampledText,omitempty" yaml:"sampled_text,omitempty"`
	Location      string  `json:"location,omitempty" yaml:"location,omitempty"`
}

// FocusManagement holds the four boolean focus checks. The skip-link check is
// always satisfied for email documents, where skip links are meaningless.
type FocusManagement struct {
	HasFocusableElements bool    `json:"hasFocusableElements" yaml:"has_focusable_elements"`
	LogicalTabOrder      bool    `json:"logicalTabOrder" yaml:"logical_tab_order"`
	VisibleFocusStyle    bool    `json:"visibleFocusStyle" yaml:"visible_focus_style"`
	SkipLinkSatisfied    bool    `json:"skipLinkSatisfied" yaml:"skip_link_satisfied"`
	Score                float64 `json:"score" yaml:"score"`
}

// AccessibilityResult is the immutable output of the accessibility analyzer
type AccessibilityResult struct {
	Score     float64   `json:"score" yaml:"score"`
	WCAGLevel WCAGLevel `json:"wcagLevel" yaml:"wcag_level"`

	Findings []Finding             `json:"findings,omitempty" yaml:"findings,omitempty"`
	Contrast []ContrastMeasurement `json:"contrast,omitempty" yaml:"contrast,omitempty"`

	// AltTextCoverage is the ratio of images with meaningful (or legitimately
	// decorative) alt text; 1.0 when the document has no images
	AltTextCoverage float64 `json:"altTextCoverage" yaml:"alt_text_coverage"`

	SemanticStructure      bool            `json:"semanticStructure" yaml:"semantic_structure"`
	KeyboardAccessible     bool            `json:"keyboardAccessible" yaml:"keyboard_accessible"`
	ScreenReaderCompatible bool            `json:"screenReaderCompatible" yaml:"screen_reader_compatible"`
	Focus                  FocusManagement `json:"focus" yaml:"focus"`
}

// CountBySeverity returns the number of findings at the given severity
func (r *AccessibilityResult) CountBySeverity(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}
