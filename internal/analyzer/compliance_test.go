package analyzer

import (
	"strings"
	"testing"

	"github.com/ludo-technologies/mailscan/domain"
	"github.com/ludo-technologies/mailscan/internal/config"
	"github.com/ludo-technologies/mailscan/internal/constants"
)

// goodEmail passes every compliance check: doctype, nested tables, full inline
// coverage, complete image attributes, safe CSS, and a complete skeleton.
const goodEmail = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Newsletter</title></head>
<body style="margin:0; padding:0;">
  <table width="600" style="width:600px;" role="presentation">
    <tr>
      <td style="padding:20px;">
        <table role="presentation" style="width:100%;">
          <tr>
            <td style="color:#333333; font-size:16px;">
              <img src="logo.png" width="200" height="50" alt="Acme logo" style="display:block;">
              <p style="margin:0;">Welcome to the newsletter.</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

func newComplianceAnalyzer() *ComplianceAnalyzer {
	return NewComplianceAnalyzer(config.DefaultConfig().Compliance)
}

func findDetail(t *testing.T, result *domain.ComplianceResult, name string) domain.ComplianceDetail {
	t.Helper()
	for _, d := range result.Details {
		if d.CheckName == name {
			return d
		}
	}
	t.Fatalf("Detail %q not found", name)
	return domain.ComplianceDetail{}
}

func TestComplianceGoodEmail(t *testing.T) {
	result := newComplianceAnalyzer().Analyze(goodEmail)

	if result.Score != 1.0 {
		for _, d := range result.Details {
			if !d.Passed {
				t.Logf("failed check %s: %s", d.CheckName, d.Message)
			}
		}
		t.Errorf("Score = %g, want 1.0", result.Score)
	}
	if result.Doctype != "html5" {
		t.Errorf("Doctype = %q, want html5", result.Doctype)
	}
	if result.Encoding != "utf-8" {
		t.Errorf("Encoding = %q, want utf-8", result.Encoding)
	}
	if !result.WithinSizeLimit {
		t.Error("WithinSizeLimit should be true")
	}
	if len(result.Suggestions) != 0 {
		t.Errorf("Expected no suggestions, got %d", len(result.Suggestions))
	}
	if len(result.Details) != 7 {
		t.Errorf("Expected 7 details, got %d", len(result.Details))
	}
}

func TestComplianceEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t "} {
		result := newComplianceAnalyzer().Analyze(input)
		if result.Score != 0 {
			t.Errorf("Score = %g, want 0", result.Score)
		}
		if result.Doctype != "none" || result.Encoding != "unknown" {
			t.Errorf("Doctype/Encoding = %q/%q, want none/unknown", result.Doctype, result.Encoding)
		}
		if len(result.Findings) != 1 || result.Findings[0].Severity != domain.SeverityCritical {
			t.Errorf("Expected exactly one critical finding, got %+v", result.Findings)
		}
	}
}

func TestComplianceDoctypeCheck(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		passed bool
	}{
		{"html5 doctype", "<!DOCTYPE html><html><body></body></html>", true},
		{"no doctype", "<html><body></body></html>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newComplianceAnalyzer().Analyze(tt.input)
			d := findDetail(t, result, CheckDoctype)
			if d.Passed != tt.passed {
				t.Errorf("doctype check passed = %v, want %v", d.Passed, tt.passed)
			}
		})
	}
}

func TestComplianceTableLayout(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		passed bool
	}{
		{"nested tables", "<table><tr><td><table><tr><td>x</td></tr></table></td></tr></table>", true},
		{"two sibling tables", "<table><tr><td>a</td></tr></table><table><tr><td>b</td></tr></table>", false},
		{"single table", "<table><tr><td>a</td></tr></table>", false},
		{"div layout", "<div>content</div>", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newComplianceAnalyzer().Analyze("<!DOCTYPE html><html><body>" + tt.body + "</body></html>")
			d := findDetail(t, result, CheckTableLayout)
			if d.Passed != tt.passed {
				t.Errorf("table-layout passed = %v, want %v", d.Passed, tt.passed)
			}
		})
	}
}

func TestComplianceInlineCoverage(t *testing.T) {
	// 1 styled of 4 styleable elements (body, p, p, p) is 25%, below the 30% floor
	low := `<!DOCTYPE html><html><body><p style="color:red">a</p><p>b</p><p>c</p></body></html>`
	result := newComplianceAnalyzer().Analyze(low)
	if d := findDetail(t, result, CheckInlineCoverage); d.Passed {
		t.Errorf("inline coverage should fail at 25%%: %s", d.Message)
	}

	// 2 of 4 is 50%
	high := `<!DOCTYPE html><html><body style="margin:0"><p style="color:red">a</p><p>b</p><p>c</p></body></html>`
	result = newComplianceAnalyzer().Analyze(high)
	if d := findDetail(t, result, CheckInlineCoverage); !d.Passed {
		t.Errorf("inline coverage should pass at 50%%: %s", d.Message)
	}
}

func TestComplianceImageAttributes(t *testing.T) {
	tests := []struct {
		name   string
		img    string
		passed bool
	}{
		{"complete", `<img src="a.png" width="10" height="10" alt="a">`, true},
		{"missing alt", `<img src="a.png" width="10" height="10">`, false},
		{"missing dimensions", `<img src="a.png" alt="a">`, false},
		{"no images", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newComplianceAnalyzer().Analyze("<!DOCTYPE html><html><body>" + tt.img + "</body></html>")
			d := findDetail(t, result, CheckImageAttributes)
			if d.Passed != tt.passed {
				t.Errorf("image-attributes passed = %v, want %v", d.Passed, tt.passed)
			}
		})
	}
}

func TestComplianceCSSCompatibility(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		passed bool
	}{
		{"safe properties", `<p style="color:red; margin:0">x</p>`, true},
		{"unsupported inline", `<div style="position:absolute">x</div>`, false},
		{"unsupported in style block", `<p>x</p>`, false},
		{"neutral property", `<p style="letter-spacing:1px">x</p>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			head := ""
			if tt.name == "unsupported in style block" {
				head = "<style>div { float: left; }</style>"
			}
			result := newComplianceAnalyzer().Analyze("<!DOCTYPE html><html><head>" + head + "</head><body>" + tt.body + "</body></html>")
			d := findDetail(t, result, CheckCSSCompatibility)
			if d.Passed != tt.passed {
				t.Errorf("css-compatibility passed = %v, want %v: %s", d.Passed, tt.passed, d.Message)
			}
		})
	}
}

func TestComplianceSizeLimitBoundary(t *testing.T) {
	prefix := "<!DOCTYPE html><html><body><p>"
	suffix := "</p></body></html>"

	// Pad to exactly the clipping limit
	pad := constants.ClippingLimitBytes - len(prefix) - len(suffix)
	atLimit := prefix + strings.Repeat("a", pad) + suffix
	if len(atLimit) != constants.ClippingLimitBytes {
		t.Fatalf("fixture is %d bytes, want %d", len(atLimit), constants.ClippingLimitBytes)
	}

	result := newComplianceAnalyzer().Analyze(atLimit)
	if d := findDetail(t, result, CheckSizeLimit); !d.Passed {
		t.Errorf("size check should pass at exactly %d bytes", constants.ClippingLimitBytes)
	}
	if !result.WithinSizeLimit {
		t.Error("WithinSizeLimit should be true at the limit")
	}

	// One byte over fails
	overLimit := prefix + strings.Repeat("a", pad+1) + suffix
	result = newComplianceAnalyzer().Analyze(overLimit)
	if d := findDetail(t, result, CheckSizeLimit); d.Passed {
		t.Errorf("size check should fail at %d bytes", len(overLimit))
	}
	if result.WithinSizeLimit {
		t.Error("WithinSizeLimit should be false over the limit")
	}
}

func TestComplianceSizeBreakdown(t *testing.T) {
	input := `<!DOCTYPE html><html><head><style>p{color:red}</style></head><body><p style="margin:0">x</p></body></html>`
	result := newComplianceAnalyzer().Analyze(input)

	if result.Size.TotalBytes != len(input) {
		t.Errorf("TotalBytes = %d, want %d", result.Size.TotalBytes, len(input))
	}
	wantStyle := len("p{color:red}") + len("margin:0")
	if result.Size.StyleBytes != wantStyle {
		t.Errorf("StyleBytes = %d, want %d", result.Size.StyleBytes, wantStyle)
	}
	if result.Size.MarkupBytes+result.Size.StyleBytes != result.Size.TotalBytes {
		t.Error("Markup and style bytes should sum to total")
	}
}

func TestSemanticScore(t *testing.T) {
	tests := []struct {
		name string
		body string
		want float64
	}{
		{"all structures absent", "<p>plain</p>", 1.0},
		{"monotonic headings", "<h1>a</h1><h2>b</h2><h3>c</h3>", 1.0},
		{"skipped heading level", "<h1>a</h1><h3>b</h3>", 0.75},
		{"empty list", "<ul></ul>", 0.75},
		{"orphaned list item", "<li>x</li>", 0.75},
		{
			"unlabeled data table",
			"<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>",
			0.75,
		},
		{
			"presentation table exempt",
			`<table role="presentation"><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>`,
			1.0,
		},
		{
			"data table with headers",
			"<table><tr><th>h1</th><th>h2</th></tr><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>",
			1.0,
		},
		{"unlabeled input", `<input type="text">`, 0.75},
		{"labeled input", `<label for="e">Email</label><input type="text" id="e">`, 1.0},
		{"hidden input exempt", `<input type="hidden" value="t">`, 1.0},
	}

	a := newComplianceAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Analyze("<!DOCTYPE html><html><body>" + tt.body + "</body></html>")
			if result.SemanticScore != tt.want {
				t.Errorf("SemanticScore = %g, want %g", result.SemanticScore, tt.want)
			}
		})
	}
}

func TestBuildSuggestionsOrdering(t *testing.T) {
	// No doctype, no tables: multiple failed checks with mixed importance
	result := newComplianceAnalyzer().Analyze("<html><body><p>x</p></body></html>")
	if len(result.Suggestions) == 0 {
		t.Fatal("Expected suggestions for failed checks")
	}
	for i := 1; i < len(result.Suggestions); i++ {
		if importanceRank(result.Suggestions[i].Importance) > importanceRank(result.Suggestions[i-1].Importance) {
			t.Error("Suggestions should be ordered high importance first")
		}
	}
	for _, s := range result.Suggestions {
		if s.Suggestion == "" || s.EstimatedImpact == "" {
			t.Errorf("Suggestion for %s missing text", s.CheckName)
		}
	}
}
