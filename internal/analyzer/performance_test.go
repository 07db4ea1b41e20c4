package analyzer

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/ludo-technologies/mailscan/domain"
	"github.com/ludo-technologies/mailscan/internal/config"
	"github.com/ludo-technologies/mailscan/internal/constants"
)

func newPerformanceAnalyzer() *PerformanceAnalyzer {
	cfg := config.DefaultConfig()
	return NewPerformanceAnalyzer(cfg.Performance, cfg.Compliance)
}

func TestPerformanceEmptyInput(t *testing.T) {
	result := newPerformanceAnalyzer().Analyze("")
	if result.Score != 0 {
		t.Errorf("Score = %g, want 0", result.Score)
	}
	if result.Grade != domain.GradeF {
		t.Errorf("Grade = %q, want F", result.Grade)
	}
	if len(result.Findings) != 1 || result.Findings[0].Severity != domain.SeverityCritical {
		t.Errorf("Expected one critical finding, got %+v", result.Findings)
	}
}

func TestPerformanceScoreBounds(t *testing.T) {
	inputs := []string{
		"<html><body><p>tiny</p></body></html>",
		strings.Repeat("<div>", 20) + "deep" + strings.Repeat("</div>", 20),
		`<html><body><img src="a.png"><img src="b.png"></body></html>`,
	}
	a := newPerformanceAnalyzer()
	for _, in := range inputs {
		result := a.Analyze(in)
		if result.Score < 0 || result.Score > 1 {
			t.Errorf("Score %g out of [0,1] for %q", result.Score, in[:20])
		}
		if result.Grade != domain.GradeForScore(result.Score) {
			t.Errorf("Grade %q inconsistent with score %g", result.Grade, result.Score)
		}
	}
}

func TestEstimateImageBytes(t *testing.T) {
	tests := []struct {
		name string
		img  string
		want int
	}{
		{"declared dimensions", `<img src="a.png" width="200" height="100">`, 2000},
		{"small image floors at minimum", `<img src="a.png" width="10" height="10">`, constants.MinEstimatedImageBytes},
		// 100*100/10 = 1000 is under the floor
		{"defaults to 100x100", `<img src="a.png">`, constants.MinEstimatedImageBytes},
		{"px suffix accepted", `<img src="a.png" width="200px" height="100px">`, 2000},
		{"garbage falls back", `<img src="a.png" width="wide" height="tall">`, constants.MinEstimatedImageBytes},
	}

	a := newPerformanceAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Analyze(`<html><body>` + tt.img + `</body></html>`)
			if result.Size.EstimatedImageBytes != tt.want {
				t.Errorf("EstimatedImageBytes = %d, want %d", result.Size.EstimatedImageBytes, tt.want)
			}
		})
	}
}

func TestAnalyzeSizeTiers(t *testing.T) {
	a := newPerformanceAnalyzer()
	limit := config.DefaultConfig().Compliance.SizeLimitBytes

	tests := []struct {
		name      string
		sizeBytes int
		want      float64
	}{
		{"comfortable", limit / 2, 1.0},
		{"above three quarters", limit*8/10 + 1, 0.9},
		{"above ninety percent", limit*95/100 + 1, 0.7},
		{"over the limit", limit + 1, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, suffix := "<html><body><p>", "</p></body></html>"
			input := prefix + strings.Repeat("a", tt.sizeBytes-len(prefix)-len(suffix)) + suffix
			result := a.Analyze(input)
			if result.Size.Score != tt.want {
				t.Errorf("size score = %g for %d bytes, want %g", result.Size.Score, len(input), tt.want)
			}
			wantWithin := tt.sizeBytes <= limit
			if result.Size.WithinDeliveryLimits != wantWithin {
				t.Errorf("WithinDeliveryLimits = %v, want %v", result.Size.WithinDeliveryLimits, wantWithin)
			}
		})
	}
}

func TestAnalyzeDOMTiers(t *testing.T) {
	a := newPerformanceAnalyzer()

	// Flat documents of p elements; html/head/body add 3 elements
	build := func(n int) string {
		return "<html><body>" + strings.Repeat("<p>x</p>", n) + "</body></html>"
	}

	tests := []struct {
		name     string
		elements int
		// table ratio is zero for these fixtures, so the band penalty always
		// applies on top of the element tier
		want float64
	}{
		{"under first tier", 100, 0.15},
		{"second tier", 200, 0.1 + 0.15},
		{"third tier", 400, 0.2 + 0.15},
		{"top tier", 600, 0.3 + 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Analyze(build(tt.elements))
			if math.Abs(result.DOM.Score-tt.want) > 1e-9 {
				t.Errorf("DOM score = %g (%d elements), want %g", result.DOM.Score, result.DOM.ElementCount, tt.want)
			}
		})
	}
}

func TestAnalyzeDOMDepth(t *testing.T) {
	a := newPerformanceAnalyzer()
	// html > body contributes 2 levels; nested divs add the rest
	build := func(divs int) string {
		return "<html><body>" + strings.Repeat("<div>", divs) + "x" + strings.Repeat("</div>", divs) + "</body></html>"
	}

	tests := []struct {
		name  string
		divs  int
		depth int
		want  float64 // includes the 0.15 table-ratio band penalty
	}{
		{"shallow", 3, 5, 0.15},
		{"over seven", 6, 8, 0.1 + 0.15},
		{"over ten", 9, 11, 0.2 + 0.15},
		{"over fifteen", 14, 16, 0.3 + 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Analyze(build(tt.divs))
			if result.DOM.MaxDepth != tt.depth {
				t.Fatalf("MaxDepth = %d, want %d", result.DOM.MaxDepth, tt.depth)
			}
			if math.Abs(result.DOM.Score-tt.want) > 1e-9 {
				t.Errorf("DOM score = %g, want %g", result.DOM.Score, tt.want)
			}
		})
	}
}

func TestAnalyzeDOMTableRatioBand(t *testing.T) {
	a := newPerformanceAnalyzer()

	// 9 elements total (html, head, body, table, tbody, tr, td, td, td),
	// 6 table elements: ratio 0.67, inside [0.30, 0.80]
	healthy := "<html><head></head><body><table><tr><td>a</td><td>b</td><td>c</td></tr></table></body></html>"
	result := a.Analyze(healthy)
	if result.DOM.TableRatio < 0.30 || result.DOM.TableRatio > 0.80 {
		t.Fatalf("fixture ratio %g not in band", result.DOM.TableRatio)
	}
	if result.DOM.Score != 0 {
		t.Errorf("DOM score = %g, want 0 for healthy ratio", result.DOM.Score)
	}

	// All divs: ratio 0, below the band
	divSoup := "<html><body><div><div>x</div></div></body></html>"
	result = a.Analyze(divSoup)
	if result.DOM.Score != 0.15 {
		t.Errorf("DOM score = %g, want 0.15 for div soup", result.DOM.Score)
	}
}

func TestAnalyzeCSS(t *testing.T) {
	a := newPerformanceAnalyzer()

	t.Run("inline only", func(t *testing.T) {
		result := a.Analyze(`<html><body><p style="color:red; margin:0">x</p></body></html>`)
		if result.CSS.InlineDeclarations != 2 {
			t.Errorf("InlineDeclarations = %d, want 2", result.CSS.InlineDeclarations)
		}
		if result.CSS.EmbeddedBlocks != 0 {
			t.Errorf("EmbeddedBlocks = %d, want 0", result.CSS.EmbeddedBlocks)
		}
		if result.CSS.Score != 0 {
			t.Errorf("CSS score = %g, want 0", result.CSS.Score)
		}
	})

	t.Run("embedded block penalty", func(t *testing.T) {
		result := a.Analyze(`<html><head><style>p{color:red}</style></head><body><p>x</p></body></html>`)
		if result.CSS.EmbeddedBlocks != 1 {
			t.Errorf("EmbeddedBlocks = %d, want 1", result.CSS.EmbeddedBlocks)
		}
		if math.Abs(result.CSS.Score-0.2) > 1e-9 {
			t.Errorf("CSS score = %g, want 0.2", result.CSS.Score)
		}
	})

	t.Run("unsupported ratio", func(t *testing.T) {
		// 1 of 2 declarations unsupported: ratio 0.5, penalty 0.25
		result := a.Analyze(`<html><body><p style="color:red; float:left">x</p></body></html>`)
		if result.CSS.UnsupportedCount != 1 {
			t.Errorf("UnsupportedCount = %d, want 1", result.CSS.UnsupportedCount)
		}
		if math.Abs(result.CSS.UnsupportedRatio-0.5) > 1e-9 {
			t.Errorf("UnsupportedRatio = %g, want 0.5", result.CSS.UnsupportedRatio)
		}
		if math.Abs(result.CSS.Score-0.25) > 1e-9 {
			t.Errorf("CSS score = %g, want 0.25", result.CSS.Score)
		}
		if len(result.CSS.UnsupportedProperties) != 1 || result.CSS.UnsupportedProperties[0] != "float" {
			t.Errorf("UnsupportedProperties = %v, want [float]", result.CSS.UnsupportedProperties)
		}
	})

	t.Run("declaration count tier", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString("<html><body>")
		for i := 0; i < 550; i++ {
			sb.WriteString(`<p style="margin:0">x</p>`)
		}
		sb.WriteString("</body></html>")
		result := a.Analyze(sb.String())
		if result.CSS.PropertyCount != 550 {
			t.Fatalf("PropertyCount = %d, want 550", result.CSS.PropertyCount)
		}
		if math.Abs(result.CSS.Score-0.15) > 1e-9 {
			t.Errorf("CSS score = %g, want 0.15", result.CSS.Score)
		}
	})
}

func TestAnalyzeImages(t *testing.T) {
	a := newPerformanceAnalyzer()

	t.Run("no images scores one", func(t *testing.T) {
		result := a.Analyze("<html><body><p>x</p></body></html>")
		if result.Images.Score != 1.0 {
			t.Errorf("Images score = %g, want 1.0", result.Images.Score)
		}
	})

	t.Run("complete images score one", func(t *testing.T) {
		result := a.Analyze(`<html><body><img src="a.png" width="100" height="50" alt="a"></body></html>`)
		if result.Images.Score != 1.0 {
			t.Errorf("Images score = %g, want 1.0", result.Images.Score)
		}
		if result.Images.MissingDimensions != 0 || result.Images.MissingAlt != 0 {
			t.Errorf("Unexpected missing counts: %+v", result.Images)
		}
	})

	t.Run("missing attributes counted", func(t *testing.T) {
		result := a.Analyze(`<html><body><img src="a.png"><img src="b.png" width="10" height="10" alt="b"></body></html>`)
		if result.Images.MissingDimensions != 1 {
			t.Errorf("MissingDimensions = %d, want 1", result.Images.MissingDimensions)
		}
		if result.Images.MissingAlt != 1 {
			t.Errorf("MissingAlt = %d, want 1", result.Images.MissingAlt)
		}
		if len(result.Images.Suggestions) != 2 {
			t.Errorf("Suggestions = %d, want 2", len(result.Images.Suggestions))
		}
	})
}

func TestFormatSuggestions(t *testing.T) {
	a := newPerformanceAnalyzer()

	tests := []struct {
		name    string
		img     string
		suggest bool
	}{
		{"small jpeg suggests png", `<img src="icon.jpg" width="20" height="20" alt="i">`, true},
		{"photo png suggests jpeg", `<img src="photo-team.png" width="600" height="400" alt="team">`, true},
		{"small png stays", `<img src="icon.png" width="20" height="20" alt="i">`, false},
		{"large jpeg stays", `<img src="photo.jpg" width="600" height="400" alt="p">`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Analyze(`<html><body>` + tt.img + `</body></html>`)
			found := false
			for _, s := range result.Images.Suggestions {
				if s.Issue == "format" {
					found = true
				}
			}
			if found != tt.suggest {
				t.Errorf("format suggestion present = %v, want %v", found, tt.suggest)
			}
		})
	}
}

func TestAnalyzeMobile(t *testing.T) {
	a := newPerformanceAnalyzer()

	full := `<html><head>
		<meta name="viewport" content="width=device-width">
		<style>@media (max-width:600px) { p { font-size: 14px; } }</style>
	</head><body>
		<img src="a.png" style="max-width:100%" alt="a">
		<a href="#" style="display:inline-block; padding:12px;">Tap</a>
		<p style="font-size:16px">readable</p>
	</body></html>`
	result := a.Analyze(full)
	m := result.Mobile
	if !m.HasViewportMeta || !m.ResponsiveImages || !m.HasMediaQueries || !m.TouchFriendly || !m.ReadableFontSize {
		t.Errorf("Expected all mobile checks to pass: %+v", m)
	}
	if m.Score != 1.0 {
		t.Errorf("Mobile score = %g, want 1.0", m.Score)
	}

	bare := `<html><body>
		<img src="a.png" width="600">
		<a href="#">Tap</a>
		<p style="font-size:10px">tiny</p>
	</body></html>`
	result = a.Analyze(bare)
	m = result.Mobile
	if m.HasViewportMeta || m.ResponsiveImages || m.HasMediaQueries || m.TouchFriendly || m.ReadableFontSize {
		t.Errorf("Expected all mobile checks to fail: %+v", m)
	}
	if m.Score != 0 {
		t.Errorf("Mobile score = %g, want 0", m.Score)
	}
}

func TestTouchFriendlyCellPadding(t *testing.T) {
	a := newPerformanceAnalyzer()
	input := `<html><body><table><tr><td style="padding:12px"><a href="#">Tap</a></td></tr></table></body></html>`
	result := a.Analyze(input)
	if !result.Mobile.TouchFriendly {
		t.Error("Link inside a padded cell should count as touch friendly")
	}
}

func TestAnalyzeCacheability(t *testing.T) {
	a := newPerformanceAnalyzer()

	tests := []struct {
		name string
		body string
		head string
		want float64
	}{
		{"clean", `<img src="a.png" alt="a">`, "", 1.0},
		{"query string in src", `<img src="a.png?v=12345" alt="a">`, "", 0.5},
		{"expiry meta", `<p>x</p>`, `<meta http-equiv="expires" content="0">`, 0.5},
		{"both problems", `<img src="a.png?x=1" alt="a">`, `<meta http-equiv="cache-control" content="no-cache">`, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := a.Analyze("<html><head>" + tt.head + "</head><body>" + tt.body + "</body></html>")
			if result.Cacheability.Score != tt.want {
				t.Errorf("Cacheability score = %g, want %g", result.Cacheability.Score, tt.want)
			}
		})
	}
}

func TestEstimateLoading(t *testing.T) {
	a := newPerformanceAnalyzer()
	result := a.Analyze(`<html><body><img src="a.png" width="100" height="100" alt="a"><p>x</p></body></html>`)

	l := result.Loading
	want := baseLatencyMs + 0.1*float64(l.ElementCount) + 2.0*l.CSSKiB + 100.0*float64(l.ImageCount)
	if math.Abs(l.EstimatedMs-want) > 1e-9 {
		t.Errorf("EstimatedMs = %g, want %g", l.EstimatedMs, want)
	}
	if l.ImageCount != 1 {
		t.Errorf("ImageCount = %d, want 1", l.ImageCount)
	}
	if l.EstimatedMs <= baseLatencyMs {
		t.Error("Estimate should exceed the base latency")
	}
}

func TestPerformanceBlend(t *testing.T) {
	a := newPerformanceAnalyzer()
	result := a.Analyze(`<html><body><p>x</p></body></html>`)

	expected := 1.0
	expected *= result.Size.Score*weightSize + (1 - weightSize)
	expected *= (1-result.DOM.Score)*weightDOM + (1 - weightDOM)
	expected *= (1-result.CSS.Score)*weightCSS + (1 - weightCSS)
	expected *= result.Images.Score*weightImages + (1 - weightImages)
	expected *= result.Mobile.Score*weightMobile + (1 - weightMobile)
	expected *= result.Cacheability.Score*weightCacheability + (1 - weightCacheability)

	if math.Abs(result.Score-expected) > 1e-9 {
		t.Errorf("Score = %g, want blended %g", result.Score, expected)
	}
}

func TestClientNotes(t *testing.T) {
	a := newPerformanceAnalyzer()
	input := `<html><body><div style="position:absolute; float:left">x</div></body></html>`

	t.Run("no targets no notes", func(t *testing.T) {
		result := a.Analyze(input)
		if len(result.ClientNotes) != 0 {
			t.Errorf("Expected no notes, got %d", len(result.ClientNotes))
		}
	})

	t.Run("known client reports quirks in use", func(t *testing.T) {
		result := a.Analyze(input, "outlook")
		if len(result.ClientNotes) != 1 {
			t.Fatalf("Expected 1 note, got %d", len(result.ClientNotes))
		}
		n := result.ClientNotes[0]
		if n.Client != "outlook" {
			t.Errorf("Client = %q, want outlook", n.Client)
		}
		if len(n.Properties) == 0 {
			t.Errorf("Expected quirk properties for outlook, got note %q", n.Note)
		}
	})

	t.Run("unknown client", func(t *testing.T) {
		result := a.Analyze(input, "lotus-notes")
		if len(result.ClientNotes) != 1 {
			t.Fatalf("Expected 1 note, got %d", len(result.ClientNotes))
		}
		if !strings.Contains(result.ClientNotes[0].Note, "No compatibility data") {
			t.Errorf("Unexpected note %q", result.ClientNotes[0].Note)
		}
	})
}

func TestCollectFindings(t *testing.T) {
	a := newPerformanceAnalyzer()

	// Oversized document with unsupported CSS and a dimensionless image
	var sb strings.Builder
	sb.WriteString(`<html><body><img src="big.png"><div style="float:left">x</div><p>`)
	sb.WriteString(strings.Repeat("a", constants.ClippingLimitBytes))
	sb.WriteString("</p></body></html>")

	result := a.Analyze(sb.String())
	for _, rule := range []string{RuleDeliverySize, RuleCSSUnsupported, RuleImageWeight} {
		if !hasRule(result.Findings, rule) {
			t.Errorf("Expected finding %s, got %+v", rule, findingRules(result.Findings))
		}
	}
}

func findingRules(findings []domain.Finding) string {
	var ids []string
	for _, f := range findings {
		ids = append(ids, f.RuleID)
	}
	return fmt.Sprintf("%v", ids)
}
