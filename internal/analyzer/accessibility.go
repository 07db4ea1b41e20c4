package analyzer

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/net/html"

	"github.com/ludo-technologies/mailscan/domain"
	"github.com/ludo-technologies/mailscan/internal/config"
	"github.com/ludo-technologies/mailscan/internal/css"
	"github.com/ludo-technologies/mailscan/internal/dom"
)

// Accessibility rule identifiers
const (
	RuleImageAlt     = "image-alt"
	RuleHeadingOrder = "heading-order"
	RuleLinkName     = "link-name"
	RuleDocumentLang = "document-lang"
	RuleTableHeaders = "table-headers"
	RuleContrast     = "color-contrast"
	RuleInvalidInput = "invalid-input"
)

// Score deductions per finding severity
const (
	deductCritical = 0.30
	deductSerious  = 0.20
	deductModerate = 0.10
	deductMinor    = 0.05
)

// textTags are the elements sampled for contrast measurement
var textTags = []string{
	"p", "span", "a", "td", "th", "li", "div", "blockquote", "label",
	"caption", "strong", "em", "b", "i", "font",
	"h1", "h2", "h3", "h4", "h5", "h6",
}

// DecorativePredicate decides whether an image with an explicitly empty alt
// attribute is decorative. Pluggable so the filename heuristic can be
// replaced without touching the scoring pipeline.
type DecorativePredicate func(src string) bool

// AccessibilityAnalyzer detects WCAG-relevant violations and computes color
// contrast. Analyze is total: it never fails on malformed input.
type AccessibilityAnalyzer struct {
	rules        config.AccessibilityRules
	isDecorative DecorativePredicate
}

// NewAccessibilityAnalyzer creates an accessibility analyzer with the given
// rules and the default filename-based decorative heuristic
func NewAccessibilityAnalyzer(rules config.AccessibilityRules) *AccessibilityAnalyzer {
	a := &AccessibilityAnalyzer{rules: rules}
	a.isDecorative = func(src string) bool {
		name := strings.ToLower(path.Base(src))
		for _, kw := range rules.DecorativeKeywords {
			if strings.Contains(name, kw) {
				return true
			}
		}
		return false
	}
	return a
}

// WithDecorativePredicate replaces the decorative-image heuristic
func (a *AccessibilityAnalyzer) WithDecorativePredicate(p DecorativePredicate) *AccessibilityAnalyzer {
	a.isDecorative = p
	return a
}

// Analyze walks the document once, applying independent, order-insensitive
// rules, then folds the findings into the composite score
func (a *AccessibilityAnalyzer) Analyze(input string) *domain.AccessibilityResult {
	doc, err := dom.Parse(input)
	if err != nil {
		return &domain.AccessibilityResult{
			Score:     0,
			WCAGLevel: domain.WCAGLevelFail,
			Findings: []domain.Finding{{
				RuleID:      RuleInvalidInput,
				Severity:    domain.SeverityCritical,
				Description: fmt.Sprintf("document could not be analyzed: %v", err),
				Remediation: "Provide a non-empty HTML document.",
			}},
		}
	}

	var findings []domain.Finding
	altCoverage := 1.0

	findings, altCoverage = a.checkImages(doc, findings)
	findings = a.checkHeadings(doc, findings)
	findings = a.checkLinks(doc, findings)
	findings = a.checkLanguage(doc, findings)
	findings = a.checkDataTables(doc, findings)

	contrast := a.measureContrast(doc)
	for _, m := range contrast {
		if !m.Passed {
			findings = append(findings, domain.Finding{
				RuleID:      RuleContrast,
				Severity:    domain.SeveritySerious,
				Location:    m.Location,
				Description: fmt.Sprintf("Contrast ratio %.2f for %s on %s is below the required %.1f", m.Ratio, m.Foreground, m.Background, m.RequiredRatio),
				Remediation: "Darken the text color or lighten the background to meet WCAG AA.",
				SpecRef:     "WCAG 1.4.3",
			})
		}
	}

	semantic := !hasRule(findings, RuleHeadingOrder) && !hasRule(findings, RuleTableHeaders)
	keyboard := keyboardAccessible(doc)
	screenReader := !hasRule(findings, RuleDocumentLang) && !hasRule(findings, RuleImageAlt)
	focus := focusManagement(doc)

	score := compositeScore(findings, altCoverage, semantic, keyboard, screenReader, focus.Score)

	return &domain.AccessibilityResult{
		Score:                  score,
		WCAGLevel:              wcagLevel(score, findings),
		Findings:               findings,
		Contrast:               contrast,
		AltTextCoverage:        altCoverage,
		SemanticStructure:      semantic,
		KeyboardAccessible:     keyboard,
		ScreenReaderCompatible: screenReader,
		Focus:                  focus,
	}
}

// checkImages flags images without meaningful alt text unless they are
// heuristically decorative (alt explicitly empty and a decorative file name)
func (a *AccessibilityAnalyzer) checkImages(doc *dom.Document, findings []domain.Finding) ([]domain.Finding, float64) {
	images := doc.Select("img")
	if len(images) == 0 {
		return findings, 1.0
	}
	covered := 0
	for _, img := range images {
		alt, hasAlt := dom.Attr(img, "alt")
		src := dom.AttrOr(img, "src", "")
		switch {
		case hasAlt && strings.TrimSpace(alt) != "":
			covered++
		case hasAlt && a.isDecorative(src):
			// Explicitly empty alt on a decorative asset is correct markup
			covered++
		default:
			findings = append(findings, domain.Finding{
				RuleID:      RuleImageAlt,
				Severity:    domain.SeveritySerious,
				Location:    dom.Path(img),
				Description: fmt.Sprintf("Image %q has no alternative text", src),
				Remediation: "Add a descriptive alt attribute, or alt=\"\" for purely decorative images.",
				SpecRef:     "WCAG 1.1.1",
			})
		}
	}
	return findings, float64(covered) / float64(len(images))
}

// checkHeadings flags level skips greater than one going deeper; decreases
// are always allowed
func (a *AccessibilityAnalyzer) checkHeadings(doc *dom.Document, findings []domain.Finding) []domain.Finding {
	prev := 0
	for _, h := range doc.Select("h1", "h2", "h3", "h4", "h5", "h6") {
		level := int(h.Data[1] - '0')
		if prev != 0 && level > prev+1 {
			findings = append(findings, domain.Finding{
				RuleID:      RuleHeadingOrder,
				Severity:    domain.SeverityModerate,
				Location:    dom.Path(h),
				Description: fmt.Sprintf("Heading level skips from h%d to h%d", prev, level),
				Remediation: "Use consecutive heading levels so screen readers can convey structure.",
				SpecRef:     "WCAG 1.3.1",
			})
		}
		prev = level
	}
	return findings
}

// checkLinks requires discernible text via visible text, aria-label, or title
func (a *AccessibilityAnalyzer) checkLinks(doc *dom.Document, findings []domain.Finding) []domain.Finding {
	for _, link := range doc.Select("a") {
		if dom.Text(link) != "" {
			continue
		}
		if v, ok := dom.Attr(link, "aria-label"); ok && strings.TrimSpace(v) != "" {
			continue
		}
		if v, ok := dom.Attr(link, "title"); ok && strings.TrimSpace(v) != "" {
			continue
		}
		// An image link with alt text is discernible too
		if linkHasImageAlt(link) {
			continue
		}
		findings = append(findings, domain.Finding{
			RuleID:      RuleLinkName,
			Severity:    domain.SeveritySerious,
			Location:    dom.Path(link),
			Description: fmt.Sprintf("Link to %q has no discernible text", dom.AttrOr(link, "href", "")),
			Remediation: "Add visible link text, an aria-label, or a title attribute.",
			SpecRef:     "WCAG 2.4.4",
		})
	}
	return findings
}

func linkHasImageAlt(link *html.Node) bool {
	found := false
	dom.Subtree(link, func(n *html.Node) {
		if dom.IsElement(n, "img") {
			if alt, ok := dom.Attr(n, "alt"); ok && strings.TrimSpace(alt) != "" {
				found = true
			}
		}
	})
	return found
}

func (a *AccessibilityAnalyzer) checkLanguage(doc *dom.Document, findings []domain.Finding) []domain.Finding {
	for _, h := range doc.Select("html") {
		if v, ok := dom.Attr(h, "lang"); ok && strings.TrimSpace(v) != "" {
			return findings
		}
	}
	return append(findings, domain.Finding{
		RuleID:      RuleDocumentLang,
		Severity:    domain.SeveritySerious,
		Description: "The root element declares no language",
		Remediation: "Add a lang attribute to the html element, e.g. lang=\"en\".",
		SpecRef:     "WCAG 3.1.1",
	})
}

// checkDataTables requires tables with more than the configured number of
// data cells to expose header cells or scope attributes
func (a *AccessibilityAnalyzer) checkDataTables(doc *dom.Document, findings []domain.Finding) []domain.Finding {
	for _, table := range doc.Select("table") {
		if isLayoutTable(table) {
			continue
		}
		cells, headers, scoped := 0, 0, 0
		dom.Subtree(table, func(n *html.Node) {
			switch {
			case dom.IsElement(n, "td"):
				cells++
				if dom.HasAttr(n, "scope") {
					scoped++
				}
			case dom.IsElement(n, "th"):
				headers++
			}
		})
		if cells > a.rules.MinDataTableCells && headers == 0 && scoped == 0 {
			findings = append(findings, domain.Finding{
				RuleID:      RuleTableHeaders,
				Severity:    domain.SeverityModerate,
				Location:    dom.Path(table),
				Description: fmt.Sprintf("Data table with %d cells exposes no header cells or scope attributes", cells),
				Remediation: "Mark header cells with th elements or scope attributes, or role=\"presentation\" for layout tables.",
				SpecRef:     "WCAG 1.3.1",
			})
		}
	}
	return findings
}

// measureContrast resolves effective colors for every text-bearing element.
// Foreground comes from the element's inline style (default black);
// background from the element or its nearest styled ancestor (default white).
func (a *AccessibilityAnalyzer) measureContrast(doc *dom.Document) []domain.ContrastMeasurement {
	var out []domain.ContrastMeasurement
	black := colorful.Color{}
	white := colorful.Color{R: 1, G: 1, B: 1}

	for _, n := range doc.Select(textTags...) {
		text := dom.OwnText(n)
		if text == "" {
			continue
		}
		decls := css.ParseInline(dom.AttrOr(n, "style", ""))

		fg := black
		fgLabel := "#000000"
		if v, ok := css.Lookup(decls, "color"); ok {
			if c, ok := ParseColor(v); ok {
				fg, fgLabel = c, v
			}
		}

		bg := white
		bgLabel := "#ffffff"
		if c, label, ok := resolveBackground(n); ok {
			bg, bgLabel = c, label
		}

		size := defaultFontSizePx
		if v, ok := css.Lookup(decls, "font-size"); ok {
			size = parseFontSize(v)
		}
		weight := defaultFontWeight
		if v, ok := css.Lookup(decls, "font-weight"); ok {
			weight = parseFontWeight(v)
		} else if isBoldTag(n) {
			weight = 700
		}

		ratio := ContrastRatio(fg, bg)
		required := requiredRatio(size, weight)
		out = append(out, domain.ContrastMeasurement{
			Foreground:    fgLabel,
			Background:    bgLabel,
			Ratio:         ratio,
			RequiredRatio: required,
			Passed:        ratio >= required,
			PassedAAA:     ratio >= aaaRatio(size, weight),
			FontSize:      size,
			FontWeight:    weight,
			SampledText:   truncateText(text, 60),
			Location:      dom.Path(n),
		})
	}
	return out
}

// resolveBackground walks from the element up through its ancestors looking
// for an inline background color
func resolveBackground(n *html.Node) (colorful.Color, string, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		decls := css.ParseInline(dom.AttrOr(cur, "style", ""))
		for _, prop := range []string{"background-color", "background"} {
			if v, ok := css.Lookup(decls, prop); ok {
				if c, ok := ParseColor(firstColorToken(v)); ok {
					return c, firstColorToken(v), true
				}
			}
		}
		if v, ok := dom.Attr(cur, "bgcolor"); ok {
			if c, ok := ParseColor(v); ok {
				return c, v, true
			}
		}
	}
	return colorful.Color{}, "", false
}

// firstColorToken pulls the color out of a background shorthand value
func firstColorToken(value string) string {
	for _, tok := range strings.Fields(value) {
		if _, ok := ParseColor(tok); ok {
			return tok
		}
	}
	return value
}

func isBoldTag(n *html.Node) bool {
	switch n.Data {
	case "b", "strong", "h1", "h2", "h3", "h4", "h5", "h6", "th":
		return true
	}
	return false
}

func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	// Back up to a rune boundary so multi-byte characters are never split
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

var interactiveTags = []string{"a", "input", "button", "select", "textarea"}

// keyboardAccessible fails on tab-order manipulation: positive tabindex
// anywhere, or interactive elements removed from the tab order
func keyboardAccessible(doc *dom.Document) bool {
	for _, n := range doc.Select() {
		if v, ok := dom.Attr(n, "tabindex"); ok {
			if strings.TrimSpace(v) != "" && v != "0" && !strings.HasPrefix(v, "-") {
				return false
			}
		}
	}
	for _, n := range doc.Select(interactiveTags...) {
		if dom.AttrOr(n, "tabindex", "") == "-1" {
			return false
		}
	}
	return true
}

// focusManagement averages four boolean checks. Skip links are not
// meaningful in email, so that check is always satisfied.
func focusManagement(doc *dom.Document) domain.FocusManagement {
	focusable := false
	for _, n := range doc.Select(interactiveTags...) {
		if n.Data != "a" || dom.HasAttr(n, "href") {
			focusable = true
			break
		}
	}

	logicalTab := true
	for _, n := range doc.Select() {
		if v, ok := dom.Attr(n, "tabindex"); ok {
			if v != "" && v != "0" && !strings.HasPrefix(v, "-") {
				logicalTab = false
				break
			}
		}
	}

	visibleFocus := true
	for _, d := range collectDeclarations(doc) {
		if d.Property == "outline" {
			v := strings.ToLower(strings.TrimSpace(d.Value))
			if v == "none" || v == "0" {
				visibleFocus = false
				break
			}
		}
	}

	fm := domain.FocusManagement{
		HasFocusableElements: focusable,
		LogicalTabOrder:      logicalTab,
		VisibleFocusStyle:    visibleFocus,
		SkipLinkSatisfied:    true,
	}
	passed := 0
	for _, ok := range []bool{fm.HasFocusableElements, fm.LogicalTabOrder, fm.VisibleFocusStyle, fm.SkipLinkSatisfied} {
		if ok {
			passed++
		}
	}
	fm.Score = float64(passed) / 4.0
	return fm
}

// compositeScore starts at 1.0, subtracts per-severity deductions (uncapped,
// then clamped), and multiplies by the coverage and capability factors
func compositeScore(findings []domain.Finding, altCoverage float64, semantic, keyboard, screenReader bool, focusScore float64) float64 {
	score := 1.0
	for _, f := range findings {
		switch f.Severity {
		case domain.SeverityCritical:
			score -= deductCritical
		case domain.SeveritySerious:
			score -= deductSerious
		case domain.SeverityModerate:
			score -= deductModerate
		case domain.SeverityMinor:
			score -= deductMinor
		}
	}
	score = clamp01(score)

	score *= altCoverage
	if !semantic {
		score *= 0.7
	}
	if !keyboard {
		score *= 0.8
	}
	if !screenReader {
		score *= 0.8
	}
	score *= focusScore
	return clamp01(score)
}

// wcagLevel derives the conformance level from the score and the worst
// finding severity
func wcagLevel(score float64, findings []domain.Finding) domain.WCAGLevel {
	hasCritical := false
	hasSerious := false
	for _, f := range findings {
		switch f.Severity {
		case domain.SeverityCritical:
			hasCritical = true
		case domain.SeveritySerious:
			hasSerious = true
		}
	}
	switch {
	case hasCritical || score < 0.5:
		return domain.WCAGLevelFail
	case hasSerious || score < 0.7:
		return domain.WCAGLevelA
	case score < 0.85:
		return domain.WCAGLevelAA
	default:
		return domain.WCAGLevelAAA
	}
}

func hasRule(findings []domain.Finding, rule string) bool {
	for _, f := range findings {
		if f.RuleID == rule {
			return true
		}
	}
	return false
}
