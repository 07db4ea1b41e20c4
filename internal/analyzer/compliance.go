package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/ludo-technologies/mailscan/domain"
	"github.com/ludo-technologies/mailscan/internal/config"
	"github.com/ludo-technologies/mailscan/internal/css"
	"github.com/ludo-technologies/mailscan/internal/dom"
)

// Check names produced by the compliance analyzer
const (
	CheckDoctype           = "doctype"
	CheckTableLayout       = "table-layout"
	CheckInlineCoverage    = "inline-style-coverage"
	CheckImageAttributes   = "image-attributes"
	CheckCSSCompatibility  = "css-compatibility"
	CheckSizeLimit         = "size-limit"
	CheckDocumentStructure = "document-structure"
)

// styleableTags are the elements counted when measuring inline-style coverage
var styleableTags = []string{
	"body", "table", "tr", "td", "th", "div", "span", "p", "a", "img",
	"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li",
}

// ComplianceAnalyzer validates document structure and email-specific layout
// conventions. Analyze is total: it never fails on malformed input.
type ComplianceAnalyzer struct {
	rules  config.ComplianceRules
	tables css.Tables
}

// NewComplianceAnalyzer creates a compliance analyzer with the given rules
func NewComplianceAnalyzer(rules config.ComplianceRules) *ComplianceAnalyzer {
	return &ComplianceAnalyzer{
		rules:  rules,
		tables: css.NewTables(rules.AllowedProperties, rules.UnsupportedProperties),
	}
}

// Analyze runs every compliance check against the document and returns a
// complete result. Malformed markup degrades individual checks to failed;
// empty input yields a zero-score result with a single critical finding.
func (a *ComplianceAnalyzer) Analyze(input string) *domain.ComplianceResult {
	doc, err := dom.Parse(input)
	if err != nil {
		return invalidInputComplianceResult(err)
	}

	details := []domain.ComplianceDetail{
		a.checkDoctype(doc),
		a.checkTableLayout(doc),
		a.checkInlineCoverage(doc),
		a.checkImageAttributes(doc),
		a.checkCSSCompatibility(doc),
		a.checkSizeLimit(doc),
		a.checkDocumentStructure(doc),
	}

	passed := 0
	for _, d := range details {
		if d.Passed {
			passed++
		}
	}

	size := measureSize(doc)
	result := &domain.ComplianceResult{
		Score:           float64(passed) / float64(len(details)),
		Doctype:         doctypeLabel(doc),
		Encoding:        detectEncoding(doc),
		Details:         details,
		Size:            size,
		WithinSizeLimit: size.TotalBytes <= a.rules.SizeLimitBytes,
		SemanticScore:   a.semanticScore(doc),
		Suggestions:     buildSuggestions(details),
	}
	return result
}

func invalidInputComplianceResult(err error) *domain.ComplianceResult {
	return &domain.ComplianceResult{
		Score:    0,
		Doctype:  "none",
		Encoding: "unknown",
		Findings: []domain.Finding{{
			RuleID:      "invalid-input",
			Severity:    domain.SeverityCritical,
			Description: fmt.Sprintf("document could not be analyzed: %v", err),
			Remediation: "Provide a non-empty HTML document.",
		}},
		WithinSizeLimit: true,
	}
}

func (a *ComplianceAnalyzer) checkDoctype(doc *dom.Document) domain.ComplianceDetail {
	dt := doc.Doctype()
	if dt == "" {
		return domain.ComplianceDetail{
			CheckName:  CheckDoctype,
			Passed:     false,
			Message:    "No document type declaration found; clients may fall back to quirks rendering",
			Importance: domain.ImportanceHigh,
		}
	}
	return domain.ComplianceDetail{
		CheckName:  CheckDoctype,
		Passed:     true,
		Message:    fmt.Sprintf("Document declares doctype %q", dt),
		Importance: domain.ImportanceHigh,
	}
}

// checkTableLayout requires at least two tables with at least one nested
// inside another, the backbone of email-safe layout
func (a *ComplianceAnalyzer) checkTableLayout(doc *dom.Document) domain.ComplianceDetail {
	tables := doc.Select("table")
	nested := false
	for _, t := range tables {
		if dom.HasAncestor(t, "table") {
			nested = true
			break
		}
	}
	passed := len(tables) >= 2 && nested
	msg := fmt.Sprintf("Found %d table(s); nested container present: %t", len(tables), nested)
	if passed {
		msg = fmt.Sprintf("Table-based layout detected (%d tables, nested container present)", len(tables))
	}
	return domain.ComplianceDetail{
		CheckName:  CheckTableLayout,
		Passed:     passed,
		Message:    msg,
		Importance: domain.ImportanceHigh,
	}
}

func (a *ComplianceAnalyzer) checkInlineCoverage(doc *dom.Document) domain.ComplianceDetail {
	candidates := doc.Select(styleableTags...)
	if len(candidates) == 0 {
		return domain.ComplianceDetail{
			CheckName:  CheckInlineCoverage,
			Passed:     false,
			Message:    "No styleable elements found",
			Importance: domain.ImportanceMedium,
		}
	}
	styled := 0
	for _, n := range candidates {
		if v, ok := dom.Attr(n, "style"); ok && strings.TrimSpace(v) != "" {
			styled++
		}
	}
	coverage := float64(styled) / float64(len(candidates))
	return domain.ComplianceDetail{
		CheckName:  CheckInlineCoverage,
		Passed:     coverage >= a.rules.InlineCoverageThreshold,
		Message:    fmt.Sprintf("%.0f%% of %d styleable elements carry inline styles (minimum %.0f%%)", coverage*100, len(candidates), a.rules.InlineCoverageThreshold*100),
		Importance: domain.ImportanceMedium,
	}
}

func (a *ComplianceAnalyzer) checkImageAttributes(doc *dom.Document) domain.ComplianceDetail {
	images := doc.Select("img")
	missing := 0
	for _, img := range images {
		if !dom.HasAttr(img, "width") || !dom.HasAttr(img, "height") || !dom.HasAttr(img, "alt") {
			missing++
		}
	}
	return domain.ComplianceDetail{
		CheckName:  CheckImageAttributes,
		Passed:     missing == 0,
		Message:    fmt.Sprintf("%d of %d images missing width, height, or alt attributes", missing, len(images)),
		Importance: domain.ImportanceHigh,
	}
}

// checkCSSCompatibility fails only on deny-listed properties; properties on
// neither table are neutral
func (a *ComplianceAnalyzer) checkCSSCompatibility(doc *dom.Document) domain.ComplianceDetail {
	unsupported := map[string]bool{}
	for _, d := range collectDeclarations(doc) {
		if a.tables.Classify(d.Property) == css.ClassUnsupported {
			unsupported[d.Property] = true
		}
	}
	if len(unsupported) == 0 {
		return domain.ComplianceDetail{
			CheckName:  CheckCSSCompatibility,
			Passed:     true,
			Message:    "All CSS properties are email-safe or neutral",
			Importance: domain.ImportanceHigh,
		}
	}
	props := make([]string, 0, len(unsupported))
	for p := range unsupported {
		props = append(props, p)
	}
	sort.Strings(props)
	return domain.ComplianceDetail{
		CheckName:  CheckCSSCompatibility,
		Passed:     false,
		Message:    fmt.Sprintf("Unsupported CSS properties in use: %s", strings.Join(props, ", ")),
		Importance: domain.ImportanceHigh,
	}
}

func (a *ComplianceAnalyzer) checkSizeLimit(doc *dom.Document) domain.ComplianceDetail {
	total := doc.Size()
	return domain.ComplianceDetail{
		CheckName:  CheckSizeLimit,
		Passed:     total <= a.rules.SizeLimitBytes,
		Message:    fmt.Sprintf("Document is %d bytes (clipping limit %d)", total, a.rules.SizeLimitBytes),
		Importance: domain.ImportanceHigh,
	}
}

func (a *ComplianceAnalyzer) checkDocumentStructure(doc *dom.Document) domain.ComplianceDetail {
	hasHTML := len(doc.Select("html")) > 0
	hasHead := len(doc.Select("head")) > 0
	hasBody := len(doc.Select("body")) > 0
	hasTable := len(doc.Select("table")) > 0
	passed := hasHTML && hasHead && hasBody && hasTable
	return domain.ComplianceDetail{
		CheckName:  CheckDocumentStructure,
		Passed:     passed,
		Message:    fmt.Sprintf("html: %t, head: %t, body: %t, container table: %t", hasHTML, hasHead, hasBody, hasTable),
		Importance: domain.ImportanceMedium,
	}
}

// semanticScore is independent of the check score: the fraction of four
// structural qualities the document gets right. Absent structures count as
// correct.
func (a *ComplianceAnalyzer) semanticScore(doc *dom.Document) float64 {
	checks := []bool{
		headingsMonotonic(doc),
		listsWellFormed(doc),
		dataTablesLabeled(doc, 3),
		formsLabeled(doc),
	}
	passed := 0
	for _, ok := range checks {
		if ok {
			passed++
		}
	}
	return float64(passed) / float64(len(checks))
}

// headingsMonotonic allows levels to decrease freely but never to skip more
// than one level going deeper
func headingsMonotonic(doc *dom.Document) bool {
	prev := 0
	for _, h := range doc.Select("h1", "h2", "h3", "h4", "h5", "h6") {
		level := int(h.Data[1] - '0')
		if prev != 0 && level > prev+1 {
			return false
		}
		prev = level
	}
	return true
}

func listsWellFormed(doc *dom.Document) bool {
	for _, list := range doc.Select("ul", "ol") {
		hasItem := false
		for c := list.FirstChild; c != nil; c = c.NextSibling {
			if dom.IsElement(c, "li") {
				hasItem = true
				break
			}
		}
		if !hasItem {
			return false
		}
	}
	for _, li := range doc.Select("li") {
		if !dom.HasAncestor(li, "ul") && !dom.HasAncestor(li, "ol") {
			return false
		}
	}
	return true
}

// dataTablesLabeled requires tables with more than minCells data cells to
// expose header cells or scope attributes
func dataTablesLabeled(doc *dom.Document, minCells int) bool {
	for _, table := range doc.Select("table") {
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
		if cells > minCells && headers == 0 && scoped == 0 && !isLayoutTable(table) {
			return false
		}
	}
	return true
}

// isLayoutTable treats presentation-role tables as layout, exempt from data
// table labelling
func isLayoutTable(table *html.Node) bool {
	return dom.AttrOr(table, "role", "") == "presentation"
}

func formsLabeled(doc *dom.Document) bool {
	labeledIDs := map[string]bool{}
	for _, l := range doc.Select("label") {
		if v, ok := dom.Attr(l, "for"); ok {
			labeledIDs[v] = true
		}
	}
	for _, in := range doc.Select("input", "select", "textarea") {
		if dom.AttrOr(in, "type", "") == "hidden" {
			continue
		}
		if _, ok := dom.Attr(in, "aria-label"); ok {
			continue
		}
		if id, ok := dom.Attr(in, "id"); ok && labeledIDs[id] {
			continue
		}
		if dom.HasAncestor(in, "label") {
			continue
		}
		return false
	}
	return true
}

// collectDeclarations gathers every declaration from style attributes and
// embedded style blocks
func collectDeclarations(doc *dom.Document) []css.Declaration {
	var decls []css.Declaration
	for _, n := range doc.Select() {
		if v, ok := dom.Attr(n, "style"); ok {
			decls = append(decls, css.ParseInline(v)...)
		}
	}
	for _, block := range doc.StyleBlocks() {
		d, _ := css.ParseBlock(block)
		decls = append(decls, d...)
	}
	return decls
}

func measureSize(doc *dom.Document) domain.SizeBreakdown {
	styleBytes := 0
	for _, n := range doc.Select() {
		if v, ok := dom.Attr(n, "style"); ok {
			styleBytes += len(v)
		}
	}
	for _, block := range doc.StyleBlocks() {
		styleBytes += len(block)
	}
	total := doc.Size()
	return domain.SizeBreakdown{
		TotalBytes:  total,
		MarkupBytes: total - styleBytes,
		StyleBytes:  styleBytes,
	}
}

func doctypeLabel(doc *dom.Document) string {
	dt := doc.Doctype()
	switch {
	case dt == "":
		return "none"
	case strings.Contains(strings.ToLower(dt), "xhtml"):
		return "xhtml"
	case strings.EqualFold(dt, "html"):
		return "html5"
	default:
		return dt
	}
}

func detectEncoding(doc *dom.Document) string {
	for _, m := range doc.Select("meta") {
		if v, ok := dom.Attr(m, "charset"); ok && v != "" {
			return strings.ToLower(v)
		}
		if strings.EqualFold(dom.AttrOr(m, "http-equiv", ""), "content-type") {
			content := strings.ToLower(dom.AttrOr(m, "content", ""))
			if i := strings.Index(content, "charset="); i >= 0 {
				return strings.TrimSpace(content[i+len("charset="):])
			}
		}
	}
	return "unknown"
}

// impact strings keyed by check name; textual estimates, not measurements
var suggestionImpacts = map[string]struct {
	suggestion string
	impact     string
}{
	CheckDoctype:           {"Add an XHTML 1.0 Transitional or HTML5 doctype declaration", "Prevents quirks-mode rendering differences across clients"},
	CheckTableLayout:       {"Wrap content in a container table with nested layout tables", "Restores consistent layout in Outlook and older clients"},
	CheckInlineCoverage:    {"Inline critical styles onto elements instead of relying on style blocks", "Survives Gmail's style-block stripping"},
	CheckImageAttributes:   {"Declare width, height, and alt on every image", "Avoids layout shift and broken-image gaps when images are blocked"},
	CheckCSSCompatibility:  {"Replace unsupported CSS properties with table attributes or safe equivalents", "Eliminates silent style drops in major clients"},
	CheckSizeLimit:         {"Reduce markup and inline CSS below the 102 KiB clipping ceiling", "Prevents Gmail message clipping, estimated full-content delivery"},
	CheckDocumentStructure: {"Add html, head, and body elements plus a container table", "Gives clients a complete document to render predictably"},
}

// buildSuggestions ranks one suggestion per failed check, high importance first
func buildSuggestions(details []domain.ComplianceDetail) []domain.OptimizationSuggestion {
	var out []domain.OptimizationSuggestion
	for _, d := range details {
		if d.Passed {
			continue
		}
		s := suggestionImpacts[d.CheckName]
		out = append(out, domain.OptimizationSuggestion{
			CheckName:       d.CheckName,
			Suggestion:      s.suggestion,
			EstimatedImpact: s.impact,
			Importance:      d.Importance,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return importanceRank(out[i].Importance) > importanceRank(out[j].Importance)
	})
	return out
}

func importanceRank(i domain.Importance) int {
	switch i {
	case domain.ImportanceHigh:
		return 3
	case domain.ImportanceMedium:
		return 2
	default:
		return 1
	}
}
