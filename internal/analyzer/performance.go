package analyzer

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/ludo-technologies/mailscan/domain"
	"github.com/ludo-technologies/mailscan/internal/config"
	"github.com/ludo-technologies/mailscan/internal/constants"
	"github.com/ludo-technologies/mailscan/internal/css"
	"github.com/ludo-technologies/mailscan/internal/dom"
)

// Performance rule identifiers
const (
	RuleDeliverySize   = "delivery-size"
	RuleDOMComplexity  = "dom-complexity"
	RuleCSSUnsupported = "css-unsupported"
	RuleImageWeight    = "image-weight"
)

// Weights for the chained multiplicative blend: each sub-score is applied as
// score*weight + (1-weight)
const (
	weightSize         = 0.30
	weightDOM          = 0.20
	weightCSS          = 0.20
	weightImages       = 0.15
	weightMobile       = 0.10
	weightCacheability = 0.05
)

// baseLatencyMs anchors the illustrative loading estimate
const baseLatencyMs = 100.0

// FormatPredicate decides whether an image file name looks like a photograph
// (JPEG territory). Pluggable like the decorative heuristic.
type FormatPredicate func(src string) bool

// PerformanceAnalyzer computes byte-size, DOM, CSS, image, and mobile metrics
// and blends them into one performance score. Analyze is total.
type PerformanceAnalyzer struct {
	rules   config.PerformanceRules
	tables  css.Tables
	isPhoto FormatPredicate
	limit   int
}

// NewPerformanceAnalyzer creates a performance analyzer sharing the
// compliance property tables
func NewPerformanceAnalyzer(rules config.PerformanceRules, compliance config.ComplianceRules) *PerformanceAnalyzer {
	a := &PerformanceAnalyzer{
		rules:  rules,
		tables: css.NewTables(compliance.AllowedProperties, compliance.UnsupportedProperties),
		limit:  compliance.SizeLimitBytes,
	}
	a.isPhoto = func(src string) bool {
		name := strings.ToLower(path.Base(src))
		for _, kw := range rules.PhotoKeywords {
			if strings.Contains(name, kw) {
				return true
			}
		}
		return false
	}
	return a
}

// WithFormatPredicate replaces the photograph heuristic
func (a *PerformanceAnalyzer) WithFormatPredicate(p FormatPredicate) *PerformanceAnalyzer {
	a.isPhoto = p
	return a
}

// Analyze computes all performance metrics for the document. Optional target
// client keys add advisory compatibility notes.
func (a *PerformanceAnalyzer) Analyze(input string, targetClients ...string) *domain.PerformanceResult {
	doc, err := dom.Parse(input)
	if err != nil {
		return &domain.PerformanceResult{
			Score: 0,
			Grade: domain.GradeF,
			Findings: []domain.Finding{{
				RuleID:      RuleInvalidInput,
				Severity:    domain.SeverityCritical,
				Description: fmt.Sprintf("document could not be analyzed: %v", err),
				Remediation: "Provide a non-empty HTML document.",
			}},
		}
	}

	images := doc.Select("img")
	size := a.analyzeSize(doc, images)
	domc := a.analyzeDOM(doc)
	cssc := a.analyzeCSS(doc)
	imgOpt := a.analyzeImages(doc, images, size.EstimatedImageBytes)
	mobile := a.analyzeMobile(doc, images)
	cache := a.analyzeCacheability(doc, images)
	loading := a.estimateLoading(doc, size, images)

	// DOM and CSS scores accumulate penalties (higher is worse) and are
	// inverted before blending
	score := 1.0
	score *= size.Score*weightSize + (1 - weightSize)
	score *= (1-domc.Score)*weightDOM + (1 - weightDOM)
	score *= (1-cssc.Score)*weightCSS + (1 - weightCSS)
	score *= imgOpt.Score*weightImages + (1 - weightImages)
	score *= mobile.Score*weightMobile + (1 - weightMobile)
	score *= cache.Score*weightCacheability + (1 - weightCacheability)
	score = clamp01(score)

	return &domain.PerformanceResult{
		Score:        score,
		Grade:        domain.GradeForScore(score),
		Findings:     a.collectFindings(size, domc, cssc, imgOpt),
		Size:         size,
		DOM:          domc,
		CSS:          cssc,
		Images:       imgOpt,
		Mobile:       mobile,
		Loading:      loading,
		Cacheability: cache,
		ClientNotes:  a.clientNotes(cssc, targetClients),
	}
}

func (a *PerformanceAnalyzer) analyzeSize(doc *dom.Document, images []*html.Node) domain.SizeAnalysis {
	cssBytes := 0
	for _, n := range doc.Select() {
		if v, ok := dom.Attr(n, "style"); ok {
			cssBytes += len(v)
		}
	}
	for _, block := range doc.StyleBlocks() {
		cssBytes += len(block)
	}

	imageBytes := 0
	for _, img := range images {
		imageBytes += estimateImageBytes(img)
	}

	total := doc.Size()
	within := total+imageBytes <= a.limit
	usage := float64(total+imageBytes) / float64(a.limit)

	score := 1.0
	switch {
	case usage > 1.0:
		score = 0.3
	case usage > 0.9:
		score = 0.7
	case usage > 0.75:
		score = 0.9
	}

	return domain.SizeAnalysis{
		TotalBytes:           total,
		CSSBytes:             cssBytes,
		EstimatedImageBytes:  imageBytes,
		WithinDeliveryLimits: within,
		Score:                score,
	}
}

// estimateImageBytes approximates weight from declared dimensions; images are
// never fetched. Undeclared dimensions assume 100x100.
func estimateImageBytes(img *html.Node) int {
	w := attrInt(img, "width", constants.DefaultImageWidth)
	h := attrInt(img, "height", constants.DefaultImageHeight)
	est := w * h / 10
	if est < constants.MinEstimatedImageBytes {
		est = constants.MinEstimatedImageBytes
	}
	return est
}

func attrInt(n *html.Node, name string, fallback int) int {
	v, ok := dom.Attr(n, name)
	if !ok {
		return fallback
	}
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	if i, err := strconv.Atoi(v); err == nil && i > 0 {
		return i
	}
	return fallback
}

// analyzeDOM accumulates penalties; only the single highest applicable tier
// fires per dimension
func (a *PerformanceAnalyzer) analyzeDOM(doc *dom.Document) domain.DOMComplexity {
	elements := doc.ElementCount()
	depth := doc.MaxDepth()

	tableElems := len(doc.Select("table", "tr", "td", "th", "thead", "tbody", "tfoot"))
	ratio := 0.0
	if elements > 0 {
		ratio = float64(tableElems) / float64(elements)
	}

	penalty := 0.0
	switch {
	case elements > 500:
		penalty += 0.3
	case elements > 300:
		penalty += 0.2
	case elements > 150:
		penalty += 0.1
	}
	switch {
	case depth > 15:
		penalty += 0.3
	case depth > 10:
		penalty += 0.2
	case depth > 7:
		penalty += 0.1
	}
	// A table-element share outside the healthy band signals either div-soup
	// or table abuse
	if ratio < 0.30 || ratio > 0.80 {
		penalty += 0.15
	}

	return domain.DOMComplexity{
		ElementCount: elements,
		MaxDepth:     depth,
		TableRatio:   ratio,
		Score:        clamp01(penalty),
	}
}

func (a *PerformanceAnalyzer) analyzeCSS(doc *dom.Document) domain.CSSComplexity {
	inline := 0
	var decls []css.Declaration
	for _, n := range doc.Select() {
		if v, ok := dom.Attr(n, "style"); ok {
			d := css.ParseInline(v)
			inline += len(d)
			decls = append(decls, d...)
		}
	}
	blocks := doc.StyleBlocks()
	for _, block := range blocks {
		d, _ := css.ParseBlock(block)
		decls = append(decls, d...)
	}

	unsupported := map[string]bool{}
	unsupportedCount := 0
	for _, d := range decls {
		if a.tables.Classify(d.Property) == css.ClassUnsupported {
			unsupported[d.Property] = true
			unsupportedCount++
		}
	}
	ratio := 0.0
	if len(decls) > 0 {
		ratio = float64(unsupportedCount) / float64(len(decls))
	}

	penalty := 0.0
	if len(blocks) > 0 {
		penalty += 0.2
	}
	penalty += ratio * 0.5
	switch {
	case len(decls) > 1000:
		penalty += 0.3
	case len(decls) > 500:
		penalty += 0.15
	}

	props := make([]string, 0, len(unsupported))
	for p := range unsupported {
		props = append(props, p)
	}
	sort.Strings(props)

	return domain.CSSComplexity{
		InlineDeclarations:    inline,
		EmbeddedBlocks:        len(blocks),
		PropertyCount:         len(decls),
		UnsupportedCount:      unsupportedCount,
		UnsupportedRatio:      ratio,
		UnsupportedProperties: props,
		Score:                 clamp01(penalty),
	}
}

func (a *PerformanceAnalyzer) analyzeImages(doc *dom.Document, images []*html.Node, estimatedBytes int) domain.ImageOptimization {
	if len(images) == 0 {
		return domain.ImageOptimization{Score: 1.0}
	}

	missingDims := 0
	missingAlt := 0
	var suggestions []domain.ImageSuggestion
	for _, img := range images {
		src := dom.AttrOr(img, "src", "")
		hasDims := dom.HasAttr(img, "width") && dom.HasAttr(img, "height")
		if !hasDims {
			missingDims++
			suggestions = append(suggestions, domain.ImageSuggestion{
				Source:     src,
				Issue:      "missing dimensions",
				Suggestion: "Declare width and height attributes to avoid layout shift",
				Location:   dom.Path(img),
			})
		}
		if !dom.HasAttr(img, "alt") {
			missingAlt++
			suggestions = append(suggestions, domain.ImageSuggestion{
				Source:     src,
				Issue:      "missing alt text",
				Suggestion: "Add an alt attribute for blocked-image rendering",
				Location:   dom.Path(img),
			})
		}
		if s := a.formatSuggestion(img, src); s != "" {
			suggestions = append(suggestions, domain.ImageSuggestion{
				Source:     src,
				Issue:      "format",
				Suggestion: s,
				Location:   dom.Path(img),
			})
		}
	}

	dimCoverage := float64(len(images)-missingDims) / float64(len(images))
	flagged := missingDims + missingAlt
	if flagged > len(images) {
		flagged = len(images)
	}
	opportunity := float64(len(images)-flagged) / float64(len(images))

	sizePenalty := 1.0
	switch {
	case estimatedBytes > a.limit:
		sizePenalty = 0.6
	case estimatedBytes > a.limit/2:
		sizePenalty = 0.8
	}

	return domain.ImageOptimization{
		ImageCount:        len(images),
		MissingDimensions: missingDims,
		MissingAlt:        missingAlt,
		Suggestions:       suggestions,
		Score:             clamp01(dimCoverage * opportunity * sizePenalty),
	}
}

// formatSuggestion fires only when a simple heuristic is conclusive: small
// graphics prefer PNG, photographs prefer JPEG
func (a *PerformanceAnalyzer) formatSuggestion(img *html.Node, src string) string {
	ext := strings.ToLower(path.Ext(src))
	est := estimateImageBytes(img)
	if est < a.rules.SmallImageBytes && (ext == ".jpg" || ext == ".jpeg") {
		return "Small graphic encoded as JPEG; PNG would likely be smaller and sharper"
	}
	if a.isPhoto(src) && ext == ".png" {
		return "Photograph encoded as PNG; JPEG would likely cut its weight substantially"
	}
	return ""
}

func (a *PerformanceAnalyzer) analyzeMobile(doc *dom.Document, images []*html.Node) domain.MobileOptimization {
	m := domain.MobileOptimization{
		HasViewportMeta:  hasViewportMeta(doc),
		ResponsiveImages: responsiveImages(images),
		HasMediaQueries:  hasMediaQueries(doc),
		TouchFriendly:    touchFriendly(doc),
		ReadableFontSize: readableFontSize(doc),
	}
	passed := 0
	for _, ok := range []bool{m.HasViewportMeta, m.ResponsiveImages, m.HasMediaQueries, m.TouchFriendly, m.ReadableFontSize} {
		if ok {
			passed++
		}
	}
	m.Score = float64(passed) / 5.0
	return m
}

func hasViewportMeta(doc *dom.Document) bool {
	for _, m := range doc.Select("meta") {
		if strings.EqualFold(dom.AttrOr(m, "name", ""), "viewport") {
			return true
		}
	}
	return false
}

// responsiveImages passes when every image either constrains itself with
// max-width/percentage width or is small enough not to matter
func responsiveImages(images []*html.Node) bool {
	for _, img := range images {
		style := strings.ToLower(dom.AttrOr(img, "style", ""))
		if strings.Contains(style, "max-width") {
			continue
		}
		if strings.Contains(dom.AttrOr(img, "width", ""), "%") {
			continue
		}
		if attrInt(img, "width", constants.DefaultImageWidth) <= 320 {
			continue
		}
		return false
	}
	return true
}

func hasMediaQueries(doc *dom.Document) bool {
	for _, block := range doc.StyleBlocks() {
		if _, media := css.ParseBlock(block); media {
			return true
		}
	}
	return false
}

// touchFriendly requires interactive elements to declare some touch sizing
// (padding, height, or display making them block-level targets)
func touchFriendly(doc *dom.Document) bool {
	links := doc.Select("a", "button")
	if len(links) == 0 {
		return true
	}
	for _, n := range links {
		decls := css.ParseInline(dom.AttrOr(n, "style", ""))
		if _, ok := css.Lookup(decls, "padding"); ok {
			continue
		}
		if _, ok := css.Lookup(decls, "height"); ok {
			continue
		}
		if v, ok := css.Lookup(decls, "display"); ok {
			dv := strings.ToLower(v)
			if dv == "block" || dv == "inline-block" {
				continue
			}
		}
		// A containing table cell with padding is an equally valid target
		if cellPadded(n) {
			continue
		}
		return false
	}
	return true
}

func cellPadded(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if dom.IsElement(p, "td") || dom.IsElement(p, "th") {
			decls := css.ParseInline(dom.AttrOr(p, "style", ""))
			if _, ok := css.Lookup(decls, "padding"); ok {
				return true
			}
		}
	}
	return false
}

// readableFontSize fails when any inline font-size on body text drops below
// 14px
func readableFontSize(doc *dom.Document) bool {
	for _, n := range doc.Select(textTags...) {
		decls := css.ParseInline(dom.AttrOr(n, "style", ""))
		if v, ok := css.Lookup(decls, "font-size"); ok {
			if parseFontSize(v) < 14 {
				return false
			}
		}
	}
	return true
}

func (a *PerformanceAnalyzer) analyzeCacheability(doc *dom.Document, images []*html.Node) domain.Cacheability {
	stable := true
	for _, img := range images {
		if strings.Contains(dom.AttrOr(img, "src", ""), "?") {
			stable = false
			break
		}
	}
	noExpiry := true
	for _, m := range doc.Select("meta") {
		equiv := strings.ToLower(dom.AttrOr(m, "http-equiv", ""))
		if equiv == "expires" || equiv == "pragma" || equiv == "cache-control" {
			noExpiry = false
			break
		}
	}
	c := domain.Cacheability{StableImageURLs: stable, NoExpiryHints: noExpiry}
	passed := 0
	if stable {
		passed++
	}
	if noExpiry {
		passed++
	}
	c.Score = float64(passed) / 2.0
	return c
}

// estimateLoading is a closed-form illustrative figure, never measured
func (a *PerformanceAnalyzer) estimateLoading(doc *dom.Document, size domain.SizeAnalysis, images []*html.Node) domain.LoadingEstimate {
	elements := doc.ElementCount()
	cssKiB := float64(size.CSSBytes) / 1024.0
	return domain.LoadingEstimate{
		EstimatedMs:  baseLatencyMs + 0.1*float64(elements) + 2.0*cssKiB + 100.0*float64(len(images)),
		ElementCount: elements,
		CSSKiB:       cssKiB,
		ImageCount:   len(images),
	}
}

func (a *PerformanceAnalyzer) collectFindings(size domain.SizeAnalysis, domc domain.DOMComplexity, cssc domain.CSSComplexity, images domain.ImageOptimization) []domain.Finding {
	var findings []domain.Finding
	if !size.WithinDeliveryLimits {
		findings = append(findings, domain.Finding{
			RuleID:      RuleDeliverySize,
			Severity:    domain.SeveritySerious,
			Description: fmt.Sprintf("Estimated delivery weight %d bytes exceeds the %d byte clipping limit", size.TotalBytes+size.EstimatedImageBytes, a.limit),
			Remediation: "Trim markup and image weight below the clipping ceiling.",
		})
	}
	if domc.ElementCount > 500 || domc.MaxDepth > 15 {
		findings = append(findings, domain.Finding{
			RuleID:      RuleDOMComplexity,
			Severity:    domain.SeverityModerate,
			Description: fmt.Sprintf("Document tree is heavy: %d elements, nesting depth %d", domc.ElementCount, domc.MaxDepth),
			Remediation: "Flatten nested tables and remove wrapper elements.",
		})
	}
	if cssc.UnsupportedCount > 0 {
		findings = append(findings, domain.Finding{
			RuleID:      RuleCSSUnsupported,
			Severity:    domain.SeverityModerate,
			Description: fmt.Sprintf("%d CSS declarations use properties known to break in email clients: %s", cssc.UnsupportedCount, strings.Join(cssc.UnsupportedProperties, ", ")),
			Remediation: "Replace deny-listed properties with email-safe equivalents.",
		})
	}
	if images.MissingDimensions > 0 {
		findings = append(findings, domain.Finding{
			RuleID:      RuleImageWeight,
			Severity:    domain.SeverityMinor,
			Description: fmt.Sprintf("%d image(s) declare no dimensions", images.MissingDimensions),
			Remediation: "Declare width and height so layout is stable while images load.",
		})
	}
	return findings
}

// clientNotes reports which unsupported properties in the document are known
// quirks of each requested target client. Advisory only; never scored.
func (a *PerformanceAnalyzer) clientNotes(cssc domain.CSSComplexity, targets []string) []domain.ClientNote {
	if len(targets) == 0 {
		return nil
	}
	inUse := map[string]bool{}
	for _, p := range cssc.UnsupportedProperties {
		inUse[p] = true
	}
	var notes []domain.ClientNote
	for _, target := range targets {
		key := strings.ToLower(strings.TrimSpace(target))
		quirks, known := a.rules.ClientQuirks[key]
		if !known {
			notes = append(notes, domain.ClientNote{
				Client: key,
				Note:   "No compatibility data for this client",
			})
			continue
		}
		var hits []string
		for _, q := range quirks {
			if inUse[q] {
				hits = append(hits, q)
			}
		}
		sort.Strings(hits)
		note := "No known-problem properties detected for this client"
		if len(hits) > 0 {
			note = fmt.Sprintf("Properties known to misrender: %s", strings.Join(hits, ", "))
		}
		notes = append(notes, domain.ClientNote{Client: key, Properties: hits, Note: note})
	}
	return notes
}
