package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ludo-technologies/mailscan/domain"
	"github.com/ludo-technologies/mailscan/internal/analyzer"
	"github.com/ludo-technologies/mailscan/internal/config"
	"github.com/ludo-technologies/mailscan/internal/constants"
	"github.com/ludo-technologies/mailscan/internal/version"
)

// QualityServiceImpl implements the QualityService interface. The public
// contract is total: RunQualityAssurance always returns a complete report
// and never panics or errors for any string input.
type QualityServiceImpl struct {
	cfg           *config.Config
	compliance    *analyzer.ComplianceAnalyzer
	accessibility *analyzer.AccessibilityAnalyzer
	performance   *analyzer.PerformanceAnalyzer
}

// NewQualityService creates a new quality service with the given
// configuration. The rule tables are bound into the analyzers once here and
// shared read-only afterwards.
func NewQualityService(cfg *config.Config) *QualityServiceImpl {
	return &QualityServiceImpl{
		cfg:           cfg,
		compliance:    analyzer.NewComplianceAnalyzer(cfg.Compliance),
		accessibility: analyzer.NewAccessibilityAnalyzer(cfg.Accessibility),
		performance:   analyzer.NewPerformanceAnalyzer(cfg.Performance, cfg.Compliance),
	}
}

// RunQualityAssurance runs the three analyzers concurrently over the input
// and folds their results into one report. Disabled analyzers are replaced
// by perfect defaults so the report shape is always complete. A panicking
// analyzer contributes a degraded zero-score result with one critical
// finding; an analyzer failing to return at all (cancellation) is converted
// into an all-zero report.
func (s *QualityServiceImpl) RunQualityAssurance(ctx context.Context, input string, opts domain.Options) *domain.QualityReport {
	start := time.Now()
	meta := func() domain.TestMetadata {
		return domain.TestMetadata{
			Timestamp:      start,
			TestDurationMs: time.Since(start).Milliseconds(),
			HTMLSizeBytes:  len(input),
			TargetClients:  opts.TargetClients,
			Version:        version.GetVersion(),
		}
	}

	if strings.TrimSpace(input) == "" {
		return s.invalidInputReport(input, meta)
	}

	var (
		complianceResult    *domain.ComplianceResult
		accessibilityResult *domain.AccessibilityResult
		performanceResult   *domain.PerformanceResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runAnalyzer(gctx, constants.AnalysisCompliance, func() {
			complianceResult = s.compliance.Analyze(input)
		}, func(r any) {
			complianceResult = analysisErrorComplianceResult(r)
		})
	})
	if opts.IncludeAccessibility {
		g.Go(func() error {
			return runAnalyzer(gctx, constants.AnalysisAccessibility, func() {
				accessibilityResult = s.accessibility.Analyze(input)
			}, func(r any) {
				accessibilityResult = analysisErrorAccessibilityResult(r)
			})
		})
	}
	if opts.IncludePerformance {
		g.Go(func() error {
			return runAnalyzer(gctx, constants.AnalysisPerformance, func() {
				performanceResult = s.performance.Analyze(input, opts.TargetClients...)
			}, func(r any) {
				performanceResult = analysisErrorPerformanceResult(r)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return s.failureReport(input, err, meta)
	}

	if !opts.IncludeAccessibility {
		accessibilityResult = perfectAccessibilityResult()
	}
	if !opts.IncludePerformance {
		performanceResult = perfectPerformanceResult()
	}

	overall := constants.ComplianceWeight*complianceResult.Score +
		constants.AccessibilityWeight*accessibilityResult.Score +
		constants.PerformanceWeight*performanceResult.Score

	return &domain.QualityReport{
		OverallScore:    overall,
		OverallGrade:    domain.GradeForScore(overall),
		HTML:            complianceResult,
		Accessibility:   accessibilityResult,
		Performance:     performanceResult,
		Recommendations: mergeRecommendations(complianceResult, accessibilityResult, performanceResult),
		Summary:         buildSummary(complianceResult, accessibilityResult, performanceResult),
		TestMetadata:    meta(),
		ContentHash:     contentHash(input),
	}
}

// runAnalyzer guards one analyzer task. A panic is confined to that
// analyzer: onPanic substitutes a degraded result and the remaining
// analyzers still contribute theirs. Cancellation is the only error
// surfaced, since then no result exists at all.
func runAnalyzer(ctx context.Context, name string, fn func(), onPanic func(r any)) error {
	select {
	case <-ctx.Done():
		return domain.NewAnalysisError(fmt.Sprintf("%s analyzer cancelled", name), ctx.Err())
	default:
	}
	defer func() {
		if r := recover(); r != nil {
			onPanic(r)
		}
	}()
	fn()
	return nil
}

const ruleAnalysisError = "analysis-error"

func analysisErrorFinding(name string, r any) domain.Finding {
	return domain.Finding{
		RuleID:      ruleAnalysisError,
		Severity:    domain.SeverityCritical,
		Description: fmt.Sprintf("The %s analyzer failed unexpectedly: %v", name, r),
		Remediation: "Rerun the analysis; the remaining analyzers completed normally",
	}
}

func analysisErrorComplianceResult(r any) *domain.ComplianceResult {
	res := zeroComplianceResult()
	res.Findings = []domain.Finding{analysisErrorFinding(constants.AnalysisCompliance, r)}
	return res
}

func analysisErrorAccessibilityResult(r any) *domain.AccessibilityResult {
	res := zeroAccessibilityResult()
	res.Findings = []domain.Finding{analysisErrorFinding(constants.AnalysisAccessibility, r)}
	return res
}

func analysisErrorPerformanceResult(r any) *domain.PerformanceResult {
	res := zeroPerformanceResult()
	res.Findings = []domain.Finding{analysisErrorFinding(constants.AnalysisPerformance, r)}
	return res
}

func contentHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// invalidInputReport covers the degraded-mode contract for empty input:
// score 0, grade F, one critical recommendation
func (s *QualityServiceImpl) invalidInputReport(input string, meta func() domain.TestMetadata) *domain.QualityReport {
	return &domain.QualityReport{
		OverallScore:  0,
		OverallGrade:  domain.GradeF,
		HTML:          zeroComplianceResult(),
		Accessibility: zeroAccessibilityResult(),
		Performance:   zeroPerformanceResult(),
		Recommendations: []domain.Recommendation{{
			Category:    "input",
			Priority:    domain.PriorityCritical,
			Title:       "Invalid input",
			Description: "The input was empty or not an HTML document; nothing could be analyzed.",
			Impact:      "No quality assessment is possible",
		}},
		Summary:      domain.ReportSummary{CriticalFindings: 1},
		TestMetadata: meta(),
		ContentHash:  contentHash(input),
	}
}

// failureReport covers an analyzer failing to return at all
func (s *QualityServiceImpl) failureReport(input string, cause error, meta func() domain.TestMetadata) *domain.QualityReport {
	return &domain.QualityReport{
		OverallScore:  0,
		OverallGrade:  domain.GradeF,
		HTML:          zeroComplianceResult(),
		Accessibility: zeroAccessibilityResult(),
		Performance:   zeroPerformanceResult(),
		Recommendations: []domain.Recommendation{{
			Category:    "engine",
			Priority:    domain.PriorityCritical,
			Title:       "Analysis failed",
			Description: fmt.Sprintf("An analyzer failed to complete: %v", cause),
			Impact:      "The report carries no scores; rerun after addressing the failure",
		}},
		Summary:      domain.ReportSummary{CriticalFindings: 1},
		TestMetadata: meta(),
		ContentHash:  contentHash(input),
	}
}

func zeroComplianceResult() *domain.ComplianceResult {
	return &domain.ComplianceResult{Doctype: "none", Encoding: "unknown"}
}

func zeroAccessibilityResult() *domain.AccessibilityResult {
	return &domain.AccessibilityResult{WCAGLevel: domain.WCAGLevelFail}
}

func zeroPerformanceResult() *domain.PerformanceResult {
	return &domain.PerformanceResult{Grade: domain.GradeF}
}

// perfectAccessibilityResult substitutes for a disabled accessibility
// analyzer so the report shape stays complete and the overall weights still
// sum as defined
func perfectAccessibilityResult() *domain.AccessibilityResult {
	return &domain.AccessibilityResult{
		Score:                  1.0,
		WCAGLevel:              domain.WCAGLevelAAA,
		AltTextCoverage:        1.0,
		SemanticStructure:      true,
		KeyboardAccessible:     true,
		ScreenReaderCompatible: true,
		Focus: domain.FocusManagement{
			HasFocusableElements: true,
			LogicalTabOrder:      true,
			VisibleFocusStyle:    true,
			SkipLinkSatisfied:    true,
			Score:                1.0,
		},
	}
}

func perfectPerformanceResult() *domain.PerformanceResult {
	return &domain.PerformanceResult{
		Score: 1.0,
		Grade: domain.GradeA,
		Size:  domain.SizeAnalysis{WithinDeliveryLimits: true, Score: 1.0},
		Images: domain.ImageOptimization{
			Score: 1.0,
		},
		Mobile: domain.MobileOptimization{
			HasViewportMeta:  true,
			ResponsiveImages: true,
			HasMediaQueries:  true,
			TouchFriendly:    true,
			ReadableFontSize: true,
			Score:            1.0,
		},
		Cacheability: domain.Cacheability{StableImageURLs: true, NoExpiryHints: true, Score: 1.0},
	}
}

// mergeRecommendations maps every finding, failed check, and optimization
// suggestion onto the common recommendation record and sorts descending by
// priority. Ties preserve analyzer emission order: compliance, then
// accessibility, then performance.
func mergeRecommendations(c *domain.ComplianceResult, a *domain.AccessibilityResult, p *domain.PerformanceResult) []domain.Recommendation {
	var recs []domain.Recommendation

	for _, f := range c.Findings {
		recs = append(recs, findingRecommendation("compliance", f))
	}
	for _, d := range c.Details {
		if d.Passed {
			continue
		}
		recs = append(recs, domain.Recommendation{
			Category:    "compliance",
			Priority:    priorityForImportance(d.Importance),
			Title:       fmt.Sprintf("Fix %s", d.CheckName),
			Description: d.Message,
			Effort:      effortForImportance(d.Importance),
		})
	}
	for _, s := range c.Suggestions {
		recs = append(recs, domain.Recommendation{
			Category:       "compliance",
			Priority:       priorityForImportance(s.Importance),
			Title:          fmt.Sprintf("Optimize %s", s.CheckName),
			Description:    s.Suggestion,
			ExpectedImpact: s.EstimatedImpact,
			Effort:         effortForImportance(s.Importance),
		})
	}

	for _, f := range a.Findings {
		recs = append(recs, findingRecommendation("accessibility", f))
	}

	for _, f := range p.Findings {
		recs = append(recs, findingRecommendation("performance", f))
	}
	for _, s := range p.Images.Suggestions {
		recs = append(recs, domain.Recommendation{
			Category:       "performance",
			Priority:       domain.PriorityLow,
			Title:          fmt.Sprintf("Image %s: %s", s.Source, s.Issue),
			Description:    s.Suggestion,
			ExpectedImpact: "Smaller or more stable image rendering",
			Effort:         "low",
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() > recs[j].Priority.Rank()
	})
	return recs
}

func findingRecommendation(category string, f domain.Finding) domain.Recommendation {
	return domain.Recommendation{
		Category:       category,
		Priority:       domain.PriorityForSeverity(f.Severity),
		Title:          f.RuleID,
		Description:    f.Description,
		Impact:         string(f.Severity),
		Implementation: f.Remediation,
		Effort:         effortForSeverity(f.Severity),
	}
}

func priorityForImportance(i domain.Importance) domain.Priority {
	switch i {
	case domain.ImportanceHigh:
		return domain.PriorityHigh
	case domain.ImportanceMedium:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

func effortForImportance(i domain.Importance) string {
	if i == domain.ImportanceHigh {
		return "medium"
	}
	return "low"
}

func effortForSeverity(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical, domain.SeveritySerious:
		return "medium"
	default:
		return "low"
	}
}

func buildSummary(c *domain.ComplianceResult, a *domain.AccessibilityResult, p *domain.PerformanceResult) domain.ReportSummary {
	summary := domain.ReportSummary{
		ChecksPassed:      c.PassedChecks(),
		ChecksTotal:       len(c.Details),
		CompliancePercent: c.Score * 100,
	}
	for _, group := range [][]domain.Finding{c.Findings, a.Findings, p.Findings} {
		for _, f := range group {
			switch f.Severity {
			case domain.SeverityCritical:
				summary.CriticalFindings++
			case domain.SeveritySerious:
				summary.SeriousFindings++
			case domain.SeverityModerate:
				summary.ModerateFindings++
			case domain.SeverityMinor:
				summary.MinorFindings++
			}
		}
	}
	return summary
}
