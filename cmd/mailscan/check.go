package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/mailscan/app"
	"github.com/ludo-technologies/mailscan/domain"
	"github.com/ludo-technologies/mailscan/service"
)

// CheckExitError is a custom error type for check command exit codes
type CheckExitError struct {
	Code    int
	Message string
}

func (e *CheckExitError) Error() string {
	return e.Message
}

// CheckViolation represents a single threshold violation
type CheckViolation struct {
	File      string `json:"file"`
	Rule      string `json:"rule"`
	Message   string `json:"message"`
	Actual    string `json:"actual"`
	Threshold string `json:"threshold"`
}

// checkOutput is the machine-readable result of a check run
type checkOutput struct {
	Passed     bool             `json:"passed"`
	Files      int              `json:"files"`
	Violations []CheckViolation `json:"violations"`
}

var (
	checkMinScore    float64
	checkMinGrade    string
	checkMaxCritical int
	checkMaxSerious  int
	checkJSON        bool
	checkConfigPath  string
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Fast quality gate for CI/CD pipelines",
		Long: `Run quality analysis against configurable thresholds for CI/CD integration.

Exit codes:
  0 - All checks pass
  1 - Quality threshold(s) violated
  2 - Analysis error (file not found, parse error, etc.)

Examples:
  # Gate on the configured defaults
  mailscan check templates/

  # Require at least a B overall
  mailscan check --min-grade B templates/

  # Forbid critical and serious findings
  mailscan check --max-critical 0 --max-serious 0 templates/

  # JSON output for machine parsing
  mailscan check --json templates/`,
		RunE:          runCheck,
		SilenceUsage:  true, // Don't print usage on errors (we handle our own output)
		SilenceErrors: true, // Don't print error messages (we handle our own output)
	}

	cmd.Flags().Float64Var(&checkMinScore, "min-score", -1,
		"Minimum acceptable overall score in [0,1] (-1 = use config)")
	cmd.Flags().StringVar(&checkMinGrade, "min-grade", "",
		"Minimum acceptable overall grade: A, B, C, D")
	cmd.Flags().IntVar(&checkMaxCritical, "max-critical", -1,
		"Maximum allowed critical findings (-1 = use config)")
	cmd.Flags().IntVar(&checkMaxSerious, "max-serious", -1,
		"Maximum allowed serious findings (-1 = unlimited)")
	cmd.Flags().BoolVar(&checkJSON, "json", false,
		"Output results as JSON")
	cmd.Flags().StringVarP(&checkConfigPath, "config", "c", "",
		"Path to config file")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return &CheckExitError{Code: 2, Message: "no paths specified"}
	}

	loader := service.NewConfigurationLoader()
	cfg, err := loader.LoadConfig(checkConfigPath)
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	minScore := cfg.Check.MinScore
	if checkMinScore >= 0 {
		minScore = checkMinScore
	}
	minGrade := domain.Grade(strings.ToUpper(cfg.Check.MinGrade))
	if checkMinGrade != "" {
		minGrade = domain.Grade(strings.ToUpper(checkMinGrade))
	}
	maxCritical := cfg.Check.MaxCritical
	if checkMaxCritical >= 0 {
		maxCritical = checkMaxCritical
	}
	maxSerious := cfg.Check.MaxSerious
	if checkMaxSerious >= 0 {
		maxSerious = checkMaxSerious
	}

	useCase := app.NewQualityUseCase(
		service.NewQualityService(cfg),
		service.NewOutputFormatter(),
		service.NewProgressManager(!checkJSON),
	)
	result, err := useCase.AnalyzePaths(context.Background(), args, app.QualityConfig{
		IncludeAccessibility: true,
		IncludePerformance:   true,
		TargetClients:        cfg.Analysis.TargetClients,
	})
	if err != nil {
		return &CheckExitError{Code: 2, Message: err.Error()}
	}

	var violations []CheckViolation
	for _, fr := range result.Files {
		r := fr.Report
		if r.OverallScore < minScore {
			violations = append(violations, CheckViolation{
				File:      fr.Path,
				Rule:      "min-score",
				Message:   "overall score below threshold",
				Actual:    fmt.Sprintf("%.2f", r.OverallScore),
				Threshold: fmt.Sprintf("%.2f", minScore),
			})
		}
		if minGrade != "" && r.OverallGrade.Rank() < minGrade.Rank() {
			violations = append(violations, CheckViolation{
				File:      fr.Path,
				Rule:      "min-grade",
				Message:   "overall grade below threshold",
				Actual:    string(r.OverallGrade),
				Threshold: string(minGrade),
			})
		}
		if r.Summary.CriticalFindings > maxCritical {
			violations = append(violations, CheckViolation{
				File:      fr.Path,
				Rule:      "max-critical",
				Message:   "too many critical findings",
				Actual:    fmt.Sprintf("%d", r.Summary.CriticalFindings),
				Threshold: fmt.Sprintf("%d", maxCritical),
			})
		}
		if maxSerious >= 0 && r.Summary.SeriousFindings > maxSerious {
			violations = append(violations, CheckViolation{
				File:      fr.Path,
				Rule:      "max-serious",
				Message:   "too many serious findings",
				Actual:    fmt.Sprintf("%d", r.Summary.SeriousFindings),
				Threshold: fmt.Sprintf("%d", maxSerious),
			})
		}
	}

	out := checkOutput{
		Passed:     len(violations) == 0,
		Files:      result.Summary.FilesAnalyzed,
		Violations: violations,
	}
	if checkJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			return &CheckExitError{Code: 2, Message: err.Error()}
		}
	} else {
		printCheckResult(out)
	}

	if !out.Passed {
		return &CheckExitError{Code: 1}
	}
	return nil
}

func printCheckResult(out checkOutput) {
	if out.Passed {
		fmt.Printf("OK: %d file(s) pass all quality thresholds\n", out.Files)
		return
	}
	fmt.Printf("FAIL: %d violation(s) across %d file(s)\n", len(out.Violations), out.Files)
	for _, v := range out.Violations {
		fmt.Printf("  %s: %s (%s, got %s, threshold %s)\n", v.File, v.Message, v.Rule, v.Actual, v.Threshold)
	}
}
