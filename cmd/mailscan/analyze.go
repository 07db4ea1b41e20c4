package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/mailscan/app"
	"github.com/ludo-technologies/mailscan/domain"
	"github.com/ludo-technologies/mailscan/service"
)

var (
	outputFormat  string
	jsonOutput    bool
	yamlOutput    bool
	configPath    string
	showDetails   bool
	targetClients []string
	skipA11y      bool
	skipPerf      bool
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [path...]",
		Short: "Analyze rendered HTML email templates",
		Long: `Analyze HTML email files for markup compliance, accessibility, and
performance. Directories are walked recursively, honoring .mailscanignore.

Examples:
  mailscan analyze newsletter.html
  mailscan analyze templates/
  mailscan analyze --json templates/
  mailscan analyze --clients outlook,gmail newsletter.html
  mailscan analyze --skip-accessibility --skip-performance newsletter.html`,
		RunE: runAnalyze,
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text",
		"Output format: text, json, yaml")
	cmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON (shorthand for --format json)")
	cmd.Flags().BoolVar(&yamlOutput, "yaml", false,
		"Output results as YAML (shorthand for --format yaml)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to config file")
	cmd.Flags().BoolVar(&showDetails, "details", false,
		"Show per-check details in text output")
	cmd.Flags().StringSliceVar(&targetClients, "clients", nil,
		"Target clients for compatibility notes (comma-separated): outlook,gmail,apple-mail,yahoo")
	cmd.Flags().BoolVar(&skipA11y, "skip-accessibility", false,
		"Skip the accessibility analyzer")
	cmd.Flags().BoolVar(&skipPerf, "skip-performance", false,
		"Skip the performance analyzer")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no paths specified")
	}

	format := domain.OutputFormatText
	switch {
	case jsonOutput || outputFormat == "json":
		format = domain.OutputFormatJSON
	case yamlOutput || outputFormat == "yaml":
		format = domain.OutputFormatYAML
	}

	loader := service.NewConfigurationLoader()
	cfg, err := loader.LoadConfig(configPath)
	if err != nil {
		return err
	}

	useCaseCfg := app.QualityConfig{
		IncludeAccessibility: cfg.Analysis.IncludeAccessibility && !skipA11y,
		IncludePerformance:   cfg.Analysis.IncludePerformance && !skipPerf,
		TargetClients:        cfg.Analysis.TargetClients,
		OutputFormat:         format,
		OutputWriter:         os.Stdout,
		ShowDetails:          showDetails || cfg.Output.ShowDetails,
	}
	if len(targetClients) > 0 {
		useCaseCfg.TargetClients = targetClients
	}

	// Progress is auto-disabled for machine-readable output and non-TTY
	pm := service.NewProgressManager(format == domain.OutputFormatText)
	defer pm.Close()

	formatter := service.NewOutputFormatter()
	formatter.ShowDetails = useCaseCfg.ShowDetails
	useCase := app.NewQualityUseCase(service.NewQualityService(cfg), formatter, pm)

	result, err := useCase.AnalyzePaths(context.Background(), args, useCaseCfg)
	if err != nil {
		return err
	}
	return useCase.WriteReports(result, useCaseCfg)
}
