package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/mailscan/domain"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct {
	// ShowDetails includes per-check detail lines in text output
	ShowDetails bool
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// Write writes the quality report in the specified format
func (f *OutputFormatterImpl) Write(report *domain.QualityReport, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return f.writeJSON(report, writer)
	case domain.OutputFormatYAML:
		return f.writeYAML(report, writer)
	case domain.OutputFormatText:
		return f.writeText(report, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

func (f *OutputFormatterImpl) writeJSON(report *domain.QualityReport, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return domain.NewOutputError("failed to encode JSON report", err)
	}
	return nil
}

func (f *OutputFormatterImpl) writeYAML(report *domain.QualityReport, writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	defer encoder.Close()
	if err := encoder.Encode(report); err != nil {
		return domain.NewOutputError("failed to encode YAML report", err)
	}
	return nil
}

func (f *OutputFormatterImpl) writeText(report *domain.QualityReport, writer io.Writer) error {
	var sb strings.Builder

	sb.WriteString("Email Template Quality Report\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	sb.WriteString(fmt.Sprintf("Overall Score: %.2f (Grade %s)\n\n", report.OverallScore, report.OverallGrade))

	sb.WriteString(fmt.Sprintf("Markup Compliance:  %.2f  (%d/%d checks passed)\n",
		report.HTML.Score, report.Summary.ChecksPassed, report.Summary.ChecksTotal))
	sb.WriteString(fmt.Sprintf("Accessibility:      %.2f  (WCAG %s)\n",
		report.Accessibility.Score, report.Accessibility.WCAGLevel))
	sb.WriteString(fmt.Sprintf("Performance:        %.2f  (Grade %s)\n\n",
		report.Performance.Score, report.Performance.Grade))

	sb.WriteString(fmt.Sprintf("Size: %d bytes total, %d CSS, ~%d image (within limits: %t)\n",
		report.Performance.Size.TotalBytes,
		report.Performance.Size.CSSBytes,
		report.Performance.Size.EstimatedImageBytes,
		report.Performance.Size.WithinDeliveryLimits))
	sb.WriteString(fmt.Sprintf("Findings: %d critical, %d serious, %d moderate, %d minor\n",
		report.Summary.CriticalFindings,
		report.Summary.SeriousFindings,
		report.Summary.ModerateFindings,
		report.Summary.MinorFindings))

	if f.ShowDetails && len(report.HTML.Details) > 0 {
		sb.WriteString("\nCompliance Checks\n")
		sb.WriteString(strings.Repeat("-", 50) + "\n")
		for _, d := range report.HTML.Details {
			status := "PASS"
			if !d.Passed {
				status = "FAIL"
			}
			sb.WriteString(fmt.Sprintf("  [%s] %-22s %s\n", status, d.CheckName, d.Message))
		}
	}

	if len(report.Recommendations) > 0 {
		sb.WriteString("\nTop Recommendations\n")
		sb.WriteString(strings.Repeat("-", 50) + "\n")
		shown := report.Recommendations
		if len(shown) > 10 {
			shown = shown[:10]
		}
		for i, r := range shown {
			sb.WriteString(fmt.Sprintf("%2d. [%s/%s] %s\n", i+1, r.Priority, r.Category, r.Title))
			sb.WriteString(fmt.Sprintf("    %s\n", r.Description))
		}
		if remaining := len(report.Recommendations) - len(shown); remaining > 0 {
			sb.WriteString(fmt.Sprintf("    ... and %d more\n", remaining))
		}
	}

	if len(report.Performance.ClientNotes) > 0 {
		sb.WriteString("\nClient Compatibility\n")
		sb.WriteString(strings.Repeat("-", 50) + "\n")
		for _, n := range report.Performance.ClientNotes {
			sb.WriteString(fmt.Sprintf("  %-12s %s\n", n.Client+":", n.Note))
		}
	}

	sb.WriteString(fmt.Sprintf("\nAnalyzed %d bytes in %dms\n",
		report.TestMetadata.HTMLSizeBytes, report.TestMetadata.TestDurationMs))

	if _, err := io.WriteString(writer, sb.String()); err != nil {
		return domain.NewOutputError("failed to write text report", err)
	}
	return nil
}
