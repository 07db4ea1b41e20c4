package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ludo-technologies/mailscan/domain"
)

// QualityConfig holds configuration for the quality use case
type QualityConfig struct {
	// Analyzer selection
	IncludeAccessibility bool
	IncludePerformance   bool
	TargetClients        []string

	// Output options
	OutputFormat domain.OutputFormat
	OutputWriter io.Writer
	ShowDetails  bool
}

// DefaultQualityConfig returns default configuration
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		IncludeAccessibility: true,
		IncludePerformance:   true,
		OutputFormat:         domain.OutputFormatText,
		OutputWriter:         os.Stdout,
	}
}

// FileReport pairs one analyzed file with its report
type FileReport struct {
	Path   string                `json:"path" yaml:"path"`
	Report *domain.QualityReport `json:"report" yaml:"report"`
}

// BatchSummary aggregates a multi-file run
type BatchSummary struct {
	FilesAnalyzed int           `json:"filesAnalyzed" yaml:"files_analyzed"`
	MeanScore     float64       `json:"meanScore" yaml:"mean_score"`
	WorstGrade    domain.Grade  `json:"worstGrade" yaml:"worst_grade"`
	FailedFiles   int           `json:"failedFiles" yaml:"failed_files"`
	Duration      time.Duration `json:"-" yaml:"-"`
}

// BatchResult holds the results of a multi-file analysis
type BatchResult struct {
	Files   []FileReport `json:"files" yaml:"files"`
	Summary BatchSummary `json:"summary" yaml:"summary"`
}

// QualityUseCase orchestrates quality analysis for the CLI
type QualityUseCase struct {
	service    domain.QualityService
	formatter  domain.OutputFormatter
	progress   domain.ProgressManager
	fileHelper *FileHelper
}

// NewQualityUseCase creates a new quality use case
func NewQualityUseCase(service domain.QualityService, formatter domain.OutputFormatter, progress domain.ProgressManager) *QualityUseCase {
	return &QualityUseCase{
		service:    service,
		formatter:  formatter,
		progress:   progress,
		fileHelper: NewFileHelper(),
	}
}

// AnalyzeString runs quality assurance on one in-memory document and writes
// the report
func (uc *QualityUseCase) AnalyzeString(ctx context.Context, html string, cfg QualityConfig) (*domain.QualityReport, error) {
	report := uc.service.RunQualityAssurance(ctx, html, domain.Options{
		IncludeAccessibility: cfg.IncludeAccessibility,
		IncludePerformance:   cfg.IncludePerformance,
		TargetClients:        cfg.TargetClients,
	})
	if cfg.OutputWriter != nil {
		if err := uc.formatter.Write(report, cfg.OutputFormat, cfg.OutputWriter); err != nil {
			return report, err
		}
	}
	return report, nil
}

// AnalyzePaths collects template files from the given paths and analyzes each
func (uc *QualityUseCase) AnalyzePaths(ctx context.Context, paths []string, cfg QualityConfig) (*BatchResult, error) {
	files, err := uc.fileHelper.CollectHTMLFiles(paths)
	if err != nil {
		return nil, domain.NewFileNotFoundError(fmt.Sprintf("%v", paths), err)
	}
	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no HTML files found to analyze", nil)
	}

	var task domain.TaskProgress = &noopTask{}
	if uc.progress != nil {
		task = uc.progress.StartTask("Analyzing templates", len(files))
	}
	defer task.Complete()

	start := time.Now()
	opts := domain.Options{
		IncludeAccessibility: cfg.IncludeAccessibility,
		IncludePerformance:   cfg.IncludePerformance,
		TargetClients:        cfg.TargetClients,
	}

	result := &BatchResult{}
	scoreSum := 0.0
	worst := domain.GradeA
	for _, file := range files {
		select {
		case <-ctx.Done():
			return nil, domain.NewAnalysisError("analysis cancelled", ctx.Err())
		default:
		}

		content, readErr := os.ReadFile(file)
		if readErr != nil {
			return nil, domain.NewFileNotFoundError(file, readErr)
		}
		task.Describe(file)

		report := uc.service.RunQualityAssurance(ctx, string(content), opts)
		result.Files = append(result.Files, FileReport{Path: file, Report: report})

		scoreSum += report.OverallScore
		if report.OverallGrade.Rank() < worst.Rank() {
			worst = report.OverallGrade
		}
		if report.OverallGrade == domain.GradeF {
			result.Summary.FailedFiles++
		}
		task.Increment(1)
	}

	result.Summary.FilesAnalyzed = len(files)
	result.Summary.MeanScore = scoreSum / float64(len(files))
	result.Summary.WorstGrade = worst
	result.Summary.Duration = time.Since(start)
	return result, nil
}

// WriteReports writes every per-file report followed by a batch footer for
// text output
func (uc *QualityUseCase) WriteReports(result *BatchResult, cfg QualityConfig) error {
	w := cfg.OutputWriter
	if w == nil {
		w = os.Stdout
	}
	for _, fr := range result.Files {
		if len(result.Files) > 1 && cfg.OutputFormat == domain.OutputFormatText {
			fmt.Fprintf(w, "\n== %s ==\n", fr.Path)
		}
		if err := uc.formatter.Write(fr.Report, cfg.OutputFormat, w); err != nil {
			return err
		}
	}
	if len(result.Files) > 1 && cfg.OutputFormat == domain.OutputFormatText {
		fmt.Fprintf(w, "\n%d files analyzed, mean score %.2f, worst grade %s, %d failing\n",
			result.Summary.FilesAnalyzed, result.Summary.MeanScore,
			result.Summary.WorstGrade, result.Summary.FailedFiles)
	}
	return nil
}

type noopTask struct{}

func (noopTask) Increment(int)   {}
func (noopTask) Describe(string) {}
func (noopTask) Complete()       {}
