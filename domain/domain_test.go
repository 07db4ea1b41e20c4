package domain

import (
	"errors"
	"testing"
)

func TestGradeForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  Grade
	}{
		{1.0, GradeA},
		{0.9, GradeA},
		{0.89999, GradeB},
		{0.8, GradeB},
		{0.75, GradeC},
		{0.7, GradeC},
		{0.65, GradeD},
		{0.6, GradeD},
		{0.59999, GradeF},
		{0.0, GradeF},
	}

	for _, tt := range tests {
		if got := GradeForScore(tt.score); got != tt.want {
			t.Errorf("GradeForScore(%g) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestGradeRankOrdering(t *testing.T) {
	grades := []Grade{GradeF, GradeD, GradeC, GradeB, GradeA}
	for i := 1; i < len(grades); i++ {
		if grades[i].Rank() <= grades[i-1].Rank() {
			t.Errorf("%q should rank above %q", grades[i], grades[i-1])
		}
	}
	if Grade("X").Rank() != 0 {
		t.Error("Unknown grade should rank zero")
	}
}

func TestPriorityForSeverity(t *testing.T) {
	tests := []struct {
		severity Severity
		want     Priority
	}{
		{SeverityCritical, PriorityCritical},
		{SeveritySerious, PriorityHigh},
		{SeverityModerate, PriorityMedium},
		{SeverityMinor, PriorityLow},
	}
	for _, tt := range tests {
		if got := PriorityForSeverity(tt.severity); got != tt.want {
			t.Errorf("PriorityForSeverity(%q) = %q, want %q", tt.severity, got, tt.want)
		}
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	priorities := []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
	for i := 1; i < len(priorities); i++ {
		if priorities[i].Rank() <= priorities[i-1].Rank() {
			t.Errorf("%q should rank above %q", priorities[i], priorities[i-1])
		}
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if !opts.IncludeAccessibility || !opts.IncludePerformance {
		t.Error("All analyzers should be included by default")
	}
	if len(opts.TargetClients) != 0 {
		t.Error("No target clients by default")
	}
}

func TestComplianceResultPassedChecks(t *testing.T) {
	r := ComplianceResult{
		Details: []ComplianceDetail{
			{CheckName: "a", Passed: true},
			{CheckName: "b", Passed: false},
			{CheckName: "c", Passed: true},
		},
	}
	if got := r.PassedChecks(); got != 2 {
		t.Errorf("PassedChecks() = %d, want 2", got)
	}
}

func TestAccessibilityCountBySeverity(t *testing.T) {
	r := AccessibilityResult{
		Findings: []Finding{
			{Severity: SeveritySerious},
			{Severity: SeveritySerious},
			{Severity: SeverityModerate},
		},
	}
	if got := r.CountBySeverity(SeveritySerious); got != 2 {
		t.Errorf("CountBySeverity(serious) = %d, want 2", got)
	}
	if got := r.CountBySeverity(SeverityModerate); got != 1 {
		t.Errorf("CountBySeverity(moderate) = %d, want 1", got)
	}
	if got := r.CountBySeverity(SeverityCritical); got != 0 {
		t.Errorf("CountBySeverity(critical) = %d, want 0", got)
	}
}

func TestDomainErrorMessage(t *testing.T) {
	err := NewFileNotFoundError("/tmp/missing.html", nil)
	want := "[FILE_NOT_FOUND] file not found: /tmp/missing.html"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorWithCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := NewAnalysisError("analyzer crashed", cause)

	var de DomainError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DomainError, got %T", err)
	}
	if de.Code != ErrCodeAnalysisError {
		t.Errorf("Code = %q, want %q", de.Code, ErrCodeAnalysisError)
	}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the cause to errors.Is")
	}
}

func TestErrorConstructorsCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"invalid input", NewInvalidInputError("bad", nil), ErrCodeInvalidInput},
		{"parse", NewParseError("doc", nil), ErrCodeParseError},
		{"config", NewConfigError("bad yaml", nil), ErrCodeConfigError},
		{"output", NewOutputError("pipe closed", nil), ErrCodeOutputError},
		{"unsupported format", NewUnsupportedFormatError("xml"), ErrCodeUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var de DomainError
			if !errors.As(tt.err, &de) {
				t.Fatalf("Expected DomainError, got %T", tt.err)
			}
			if de.Code != tt.code {
				t.Errorf("Code = %q, want %q", de.Code, tt.code)
			}
		})
	}
}
