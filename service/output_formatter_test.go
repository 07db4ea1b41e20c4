package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/mailscan/domain"
	"github.com/ludo-technologies/mailscan/internal/config"
)

func sampleReport(t *testing.T) *domain.QualityReport {
	t.Helper()
	return newService().RunQualityAssurance(context.Background(), cleanEmail, domain.DefaultOptions())
}

func TestWriteText(t *testing.T) {
	report := sampleReport(t)
	var buf bytes.Buffer

	if err := NewOutputFormatter().Write(report, domain.OutputFormatText, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Email Template Quality Report",
		"Overall Score:",
		"Markup Compliance:",
		"Accessibility:",
		"Performance:",
		"Findings:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Text output missing %q", want)
		}
	}
}

func TestWriteTextDetails(t *testing.T) {
	report := sampleReport(t)
	var buf bytes.Buffer

	f := NewOutputFormatter()
	f.ShowDetails = true
	if err := f.Write(report, domain.OutputFormatText, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Compliance Checks") {
		t.Error("Detailed output should list compliance checks")
	}
	if !strings.Contains(buf.String(), "[PASS]") {
		t.Error("Detailed output should show check status")
	}
}

func TestWriteJSON(t *testing.T) {
	report := sampleReport(t)
	var buf bytes.Buffer

	if err := NewOutputFormatter().Write(report, domain.OutputFormatJSON, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	for _, key := range []string{"overallScore", "overallGrade", "html", "accessibility", "performance", "summary", "contentHash"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSON output missing key %q", key)
		}
	}
	if decoded["overallGrade"] != string(report.OverallGrade) {
		t.Errorf("overallGrade = %v, want %q", decoded["overallGrade"], report.OverallGrade)
	}
}

func TestWriteYAML(t *testing.T) {
	report := sampleReport(t)
	var buf bytes.Buffer

	if err := NewOutputFormatter().Write(report, domain.OutputFormatYAML, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid YAML: %v", err)
	}
	if len(decoded) == 0 {
		t.Error("YAML output should not be empty")
	}
}

func TestWriteUnsupportedFormat(t *testing.T) {
	report := sampleReport(t)
	var buf bytes.Buffer

	err := NewOutputFormatter().Write(report, domain.OutputFormat("xml"), &buf)
	if err == nil {
		t.Fatal("Expected error for unsupported format")
	}
	domainErr, ok := err.(domain.DomainError)
	if !ok {
		t.Fatalf("Expected DomainError, got %T", err)
	}
	if domainErr.Code != domain.ErrCodeUnsupportedFormat {
		t.Errorf("Code = %q, want %q", domainErr.Code, domain.ErrCodeUnsupportedFormat)
	}
}

func TestWriteTextClientNotes(t *testing.T) {
	opts := domain.DefaultOptions()
	opts.TargetClients = []string{"gmail"}
	report := NewQualityService(config.DefaultConfig()).
		RunQualityAssurance(context.Background(), cleanEmail, opts)

	var buf bytes.Buffer
	if err := NewOutputFormatter().Write(report, domain.OutputFormatText, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Client Compatibility") {
		t.Error("Text output should include the client compatibility section")
	}
	if !strings.Contains(buf.String(), "gmail") {
		t.Error("Text output should name the target client")
	}
}
