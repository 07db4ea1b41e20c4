package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ludo-technologies/mailscan/internal/constants"
)

// Config represents the main configuration structure
type Config struct {
	// Analysis holds general analysis configuration
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis" yaml:"analysis"`

	// Compliance holds markup compliance rule configuration
	Compliance ComplianceRules `json:"compliance" mapstructure:"compliance" yaml:"compliance"`

	// Accessibility holds accessibility rule configuration
	Accessibility AccessibilityRules `json:"accessibility" mapstructure:"accessibility" yaml:"accessibility"`

	// Performance holds performance rule configuration
	Performance PerformanceRules `json:"performance" mapstructure:"performance" yaml:"performance"`

	// Check holds CI gate thresholds
	Check CheckConfig `json:"check" mapstructure:"check" yaml:"check"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`
}

// AnalysisConfig holds general analysis configuration
type AnalysisConfig struct {
	// IncludeAccessibility controls whether the accessibility analyzer runs
	IncludeAccessibility bool `json:"includeAccessibility" mapstructure:"include_accessibility" yaml:"include_accessibility"`

	// IncludePerformance controls whether the performance analyzer runs
	IncludePerformance bool `json:"includePerformance" mapstructure:"include_performance" yaml:"include_performance"`

	// TargetClients lists email clients to emit compatibility notes for
	TargetClients []string `json:"targetClients" mapstructure:"target_clients" yaml:"target_clients"`
}

// ComplianceRules holds thresholds and property tables for the markup
// compliance analyzer. Instances are treated as immutable once constructed.
type ComplianceRules struct {
	// SizeLimitBytes is the delivery clipping ceiling
	SizeLimitBytes int `json:"sizeLimitBytes" mapstructure:"size_limit_bytes" yaml:"size_limit_bytes"`

	// InlineCoverageThreshold is the minimum fraction of styleable elements
	// that must carry inline styles
	InlineCoverageThreshold float64 `json:"inlineCoverageThreshold" mapstructure:"inline_coverage_threshold" yaml:"inline_coverage_threshold"`

	// AllowedProperties is the email-safe CSS property allow-list
	AllowedProperties []string `json:"allowedProperties" mapstructure:"allowed_properties" yaml:"allowed_properties"`

	// UnsupportedProperties is the known-broken CSS property deny-list.
	// Properties on neither list are neutral and never penalized.
	UnsupportedProperties []string `json:"unsupportedProperties" mapstructure:"unsupported_properties" yaml:"unsupported_properties"`
}

// AccessibilityRules holds heuristic inputs for the accessibility analyzer
type AccessibilityRules struct {
	// DecorativeKeywords mark image file names as decorative when the alt
	// attribute is explicitly empty
	DecorativeKeywords []string `json:"decorativeKeywords" mapstructure:"decorative_keywords" yaml:"decorative_keywords"`

	// MinDataTableCells is the cell count above which a data table must
	// expose header cells or scope attributes
	MinDataTableCells int `json:"minDataTableCells" mapstructure:"min_data_table_cells" yaml:"min_data_table_cells"`
}

// PerformanceRules holds thresholds for the performance analyzer
type PerformanceRules struct {
	// PhotoKeywords mark image file names as photographs for the format
	// suggestion heuristic
	PhotoKeywords []string `json:"photoKeywords" mapstructure:"photo_keywords" yaml:"photo_keywords"`

	// SmallImageBytes is the estimated size under which PNG is suggested
	SmallImageBytes int `json:"smallImageBytes" mapstructure:"small_image_bytes" yaml:"small_image_bytes"`

	// ClientQuirks maps a target client key to the CSS properties known to be
	// broken in that client
	ClientQuirks map[string][]string `json:"clientQuirks" mapstructure:"client_quirks" yaml:"client_quirks"`
}

// CheckConfig holds CI gate thresholds for the check command
type CheckConfig struct {
	// MinScore is the minimum acceptable overall score
	MinScore float64 `json:"minScore" mapstructure:"min_score" yaml:"min_score"`

	// MinGrade is the minimum acceptable letter grade
	MinGrade string `json:"minGrade" mapstructure:"min_grade" yaml:"min_grade"`

	// MaxCritical is the maximum allowed critical findings
	MaxCritical int `json:"maxCritical" mapstructure:"max_critical" yaml:"max_critical"`

	// MaxSerious is the maximum allowed serious findings (-1 = unlimited)
	MaxSerious int `json:"maxSerious" mapstructure:"max_serious" yaml:"max_serious"`
}

// OutputConfig holds output formatting configuration
type OutputConfig struct {
	// Format is the default output format: text, json, yaml
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowDetails includes per-check details in text output
	ShowDetails bool `json:"showDetails" mapstructure:"show_details" yaml:"show_details"`
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Compliance.SizeLimitBytes <= 0 {
		return fmt.Errorf("compliance.size_limit_bytes must be positive, got %d", c.Compliance.SizeLimitBytes)
	}
	if c.Compliance.InlineCoverageThreshold < 0 || c.Compliance.InlineCoverageThreshold > 1 {
		return fmt.Errorf("compliance.inline_coverage_threshold must be in [0,1], got %g", c.Compliance.InlineCoverageThreshold)
	}
	if c.Check.MinScore < 0 || c.Check.MinScore > 1 {
		return fmt.Errorf("check.min_score must be in [0,1], got %g", c.Check.MinScore)
	}
	switch strings.ToUpper(c.Check.MinGrade) {
	case "", "A", "B", "C", "D", "F":
	default:
		return fmt.Errorf("check.min_grade must be one of A-F, got %q", c.Check.MinGrade)
	}
	switch c.Output.Format {
	case "", "text", "json", "yaml":
	default:
		return fmt.Errorf("output.format must be text, json, or yaml, got %q", c.Output.Format)
	}
	return nil
}

// LoadConfig loads configuration from the specified path. An empty path loads
// defaults after searching for a config file in the working directory and its
// parents.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = FindDefaultConfigFile()
	}
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// Create a new viper instance to avoid race conditions
	v := viper.New()
	v.SetEnvPrefix(constants.EnvVarPrefix)
	v.AutomaticEnv()

	cfg := DefaultConfig()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FindDefaultConfigFile searches for a default configuration file in the
// current directory and its parents
func FindDefaultConfigFile() string {
	candidates := []string{
		constants.ConfigFileName,
		"mailscan.yaml",
		"mailscan.yml",
		".mailscan.yml",
	}

	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		for _, candidate := range candidates {
			path := filepath.Join(dir, candidate)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
