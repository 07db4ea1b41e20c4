package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "mailscan"

	// ConfigFileName is the default config file name
	ConfigFileName = ".mailscan.yaml"

	// IgnoreFileName is the per-directory ignore file honored during file collection
	IgnoreFileName = ".mailscanignore"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "MAILSCAN"
)

// Analysis type constants
const (
	AnalysisCompliance    = "compliance"
	AnalysisAccessibility = "accessibility"
	AnalysisPerformance   = "performance"
)

// Email delivery constants
const (
	// ClippingLimitBytes is the delivery-client clipping ceiling (102 KiB).
	// Documents above this size get truncated by major webmail clients.
	ClippingLimitBytes = 102 * 1024

	// DefaultImageWidth and DefaultImageHeight are assumed when an image
	// declares no dimensions
	DefaultImageWidth  = 100
	DefaultImageHeight = 100

	// MinEstimatedImageBytes floors the per-image weight estimate
	MinEstimatedImageBytes = 1024
)

// Overall score weights
const (
	ComplianceWeight    = 0.4
	AccessibilityWeight = 0.3
	PerformanceWeight   = 0.3
)
