package config

import "github.com/ludo-technologies/mailscan/internal/constants"

// defaultAllowedProperties is the email-safe CSS property allow-list: the
// subset of CSS that renders consistently across the major email clients.
// Shorthand names cover their longhand variants (margin covers margin-top).
var defaultAllowedProperties = []string{
	"background",
	"background-color",
	"border",
	"border-collapse",
	"border-color",
	"border-radius",
	"border-spacing",
	"border-style",
	"border-width",
	"color",
	"direction",
	"display",
	"font",
	"font-family",
	"font-size",
	"font-style",
	"font-weight",
	"height",
	"letter-spacing",
	"line-height",
	"list-style",
	"list-style-type",
	"margin",
	"max-width",
	"min-width",
	"mso-table-lspace",
	"mso-table-rspace",
	"outline",
	"padding",
	"table-layout",
	"text-align",
	"text-decoration",
	"text-indent",
	"text-transform",
	"vertical-align",
	"white-space",
	"width",
}

// defaultUnsupportedProperties is the known-broken deny-list. Outlook's Word
// rendering engine drops most of these; Gmail strips several more.
var defaultUnsupportedProperties = []string{
	"animation",
	"backdrop-filter",
	"box-shadow",
	"clear",
	"clip-path",
	"filter",
	"flex",
	"flex-direction",
	"flex-wrap",
	"float",
	"gap",
	"grid",
	"grid-template-columns",
	"grid-template-rows",
	"justify-content",
	"align-items",
	"opacity",
	"position",
	"text-shadow",
	"transform",
	"transition",
	"z-index",
}

// defaultDecorativeKeywords mark an image as decorative when its file name
// contains one of these and its alt attribute is explicitly empty. Filename
// matching is an acknowledged heuristic, not a classifier.
var defaultDecorativeKeywords = []string{
	"spacer",
	"divider",
	"separator",
	"border",
	"corner",
	"shadow",
	"pixel",
	"blank",
}

// defaultPhotoKeywords mark an image file name as a photograph for the
// format suggestion heuristic
var defaultPhotoKeywords = []string{
	"photo",
	"img_",
	"dsc",
	"hero",
	"banner",
}

// defaultClientQuirks maps target client keys to the properties that client
// is known to mishandle, drawn from the deny-list
var defaultClientQuirks = map[string][]string{
	"outlook": {
		"position", "float", "flex", "grid", "max-width", "opacity",
		"box-shadow", "border-radius", "transform",
	},
	"gmail": {
		"position", "opacity", "transition", "animation", "filter",
	},
	"apple-mail": {
		// WebKit-based; handles most modern CSS
	},
	"yahoo": {
		"position", "flex", "grid", "transform",
	},
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			IncludeAccessibility: true,
			IncludePerformance:   true,
		},
		Compliance: ComplianceRules{
			SizeLimitBytes:          constants.ClippingLimitBytes,
			InlineCoverageThreshold: 0.30,
			AllowedProperties:       defaultAllowedProperties,
			UnsupportedProperties:   defaultUnsupportedProperties,
		},
		Accessibility: AccessibilityRules{
			DecorativeKeywords: defaultDecorativeKeywords,
			MinDataTableCells:  3,
		},
		Performance: PerformanceRules{
			PhotoKeywords:   defaultPhotoKeywords,
			SmallImageBytes: 10 * 1024,
			ClientQuirks:    defaultClientQuirks,
		},
		Check: CheckConfig{
			MinScore:    0.7,
			MinGrade:    "C",
			MaxCritical: 0,
			MaxSerious:  -1,
		},
		Output: OutputConfig{
			Format:      "text",
			ShowDetails: false,
		},
	}
}
