package domain

// SizeAnalysis breaks the estimated delivery weight of the document down into
// markup, CSS, and image contributions. Image bytes are estimated from
// declared dimensions, never fetched.
type SizeAnalysis struct {
	TotalBytes           int     `json:"totalBytes" yaml:"total_bytes"`
	CSSBytes             int     `json:"cssBytes" yaml:"css_bytes"`
	EstimatedImageBytes  int     `json:"estimatedImageBytes" yaml:"estimated_image_bytes"`
	WithinDeliveryLimits bool    `json:"withinDeliveryLimits" yaml:"within_delivery_limits"`
	Score                float64 `json:"score" yaml:"score"`
}

// DOMComplexity reports structural complexity of the document tree.
// Score accumulates penalties, so higher means worse; it is inverted before
// blending into the overall performance score.
type DOMComplexity struct {
	ElementCount int     `json:"elementCount" yaml:"element_count"`
	MaxDepth     int     `json:"maxDepth" yaml:"max_depth"`
	TableRatio   float64 `json:"tableRatio" yaml:"table_ratio"`
	Score        float64 `json:"score" yaml:"score"`
}

// CSSComplexity classifies every declared property against the email-safe
// allow-list and the known-unsupported deny-list; unknown properties are
// neutral. Score is penalty-accumulating (higher is worse).
type CSSComplexity struct {
	InlineDeclarations    int      `json:"inlineDeclarations" yaml:"inline_declarations"`
	EmbeddedBlocks        int      `json:"embeddedBlocks" yaml:"embedded_blocks"`
	PropertyCount         int      `json:"propertyCount" yaml:"property_count"`
	UnsupportedCount      int      `json:"unsupportedCount" yaml:"unsupported_count"`
	UnsupportedRatio      float64  `json:"unsupportedRatio" yaml:"unsupported_ratio"`
	UnsupportedProperties []string `json:"unsupportedProperties,omitempty" yaml:"unsupported_properties,omitempty"`
	Score                 float64  `json:"score" yaml:"score"`
}

// ImageSuggestion flags one image with an optimization opportunity
type ImageSuggestion struct {
	Source     string `json:"source" yaml:"source"`
	Issue      string `json:"issue" yaml:"issue"`
	Suggestion string `json:"suggestion" yaml:"suggestion"`
	Location   string `json:"location,omitempty" yaml:"location,omitempty"`
}

// ImageOptimization aggregates per-image findings
type ImageOptimization struct {
	ImageCount        int               `json:"imageCount" yaml:"image_count"`
	MissingDimensions int               `json:"missingDimensions" yaml:"missing_dimensions"`
	MissingAlt        int               `json:"missingAlt" yaml:"missing_alt"`
	Suggestions       []ImageSuggestion `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	Score             float64           `json:"score" yaml:"score"`
}

// MobileOptimization holds five independent boolean mobile-readiness checks;
// the score is the fraction passing
type MobileOptimization struct {
	HasViewportMeta  bool    `json:"hasViewportMeta" yaml:"has_viewport_meta"`
	ResponsiveImages bool    `json:"responsiveImages" yaml:"responsive_images"`
	HasMediaQueries  bool    `json:"hasMediaQueries" yaml:"has_media_queries"`
	TouchFriendly    bool    `json:"touchFriendly" yaml:"touch_friendly"`
	ReadableFontSize bool    `json:"readableFontSize" yaml:"readable_font_size"`
	Score            float64 `json:"score" yaml:"score"`
}

// LoadingEstimate is a closed-form illustrative load time, never measured
type LoadingEstimate struct {
	EstimatedMs  float64 `json:"estimatedMs" yaml:"estimated_ms"`
	ElementCount int     `json:"elementCount" yaml:"element_count"`
	CSSKiB       float64 `json:"cssKiB" yaml:"css_kib"`
	ImageCount   int     `json:"imageCount" yaml:"image_count"`
}

// Cacheability checks that resource references are stable enough for client
// caches (no cache-busting query strings, no expiry-defeating meta tags)
type Cacheability struct {
	StableImageURLs bool    `json:"stableImageUrls" yaml:"stable_image_urls"`
	NoExpiryHints   bool    `json:"noExpiryHints" yaml:"no_expiry_hints"`
	Score           float64 `json:"score" yaml:"score"`
}

// ClientNote is an advisory compatibility note for one requested target client
type ClientNote struct {
	Client     string   `json:"client" yaml:"client"`
	Properties []string `json:"properties,omitempty" yaml:"properties,omitempty"`
	Note       string   `json:"note" yaml:"note"`
}

// PerformanceResult is the immutable output of the performance analyzer
type PerformanceResult struct {
	Score float64 `json:"score" yaml:"score"`
	Grade Grade   `json:"grade" yaml:"grade"`

	Findings []Finding `json:"findings,omitempty" yaml:"findings,omitempty"`

	Size         SizeAnalysis       `json:"size" yaml:"size"`
	DOM          DOMComplexity      `json:"dom" yaml:"dom"`
	CSS          CSSComplexity      `json:"css" yaml:"css"`
	Images       ImageOptimization  `json:"images" yaml:"images"`
	Mobile       MobileOptimization `json:"mobile" yaml:"mobile"`
	Loading      LoadingEstimate    `json:"loading" yaml:"loading"`
	Cacheability Cacheability       `json:"cacheability" yaml:"cacheability"`

	ClientNotes []ClientNote `json:"clientNotes,omitempty" yaml:"client_notes,omitempty"`
}
