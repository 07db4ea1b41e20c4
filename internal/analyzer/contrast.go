package analyzer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// WCAG contrast thresholds. Large text is >= 24px, or >= 18px when bold.
const (
	contrastRequiredNormal = 4.5
	contrastRequiredLarge  = 3.0
	contrastAAANormal      = 7.0
	contrastAAALarge       = 4.5

	largeTextMinPx     = 24.0
	largeTextBoldMinPx = 18.0
	boldWeightMin      = 700

	defaultFontSizePx = 16.0
	defaultFontWeight = 400
)

var rgbFuncRe = regexp.MustCompile(`(?i)^rgba?\(([^)]+)\)$`)

// namedColors covers the CSS color keywords that show up in email templates.
// Unrecognized keywords make the element unmeasurable rather than guessed.
var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"pink":    "#ffc0cb",
	"brown":   "#a52a2a",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#c0c0c0",
	"maroon":  "#800000",
	"olive":   "#808000",
	"lime":    "#00ff00",
	"aqua":    "#00ffff",
	"cyan":    "#00ffff",
	"teal":    "#008080",
	"navy":    "#000080",
	"fuchsia": "#ff00ff",
	"magenta": "#ff00ff",
	"gold":    "#ffd700",
	"beige":   "#f5f5dc",
	"ivory":   "#fffff0",
}

// ParseColor resolves a CSS color value (hex, rgb()/rgba(), or keyword) into
// a color. Returns false for values it cannot resolve, including
// "transparent" and "inherit".
func ParseColor(value string) (colorful.Color, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || v == "transparent" || v == "inherit" || v == "initial" || v == "currentcolor" {
		return colorful.Color{}, false
	}
	if hex, ok := namedColors[v]; ok {
		v = hex
	}
	if strings.HasPrefix(v, "#") {
		c, err := colorful.Hex(v)
		if err != nil {
			return colorful.Color{}, false
		}
		return c, true
	}
	if m := rgbFuncRe.FindStringSubmatch(v); m != nil {
		return parseRGBComponents(m[1])
	}
	return colorful.Color{}, false
}

func parseRGBComponents(inner string) (colorful.Color, bool) {
	parts := strings.Split(inner, ",")
	if len(parts) < 3 {
		return colorful.Color{}, false
	}
	var ch [3]float64
	for i := 0; i < 3; i++ {
		p := strings.TrimSpace(parts[i])
		if strings.HasSuffix(p, "%") {
			pct, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
			if err != nil {
				return colorful.Color{}, false
			}
			ch[i] = clamp01(pct / 100)
			continue
		}
		n, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return colorful.Color{}, false
		}
		ch[i] = clamp01(n / 255)
	}
	return colorful.Color{R: ch[0], G: ch[1], B: ch[2]}, true
}

// relativeLuminance implements the WCAG sRGB-to-linear transform exactly:
// c/12.92 below the 0.03928 knee, ((c+0.055)/1.055)^2.4 above it, then
// L = 0.2126 R + 0.7152 G + 0.0722 B.
func relativeLuminance(c colorful.Color) float64 {
	lin := func(ch float64) float64 {
		if ch <= 0.03928 {
			return ch / 12.92
		}
		return math.Pow((ch+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(c.R) + 0.7152*lin(c.G) + 0.0722*lin(c.B)
}

// ContrastRatio computes the WCAG contrast ratio between two colors.
// The result is symmetric and always in [1, 21].
func ContrastRatio(a, b colorful.Color) float64 {
	la := relativeLuminance(a)
	lb := relativeLuminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// requiredRatio returns the AA threshold for the given text metrics
func requiredRatio(fontSizePx float64, fontWeight int) float64 {
	if isLargeText(fontSizePx, fontWeight) {
		return contrastRequiredLarge
	}
	return contrastRequiredNormal
}

// aaaRatio returns the AAA threshold for the given text metrics
func aaaRatio(fontSizePx float64, fontWeight int) float64 {
	if isLargeText(fontSizePx, fontWeight) {
		return contrastAAALarge
	}
	return contrastAAANormal
}

func isLargeText(fontSizePx float64, fontWeight int) bool {
	if fontSizePx >= largeTextMinPx {
		return true
	}
	return fontSizePx >= largeTextBoldMinPx && fontWeight >= boldWeightMin
}

// parseFontSize resolves a CSS font-size value to pixels. Supports px, pt,
// em, and rem; anything else falls back to the browser default.
func parseFontSize(value string) float64 {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return defaultFontSizePx
	}
	switch {
	case strings.HasSuffix(v, "px"):
		if n, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64); err == nil && n > 0 {
			return n
		}
	case strings.HasSuffix(v, "pt"):
		if n, err := strconv.ParseFloat(strings.TrimSuffix(v, "pt"), 64); err == nil && n > 0 {
			return n * 4.0 / 3.0
		}
	case strings.HasSuffix(v, "rem"):
		if n, err := strconv.ParseFloat(strings.TrimSuffix(v, "rem"), 64); err == nil && n > 0 {
			return n * defaultFontSizePx
		}
	case strings.HasSuffix(v, "em"):
		if n, err := strconv.ParseFloat(strings.TrimSuffix(v, "em"), 64); err == nil && n > 0 {
			return n * defaultFontSizePx
		}
	}
	return defaultFontSizePx
}

// parseFontWeight resolves a CSS font-weight value; keywords map onto the
// numeric scale
func parseFontWeight(value string) int {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "":
		return defaultFontWeight
	case "bold", "bolder":
		return 700
	case "normal", "lighter":
		return 400
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 100 && n <= 900 {
		return n
	}
	return defaultFontWeight
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
