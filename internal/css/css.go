// Package css extracts and classifies CSS declarations from inline style
// attributes and embedded style blocks.
package css

import (
	"strings"

	douceur "github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// Declaration is one property/value pair
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Classification of a property against the email-safe tables
type Classification int

const (
	// ClassNeutral marks properties on neither table; they never count
	// against a score
	ClassNeutral Classification = iota
	ClassAllowed
	ClassUnsupported
)

// Tables holds the immutable allow/deny lookup sets. Build once with
// NewTables and share read-only.
type Tables struct {
	allowed     map[string]bool
	unsupported map[string]bool
}

// NewTables builds lookup tables from property name lists
func NewTables(allowed, unsupported []string) Tables {
	t := Tables{
		allowed:     make(map[string]bool, len(allowed)),
		unsupported: make(map[string]bool, len(unsupported)),
	}
	for _, p := range allowed {
		t.allowed[strings.ToLower(p)] = true
	}
	for _, p := range unsupported {
		t.unsupported[strings.ToLower(p)] = true
	}
	return t
}

// Classify reports how a property counts against email-client compatibility.
// Shorthand prefixes are honored: "margin-top" matches a listed "margin".
func (t Tables) Classify(property string) Classification {
	p := strings.ToLower(strings.TrimSpace(property))
	if t.unsupported[p] {
		return ClassUnsupported
	}
	if t.allowed[p] {
		return ClassAllowed
	}
	if i := strings.IndexByte(p, '-'); i > 0 {
		base := p[:i]
		if t.unsupported[base] {
			return ClassUnsupported
		}
		if t.allowed[base] {
			return ClassAllowed
		}
	}
	return ClassNeutral
}

// ParseInline parses a style attribute value into declarations. Malformed
// input yields whatever parsed cleanly; it never fails.
func ParseInline(style string) []Declaration {
	if strings.TrimSpace(style) == "" {
		return nil
	}
	// douceur drops the last value when the final declaration has no
	// terminating semicolon, which is how style attributes are usually
	// written
	if !strings.HasSuffix(strings.TrimSpace(style), ";") {
		style += ";"
	}
	decls, err := parser.ParseDeclarations(style)
	if err != nil {
		return nil
	}
	return convert(decls)
}

// ParseBlock parses an embedded stylesheet into the union of its rule
// declarations, descending into at-rules such as @media. Returns the
// declarations and whether any media query was seen.
func ParseBlock(block string) (decls []Declaration, hasMediaQuery bool) {
	sheet, err := parser.Parse(block)
	if err != nil {
		// Crude fallback: a media query is still worth reporting even when
		// the sheet does not parse
		return nil, strings.Contains(block, "@media")
	}
	for _, rule := range sheet.Rules {
		d, media := flattenRule(rule)
		decls = append(decls, d...)
		hasMediaQuery = hasMediaQuery || media
	}
	return decls, hasMediaQuery
}

func flattenRule(rule *douceur.Rule) (decls []Declaration, hasMediaQuery bool) {
	if rule.Kind == douceur.AtRule && strings.EqualFold(rule.Name, "@media") {
		hasMediaQuery = true
	}
	decls = append(decls, convert(rule.Declarations)...)
	for _, nested := range rule.Rules {
		d, media := flattenRule(nested)
		decls = append(decls, d...)
		hasMediaQuery = hasMediaQuery || media
	}
	return decls, hasMediaQuery
}

func convert(in []*douceur.Declaration) []Declaration {
	out := make([]Declaration, 0, len(in))
	for _, d := range in {
		out = append(out, Declaration{
			Property:  strings.ToLower(strings.TrimSpace(d.Property)),
			Value:     strings.TrimSpace(d.Value),
			Important: d.Important,
		})
	}
	return out
}

// Lookup returns the value of the first declaration of the given property
func Lookup(decls []Declaration, property string) (string, bool) {
	for _, d := range decls {
		if d.Property == property {
			return d.Value, true
		}
	}
	return "", false
}
