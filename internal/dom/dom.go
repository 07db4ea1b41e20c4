// Package dom provides a read-only capability layer over a parsed HTML
// document. Analyzers depend only on this interface, not on the underlying
// parser.
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Document wraps a parsed HTML tree together with the raw source it came
// from. A Document is never mutated after Parse; analyzers share one instance
// read-only or parse their own.
type Document struct {
	root *html.Node
	raw  string
}

// Parse parses an HTML document from a string. The underlying parser is
// error-tolerant; malformed markup produces a best-effort tree rather than an
// error. Empty (or whitespace-only) input is the one rejected case.
func Parse(input string) (*Document, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyDocument
	}
	root, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return nil, err
	}
	return &Document{root: root, raw: input}, nil
}

// ErrEmptyDocument is returned by Parse for empty input
var ErrEmptyDocument = errEmpty{}

type errEmpty struct{}

func (errEmpty) Error() string { return "empty document" }

// Raw returns the original source string
func (d *Document) Raw() string { return d.raw }

// Size returns the byte length of the original source
func (d *Document) Size() int { return len(d.raw) }

// Root returns the document root node
func (d *Document) Root() *html.Node { return d.root }

// Select returns all elements matching any of the given tag names, in
// document order. With no arguments it returns every element.
func (d *Document) Select(tags ...string) []*html.Node {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = true
	}
	var out []*html.Node
	d.Walk(func(n *html.Node) {
		if n.Type == html.ElementNode && (len(want) == 0 || want[n.Data]) {
			out = append(out, n)
		}
	})
	return out
}

// Walk visits every node in the tree in document order
func (d *Document) Walk(fn func(n *html.Node)) {
	walk(d.root, fn)
}

// Subtree visits every node under (and including) n in document order
func Subtree(n *html.Node, fn func(n *html.Node)) {
	walk(n, fn)
}

func walk(n *html.Node, fn func(n *html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// Attr returns the value of the named attribute and whether it is present
func Attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute value or a fallback when absent
func AttrOr(n *html.Node, name, fallback string) string {
	if v, ok := Attr(n, name); ok {
		return v
	}
	return fallback
}

// HasAttr reports whether the attribute is present, regardless of value
func HasAttr(n *html.Node, name string) bool {
	_, ok := Attr(n, name)
	return ok
}

// Text returns the concatenated visible text of a node's subtree, with runs
// of whitespace collapsed
func Text(n *html.Node) string {
	var sb strings.Builder
	collectText(n, &sb)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteString(" ")
		return
	}
	// Script and style contents are not visible text
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// OwnText returns only the text held directly by the node, not its descendants
func OwnText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Parents returns the ancestor chain from the node's parent up to the root
func Parents(n *html.Node) []*html.Node {
	var out []*html.Node
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// HasAncestor reports whether any ancestor is an element with the given tag
func HasAncestor(n *html.Node, tag string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return true
		}
	}
	return false
}

// Path returns a human-readable element reference like "html > body > table > img",
// used as the location field of findings
func Path(n *html.Node) string {
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode {
			parts = append([]string{cur.Data}, parts...)
		}
	}
	return strings.Join(parts, " > ")
}

// IsElement reports whether the node is an element with the given tag
func IsElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

// Doctype returns the document's doctype name ("html", "html PUBLIC ...")
// or "" when the document declares none
func (d *Document) Doctype() string {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.DoctypeNode {
			name := c.Data
			for _, a := range c.Attr {
				if a.Key == "public" {
					name = name + " PUBLIC " + a.Val
				}
			}
			return name
		}
	}
	return ""
}

// ElementCount returns the number of element nodes in the document
func (d *Document) ElementCount() int {
	n := 0
	d.Walk(func(node *html.Node) {
		if node.Type == html.ElementNode {
			n++
		}
	})
	return n
}

// MaxDepth returns the maximum element nesting depth
func (d *Document) MaxDepth() int {
	deepest := 0
	var rec func(n *html.Node, depth int)
	rec = func(n *html.Node, depth int) {
		if n.Type == html.ElementNode {
			depth++
			if depth > deepest {
				deepest = depth
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c, depth)
		}
	}
	rec(d.root, 0)
	return deepest
}

// StyleBlocks returns the raw contents of every <style> element
func (d *Document) StyleBlocks() []string {
	var blocks []string
	for _, s := range d.Select("style") {
		var sb strings.Builder
		for c := s.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		blocks = append(blocks, sb.String())
	}
	return blocks
}
