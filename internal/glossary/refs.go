// Package glossary finds term references in rich text, resolves them against
// a content edition and checks that every reference resolves.
//
// A term reference is a span carrying a data-term attribute. A non-empty
// attribute value is the term key; an empty one (oldest edition) means the
// span's own text is the key. Glossary texts may reference each other,
// cycles included; references are only ever looked up, never expanded.
package glossary

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	termAttr   = "data-term"
	titleClass = "title"
)

// Ref is one term reference found in rich text.
type Ref struct {
	Key string
	// Label is the visible text of the referencing element.
	Label string
}

// ExtractTermRefs returns the term keys referenced by rich text, in document order.
func ExtractTermRefs(richText string) []string {
	refs := Refs(richText)
	keys := make([]string, 0, len(refs))
	for _, r := range refs {
		keys = append(keys, r.Key)
	}
	return keys
}

// Refs returns the term references of rich text, in document order.
func Refs(richText string) []Ref {
	var refs []Ref
	walk(parse(richText), func(n *html.Node) {
		if n.DataAtom != atom.Span {
			return
		}
		value, ok := attr(n, termAttr)
		if !ok {
			return
		}
		label := innerText(n)
		key := value
		if key == "" {
			key = label
		}
		refs = append(refs, Ref{Key: key, Label: label})
	})
	return refs
}

// CountTitleMarkers counts elements carrying the "title" class, which marks
// where the category glyph is inserted in a rule text.
func CountTitleMarkers(richText string) int {
	count := 0
	walk(parse(richText), func(n *html.Node) {
		class, ok := attr(n, "class")
		if !ok {
			return
		}
		for _, c := range strings.Fields(class) {
			if c == titleClass {
				count++
				return
			}
		}
	})
	return count
}

// PlainText strips markup, turning <br> into newlines.
func PlainText(richText string) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.DataAtom == atom.Br:
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for _, n := range parse(richText) {
		visit(n)
	}
	return strings.TrimSpace(b.String())
}

// parse reads rich text as an HTML body fragment. The tokenizer recovers
// from stray or missing end tags the way browsers do, so parse never fails
// on content; unparsable input yields no nodes.
func parse(richText string) []*html.Node {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(richText), body)
	if err != nil {
		return nil
	}
	return nodes
}

func walk(nodes []*html.Node, fn func(*html.Node)) {
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			fn(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for _, n := range nodes {
		visit(n)
	}
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func innerText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
