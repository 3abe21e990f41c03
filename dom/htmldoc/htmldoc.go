// CLAUDE:SUMMARY In-memory dom.Document over a golang.org/x/net/html tree, used by replay mode and tests.
// Package htmldoc implements dom.Document over a parsed HTML tree. It is
// used for offline replay and tests. A Document is not safe for concurrent
// use.
package htmldoc

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/fedimark/dom"
)

// Document is a parsed HTML document.
type Document struct {
	root *html.Node
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: parse: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString is Parse for an in-memory string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Render writes the current tree as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning "" on error.
func (d *Document) String() string {
	var b strings.Builder
	if err := d.Render(&b); err != nil {
		return ""
	}
	return b.String()
}

// Candidates returns spans whose text content starts with "@".
func (d *Document) Candidates(ctx context.Context) ([]dom.Element, error) {
	var out []dom.Element
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Span && strings.HasPrefix(textContent(n), "@") {
			out = append(out, &element{n: n})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out, ctx.Err()
}

// WaitIdle returns immediately: an in-memory tree is always idle.
func (d *Document) WaitIdle(ctx context.Context) error {
	return ctx.Err()
}

// Find returns the elements for which pred is true, in document order.
// It is a test and replay convenience, not part of dom.Document.
func (d *Document) Find(pred func(tag string, attrs map[string]string) bool) []dom.Element {
	var out []dom.Element
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			attrs := make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				attrs[a.Key] = a.Val
			}
			if pred(n.Data, attrs) {
				out = append(out, &element{n: n})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

type element struct {
	n *html.Node
}

func (e *element) Tag() (string, error) { return e.n.Data, nil }

func (e *element) Text() (string, error) { return textContent(e.n), nil }

func (e *element) Attr(name string) (string, bool, error) {
	for _, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true, nil
		}
	}
	return "", false, nil
}

func (e *element) Parent() (dom.Element, error) {
	p := e.n.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil, nil
	}
	return &element{n: p}, nil
}

func (e *element) Contains(tag string) (bool, error) {
	var found bool
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil && !found; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				found = true
				return
			}
			walk(c)
		}
	}
	walk(e.n)
	return found, nil
}

func (e *element) SetAttr(name, value string) error {
	for i, a := range e.n.Attr {
		if a.Namespace == "" && a.Key == name {
			e.n.Attr[i].Val = value
			return nil
		}
	}
	e.n.Attr = append(e.n.Attr, html.Attribute{Key: name, Val: value})
	return nil
}

func (e *element) AppendHTML(fragment string) error {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), e.n)
	if err != nil {
		return fmt.Errorf("htmldoc: parse fragment: %w", err)
	}
	for _, n := range nodes {
		e.n.AppendChild(n)
	}
	return nil
}

func (e *element) SetText(text string) error {
	for c := e.n.FirstChild; c != nil; {
		next := c.NextSibling
		e.n.RemoveChild(c)
		c = next
	}
	e.n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
