package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// fragmentContext is the parsing context for editor content: the platform
// parses contenteditable input as body content.
func fragmentContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}

// ParseFragment parses raw HTML as editor content and returns the resulting
// top-level nodes, detached and ready for insertion. Comments, doctypes,
// and parse artifacts are dropped; only elements and text survive.
func ParseFragment(raw string) ([]Node, error) {
	parsed, err := html.ParseFragment(strings.NewReader(raw), fragmentContext())
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	var out []Node
	for _, n := range parsed {
		if conv := fromHTMLNode(n); conv != nil {
			out = append(out, conv)
		}
	}
	return out, nil
}

// fromHTMLNode converts a parsed html.Node subtree into dom nodes.
// Returns nil for node types the document model does not keep.
func fromHTMLNode(n *html.Node) Node {
	switch n.Type {
	case html.TextNode:
		return NewText(n.Data)
	case html.ElementNode:
		e := NewElement(n.Data)
		for _, a := range n.Attr {
			e.setAttr(a.Key, a.Val)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if conv := fromHTMLNode(c); conv != nil {
				conv.setParent(e)
				e.children = append(e.children, conv)
			}
		}
		return e
	default:
		return nil
	}
}

// toHTMLNode converts a dom node back into an html.Node subtree for
// rendering, so escaping and void-element handling follow the platform
// serializer.
func toHTMLNode(n Node) *html.Node {
	switch n := n.(type) {
	case *Text:
		return &html.Node{Type: html.TextNode, Data: n.data}
	case *Element:
		h := &html.Node{
			Type:     html.ElementNode,
			Data:     n.tag,
			DataAtom: atom.Lookup([]byte(n.tag)),
		}
		for _, a := range n.attrs {
			h.Attr = append(h.Attr, html.Attribute{Key: a.Key, Val: a.Val})
		}
		for _, c := range n.children {
			h.AppendChild(toHTMLNode(c))
		}
		return h
	default:
		return &html.Node{Type: html.TextNode}
	}
}

// OuterHTML serializes a single node, including the node itself.
func OuterHTML(n Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	// Render only fails on unrenderable node types, which toHTMLNode
	// never produces.
	_ = html.Render(&sb, toHTMLNode(n))
	return sb.String()
}

// InnerHTML serializes an element's children in order.
func InnerHTML(e *Element) string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	for _, c := range e.children {
		_ = html.Render(&sb, toHTMLNode(c))
	}
	return sb.String()
}

// HTML returns the document content: the inner HTML of the root container.
// This is the opaque content string the history and session layers carry.
func (d *Document) HTML() string {
	return InnerHTML(d.root)
}

// SetHTML replaces the document content with the parsed form of raw.
// Observers see a single OpReplace change.
func (d *Document) SetHTML(raw string) error {
	nodes, err := ParseFragment(raw)
	if err != nil {
		return err
	}
	return d.ReplaceChildren(d.root, nodes...)
}
