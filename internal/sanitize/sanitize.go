package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// fragmentContext is the parsing context for editor content: the platform
// parses contenteditable input as body content.
func fragmentContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}

// Sanitize filters raw HTML down to the policy's allow-list and returns
// the serialized result. Disallowed elements are unwrapped so their
// children survive; elements in the discard set are removed with their
// subtree. Event-handler attributes and script-bearing URL schemes are
// stripped whatever the policy admits.
func (p *Policy) Sanitize(raw string) string {
	nodes, err := html.ParseFragment(strings.NewReader(raw), fragmentContext())
	if err != nil {
		return ""
	}
	var sb strings.Builder
	for _, n := range nodes {
		for _, kept := range p.filter(n) {
			_ = html.Render(&sb, kept)
		}
	}
	return sb.String()
}

// filter maps one parsed node to its sanitized replacements: the node
// itself with screened attributes and children, the filtered children
// alone when the element is unwrapped, or nothing at all.
func (p *Policy) filter(n *html.Node) []*html.Node {
	switch n.Type {
	case html.TextNode:
		return []*html.Node{{Type: html.TextNode, Data: n.Data}}
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if p.drop[tag] {
			return nil
		}
		allowed, ok := p.elems[tag]
		if !ok {
			return p.filterChildren(n)
		}
		out := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: n.DataAtom}
		for _, a := range n.Attr {
			if val, keep := p.filterAttr(allowed, a); keep {
				out.Attr = append(out.Attr, html.Attribute{Key: strings.ToLower(a.Key), Val: val})
			}
		}
		for _, c := range p.filterChildren(n) {
			out.AppendChild(c)
		}
		return []*html.Node{out}
	default:
		// Comments, doctypes, and other parse artifacts.
		return nil
	}
}

// filterChildren filters each child in order and concatenates the
// results, preserving document order across unwrapped elements.
func (p *Policy) filterChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, p.filter(c)...)
	}
	return out
}

// filterAttr decides one attribute's fate and returns the value to keep.
// Event handlers are rejected before the allow-list is consulted, so no
// policy can opt back into them.
func (p *Policy) filterAttr(allowed map[string]bool, a html.Attribute) (string, bool) {
	key := strings.ToLower(a.Key)
	if isEventHandler(key) {
		return "", false
	}
	if !allowed[key] && !p.global[key] {
		return "", false
	}
	if p.urls[key] && !safeURL(a.Val) {
		return "", false
	}
	if key == "style" {
		val := p.filterStyle(a.Val)
		return val, val != ""
	}
	return a.Val, true
}

// filterStyle keeps only declarations whose property is allow-listed and
// whose value cannot carry a nested resource load or expression. The
// editor writes colors as hex strings, so rejecting parenthesized values
// loses nothing it produces.
func (p *Policy) filterStyle(value string) string {
	var kept []string
	for _, decl := range strings.Split(value, ";") {
		name, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		val = strings.TrimSpace(val)
		if !p.styles[name] || val == "" || strings.ContainsAny(val, `(){}<>\`) {
			continue
		}
		kept = append(kept, name+": "+val)
	}
	return strings.Join(kept, "; ")
}

// isEventHandler reports whether name is an inline event-handler
// attribute. Every on-prefixed attribute in the platform is a handler,
// so the prefix is the whole test.
func isEventHandler(name string) bool {
	return strings.HasPrefix(name, "on")
}

// safeURL reports whether a URL value may be kept. The scheme is
// everything before the first colon that precedes any path, query, or
// fragment delimiter; whitespace and control characters are ignored the
// way platform URL parsers ignore them.
func safeURL(raw string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return unicode.ToLower(r)
	}, raw)
	colon := strings.IndexByte(cleaned, ':')
	if colon < 0 {
		return true
	}
	if cut := strings.IndexAny(cleaned, "/?#"); cut >= 0 && cut < colon {
		return true
	}
	switch cleaned[:colon] {
	case "javascript", "vbscript":
		return false
	case "data":
		return strings.HasPrefix(cleaned[colon+1:], "image/")
	}
	return true
}
