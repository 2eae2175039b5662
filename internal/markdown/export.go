package markdown

import (
	"strconv"
	"strings"

	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine"
	"github.com/dshills/inkstorm/internal/engine/selection"
)

// Export renders the engine's document as Markdown.
func Export(e *engine.Engine) (string, error) {
	var out string
	err := e.View(func(doc *dom.Document, _ *selection.Bridge) error {
		out = Render(doc)
		return nil
	})
	return out, err
}

// Render walks the document's block tree and produces Markdown. Color
// spans and alignment carry no Markdown form and are dropped; underline
// and the sub/sup pair survive as inline HTML.
func Render(doc *dom.Document) string {
	var blocks []string
	for _, child := range doc.Root().Children() {
		if b, ok := renderBlock(child); ok {
			blocks = append(blocks, b)
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func renderBlock(n dom.Node) (string, bool) {
	switch node := n.(type) {
	case *dom.Text:
		// Whitespace between blocks is markup formatting, not content.
		if strings.TrimSpace(node.Data()) == "" {
			return "", false
		}
		return escapeBlockStart(renderText(node.Data())), true
	case *dom.Element:
		switch tag := node.Tag(); tag {
		case "p", "div":
			return escapeBlockStart(renderInline(node)), true
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(tag[1] - '0')
			return strings.Repeat("#", level) + " " + renderInline(node), true
		case "blockquote":
			return quotePrefix(renderBody(node)), true
		case "pre":
			return fence(textOf(node)), true
		case "ul":
			return renderList(node, false), true
		case "ol":
			return renderList(node, true), true
		case "hr":
			return "---", true
		case "br":
			return "", false
		default:
			return escapeBlockStart(renderInline(node)), true
		}
	}
	return "", false
}

var blockTags = map[string]bool{
	"p": true, "div": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "blockquote": true, "pre": true,
	"ul": true, "ol": true, "li": true, "hr": true,
}

// renderBody renders an element that may hold either inline content or
// nested blocks (a blockquote or list item from pasted HTML).
func renderBody(e *dom.Element) string {
	nested := false
	for _, ch := range e.Children() {
		if el, ok := ch.(*dom.Element); ok && blockTags[el.Tag()] {
			nested = true
			break
		}
	}
	if !nested {
		return renderInline(e)
	}
	var parts []string
	for _, ch := range e.Children() {
		if b, ok := renderBlock(ch); ok {
			parts = append(parts, b)
		}
	}
	return strings.Join(parts, "\n\n")
}

func renderList(list *dom.Element, ordered bool) string {
	var items []string
	n := 0
	for _, ch := range list.Children() {
		item, ok := ch.(*dom.Element)
		if !ok || item.Tag() != "li" {
			continue
		}
		n++
		marker := "- "
		if ordered {
			marker = strconv.Itoa(n) + ". "
		}
		lines := strings.Split(renderBody(item), "\n")
		indent := strings.Repeat(" ", len(marker))
		for i := 1; i < len(lines); i++ {
			lines[i] = indent + lines[i]
		}
		items = append(items, marker+strings.Join(lines, "\n"))
	}
	return strings.Join(items, "\n")
}

func quotePrefix(s string) string {
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		if ln == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + ln
		}
	}
	return strings.Join(lines, "\n")
}

func renderInline(e *dom.Element) string {
	var sb strings.Builder
	for _, ch := range e.Children() {
		sb.WriteString(renderInlineNode(ch))
	}
	return sb.String()
}

func renderInlineNode(n dom.Node) string {
	switch node := n.(type) {
	case *dom.Text:
		return renderText(node.Data())
	case *dom.Element:
		switch node.Tag() {
		case "b", "strong":
			return "**" + renderInline(node) + "**"
		case "i", "em":
			return "*" + renderInline(node) + "*"
		case "s", "strike", "del":
			return "~~" + renderInline(node) + "~~"
		case "code":
			return codeSpan(textOf(node))
		case "a":
			return renderLink(node)
		case "img":
			return renderImage(node)
		case "br":
			return "\\\n"
		case "u", "sub", "sup":
			// Markdown has no syntax for these; raw inline HTML does.
			return "<" + node.Tag() + ">" + renderInline(node) + "</" + node.Tag() + ">"
		default:
			return renderInline(node)
		}
	}
	return ""
}

func renderLink(a *dom.Element) string {
	href, _ := a.Attr("href")
	label := renderInline(a)
	if title, ok := a.Attr("title"); ok && title != "" {
		return "[" + label + "](" + linkDest(href) + ` "` + title + `")`
	}
	return "[" + label + "](" + linkDest(href) + ")"
}

func renderImage(img *dom.Element) string {
	src, _ := img.Attr("src")
	alt, _ := img.Attr("alt")
	if title, ok := img.Attr("title"); ok && title != "" {
		return "![" + escapeText(alt) + "](" + linkDest(src) + ` "` + title + `")`
	}
	return "![" + escapeText(alt) + "](" + linkDest(src) + ")"
}

// linkDest wraps destinations that would terminate the parenthesized
// form early.
func linkDest(u string) string {
	if u == "" || strings.ContainsAny(u, " ()") {
		return "<" + u + ">"
	}
	return u
}

func renderText(s string) string {
	return escapeText(normalizeSpace(s))
}

// normalizeSpace applies HTML whitespace collapsing: runs of spaces,
// tabs, and newlines become one space.
func normalizeSpace(s string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\n', '\t', '\r':
			if !prevSpace {
				sb.WriteByte(' ')
			}
			prevSpace = true
		default:
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return sb.String()
}

const inlineSpecials = "\\`*_[]~<"

func escapeText(s string) string {
	if !strings.ContainsAny(s, inlineSpecials) {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		if r < 128 && strings.ContainsRune(inlineSpecials, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// escapeBlockStart keeps paragraph text that begins like block syntax
// from re-parsing as that block.
func escapeBlockStart(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '#', '>', '-', '+':
		return "\\" + s
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return s[:i] + "\\" + s[i:]
	}
	return s
}

func codeSpan(s string) string {
	delim := "`"
	for strings.Contains(s, delim) {
		delim += "`"
	}
	if s == "" || strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return delim + " " + s + " " + delim
	}
	return delim + s + delim
}

func fence(code string) string {
	delim := "```"
	for strings.Contains(code, delim) {
		delim += "`"
	}
	return delim + "\n" + strings.TrimSuffix(code, "\n") + "\n" + delim
}

// textOf is the raw text projection of a subtree, uncollapsed.
func textOf(e *dom.Element) string {
	var sb strings.Builder
	var walk func(dom.Node)
	walk = func(n dom.Node) {
		switch node := n.(type) {
		case *dom.Text:
			sb.WriteString(node.Data())
		case *dom.Element:
			for _, ch := range node.Children() {
				walk(ch)
			}
		}
	}
	walk(e)
	return sb.String()
}
