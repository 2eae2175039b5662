package markdown

import (
	"fmt"
	"strings"

	"github.com/dshills/inkstorm/internal/engine"
)

// Import replaces the engine's content with the converted Markdown.
// SetContent runs the result through the engine's sanitizer, so raw
// HTML in the source is screened there, not here.
func Import(e *engine.Engine, src string) error {
	return e.SetContent(ToHTML(src))
}

// ToHTML converts Markdown source into the editor's HTML vocabulary.
// The block grammar covers ATX headings, thematic breaks, single-level
// quotes and lists, fenced code, and paragraphs; everything else is
// paragraph text.
func ToHTML(src string) string {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	var out []string
	for i := 0; i < len(lines); {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case trimmed == "":
			i++
		case isFence(trimmed):
			block, next := parseFence(lines, i)
			out = append(out, block)
			i = next
		case isRule(trimmed):
			out = append(out, "<hr>")
			i++
		case headingLevel(trimmed) > 0:
			out = append(out, parseHeading(trimmed))
			i++
		case strings.HasPrefix(trimmed, ">"):
			block, next := parseQuote(lines, i)
			out = append(out, block)
			i = next
		case isUnorderedItem(trimmed):
			block, next := parseList(lines, i, false)
			out = append(out, block)
			i = next
		case isOrderedItem(trimmed):
			block, next := parseList(lines, i, true)
			out = append(out, block)
			i = next
		default:
			block, next := parseParagraph(lines, i)
			out = append(out, block)
			i = next
		}
	}
	return strings.Join(out, "")
}

func isFence(s string) bool {
	return strings.HasPrefix(s, "```") || strings.HasPrefix(s, "~~~")
}

func isRule(s string) bool {
	if len(s) < 3 {
		return false
	}
	marker := s[0]
	if marker != '-' && marker != '*' && marker != '_' {
		return false
	}
	for j := 0; j < len(s); j++ {
		if s[j] != marker {
			return false
		}
	}
	return true
}

func headingLevel(s string) int {
	n := 0
	for n < len(s) && s[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0
	}
	if n < len(s) && s[n] != ' ' {
		return 0
	}
	return n
}

func isUnorderedItem(s string) bool {
	return len(s) >= 2 && (s[0] == '-' || s[0] == '*' || s[0] == '+') && s[1] == ' '
}

func isOrderedItem(s string) bool {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i > 0 && i+1 < len(s) && (s[i] == '.' || s[i] == ')') && s[i+1] == ' '
}

// structural reports whether a line opens a non-paragraph block, ending
// any paragraph in progress.
func structural(s string) bool {
	return isFence(s) || isRule(s) || headingLevel(s) > 0 ||
		strings.HasPrefix(s, ">") || isUnorderedItem(s) || isOrderedItem(s)
}

func parseHeading(s string) string {
	level := headingLevel(s)
	body := strings.TrimSpace(s[level:])
	body = strings.TrimSpace(strings.TrimRight(body, "#"))
	return fmt.Sprintf("<h%d>%s</h%d>", level, inlineHTML(body), level)
}

func parseFence(lines []string, start int) (string, int) {
	open := strings.TrimSpace(lines[start])
	marker := open[0]
	n := 0
	for n < len(open) && open[n] == marker {
		n++
	}
	var body []string
	i := start + 1
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if isFenceClose(trimmed, marker, n) {
			i++
			break
		}
		body = append(body, lines[i])
		i++
	}
	return "<pre><code>" + htmlEscape(strings.Join(body, "\n")) + "</code></pre>", i
}

func isFenceClose(s string, marker byte, n int) bool {
	if len(s) < n {
		return false
	}
	for j := 0; j < len(s); j++ {
		if s[j] != marker {
			return false
		}
	}
	return true
}

func parseQuote(lines []string, start int) (string, int) {
	var parts []string
	i := start
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, ">") {
			break
		}
		body := strings.TrimSpace(strings.TrimLeft(trimmed, "> "))
		if body != "" {
			parts = append(parts, body)
		}
		i++
	}
	return "<blockquote>" + inlineHTML(strings.Join(parts, " ")) + "</blockquote>", i
}

func parseList(lines []string, start int, ordered bool) (string, int) {
	tag := "ul"
	match := isUnorderedItem
	if ordered {
		tag = "ol"
		match = isOrderedItem
	}
	var items []string
	i := start
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if !match(trimmed) {
			break
		}
		items = append(items, "<li>"+inlineHTML(itemText(trimmed, ordered))+"</li>")
		i++
	}
	return "<" + tag + ">" + strings.Join(items, "") + "</" + tag + ">", i
}

func itemText(s string, ordered bool) string {
	if ordered {
		j := strings.IndexAny(s, ".)")
		return strings.TrimSpace(s[j+1:])
	}
	return strings.TrimSpace(s[2:])
}

func parseParagraph(lines []string, start int) (string, int) {
	var sb strings.Builder
	i := start
	first := true
	prevHard := false
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || structural(trimmed) {
			break
		}
		if !first && !prevHard {
			sb.WriteString(" ")
		}
		hard := strings.HasSuffix(line, "  ") || strings.HasSuffix(trimmed, "\\")
		content := strings.TrimSpace(strings.TrimSuffix(trimmed, "\\"))
		sb.WriteString(inlineHTML(content))
		if hard && i+1 < len(lines) {
			next := strings.TrimSpace(lines[i+1])
			if next != "" && !structural(next) {
				sb.WriteString("<br>")
			}
		}
		first = false
		prevHard = hard
		i++
	}
	return "<p>" + sb.String() + "</p>", i
}
