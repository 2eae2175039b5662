package markdown

import (
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func htmlEscape(s string) string { return htmlEscaper.Replace(s) }

// inlineHTML converts one line of Markdown inline syntax to HTML.
// Unmatched delimiters fall through as literal text.
func inlineHTML(s string) string {
	var sb strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && isPunct(s[i+1]):
			sb.WriteString(htmlEscape(string(s[i+1])))
			i += 2
		case c == '`':
			if code, next, ok := scanCode(s, i); ok {
				sb.WriteString("<code>" + htmlEscape(code) + "</code>")
				i = next
			} else {
				sb.WriteByte(c)
				i++
			}
		case strings.HasPrefix(s[i:], "***"):
			if inner, next, ok := scanDelimited(s, i, "***"); ok {
				sb.WriteString("<b><i>" + inlineHTML(inner) + "</i></b>")
				i = next
			} else {
				sb.WriteByte(c)
				i++
			}
		case strings.HasPrefix(s[i:], "**") || strings.HasPrefix(s[i:], "__"):
			if inner, next, ok := scanDelimited(s, i, s[i:i+2]); ok {
				sb.WriteString("<b>" + inlineHTML(inner) + "</b>")
				i = next
			} else {
				sb.WriteString(s[i : i+2])
				i += 2
			}
		case c == '*' || c == '_':
			if inner, next, ok := scanDelimited(s, i, string(c)); ok {
				sb.WriteString("<i>" + inlineHTML(inner) + "</i>")
				i = next
			} else {
				sb.WriteByte(c)
				i++
			}
		case strings.HasPrefix(s[i:], "~~"):
			if inner, next, ok := scanDelimited(s, i, "~~"); ok {
				sb.WriteString("<s>" + inlineHTML(inner) + "</s>")
				i = next
			} else {
				sb.WriteString("~~")
				i += 2
			}
		case c == '!' && i+1 < len(s) && s[i+1] == '[':
			if img, next, ok := scanImage(s, i); ok {
				sb.WriteString(img)
				i = next
			} else {
				sb.WriteByte(c)
				i++
			}
		case c == '[':
			if link, next, ok := scanLink(s, i); ok {
				sb.WriteString(link)
				i = next
			} else {
				sb.WriteByte(c)
				i++
			}
		case c == '<':
			if tag, next, ok := scanRawTag(s, i); ok {
				sb.WriteString(tag)
				i = next
			} else {
				sb.WriteString("&lt;")
				i++
			}
		case c == '&':
			if ent, next, ok := scanEntity(s, i); ok {
				sb.WriteString(ent)
				i = next
			} else {
				sb.WriteString("&amp;")
				i++
			}
		case c == '>':
			sb.WriteString("&gt;")
			i++
		case c == '"':
			sb.WriteString("&quot;")
			i++
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

func isPunct(c byte) bool {
	return strings.IndexByte("!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~", c) >= 0
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9')
}

// scanDelimited matches delim...delim with non-empty content that does
// not begin or end with a space.
func scanDelimited(s string, start int, delim string) (string, int, bool) {
	from := start + len(delim)
	j := strings.Index(s[from:], delim)
	if j < 0 {
		return "", 0, false
	}
	inner := s[from : from+j]
	if inner == "" || strings.HasPrefix(inner, " ") || strings.HasSuffix(inner, " ") {
		return "", 0, false
	}
	return inner, from + j + len(delim), true
}

// scanCode matches a backtick code span. The delimiter run length must
// match, so code containing backticks can be wrapped with longer runs.
func scanCode(s string, start int) (string, int, bool) {
	n := 0
	for start+n < len(s) && s[start+n] == '`' {
		n++
	}
	delim := s[start : start+n]
	from := start + n
	j := strings.Index(s[from:], delim)
	if j < 0 {
		return "", 0, false
	}
	code := s[from : from+j]
	// One space of writer padding around the content is not content.
	if len(code) >= 2 && strings.HasPrefix(code, " ") && strings.HasSuffix(code, " ") && strings.TrimSpace(code) != "" {
		code = code[1 : len(code)-1]
	}
	return code, from + j + n, true
}

func scanLink(s string, start int) (string, int, bool) {
	text, dest, title, next, ok := scanLinkParts(s, start)
	if !ok {
		return "", 0, false
	}
	attrs := ` href="` + htmlEscape(dest) + `"`
	if title != "" {
		attrs += ` title="` + htmlEscape(title) + `"`
	}
	return "<a" + attrs + ">" + inlineHTML(text) + "</a>", next, true
}

func scanImage(s string, start int) (string, int, bool) {
	alt, dest, title, next, ok := scanLinkParts(s, start+1)
	if !ok {
		return "", 0, false
	}
	attrs := ` src="` + htmlEscape(dest) + `" alt="` + htmlEscape(alt) + `"`
	if title != "" {
		attrs += ` title="` + htmlEscape(title) + `"`
	}
	return "<img" + attrs + ">", next, true
}

// scanLinkParts parses [text](dest), [text](<dest>), and either form
// with a trailing "title". start must index the opening bracket.
func scanLinkParts(s string, start int) (text, dest, title string, next int, ok bool) {
	if start >= len(s) || s[start] != '[' {
		return
	}
	depth := 1
	i := start + 1
	for i < len(s) && depth > 0 {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case '\\':
			i++
		}
		i++
	}
	if depth != 0 || i >= len(s) || s[i] != '(' {
		return
	}
	text = s[start+1 : i-1]
	i++

	if i < len(s) && s[i] == '<' {
		g := strings.IndexByte(s[i:], '>')
		if g < 0 {
			return
		}
		dest = s[i+1 : i+g]
		i += g + 1
	} else {
		j := i
		for j < len(s) && s[j] != ')' && s[j] != ' ' {
			j++
		}
		dest = s[i:j]
		i = j
	}

	for i < len(s) && s[i] == ' ' {
		i++
	}
	if i < len(s) && s[i] == '"' {
		q := strings.IndexByte(s[i+1:], '"')
		if q < 0 {
			return
		}
		title = s[i+1 : i+1+q]
		i += q + 2
		for i < len(s) && s[i] == ' ' {
			i++
		}
	}
	if i >= len(s) || s[i] != ')' {
		return
	}
	return text, dest, title, i + 1, true
}

// scanRawTag passes an HTML-looking tag through untouched; the
// sanitizer downstream decides what survives.
func scanRawTag(s string, start int) (string, int, bool) {
	i := start + 1
	if i < len(s) && s[i] == '/' {
		i++
	}
	if i >= len(s) || !isAlpha(s[i]) {
		return "", 0, false
	}
	j := strings.IndexByte(s[i:], '>')
	if j < 0 {
		return "", 0, false
	}
	end := i + j + 1
	return s[start:end], end, true
}

// scanEntity passes an existing character reference through rather
// than double-escaping its ampersand.
func scanEntity(s string, start int) (string, int, bool) {
	rest := s[start+1:]
	j := strings.IndexByte(rest, ';')
	if j < 1 || j > 31 {
		return "", 0, false
	}
	for k := 0; k < j; k++ {
		if !isAlnum(rest[k]) && rest[k] != '#' {
			return "", 0, false
		}
	}
	return s[start : start+j+2], start + j + 2, true
}
