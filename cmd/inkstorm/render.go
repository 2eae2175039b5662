package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine/selection"
)

var (
	styleText    = tcell.StyleDefault
	stylePrefix  = tcell.StyleDefault.Dim(true)
	styleHeading = tcell.StyleDefault.Bold(true)
	styleQuote   = tcell.StyleDefault.Dim(true)
	styleCode    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleStatus  = tcell.StyleDefault.Reverse(true)
)

// styledRun is a stretch of text drawn with one style.
type styledRun struct {
	text  string
	style tcell.Style
}

// visline is one screen row: a root block, or a list item or
// preformatted row inside one. Only plain data lives here; document
// nodes are re-resolved inside engine closures when needed.
type visline struct {
	block  int    // root child index
	item   int    // list item index, -1 when the row is the block itself
	start  int    // rune offset of this row within the node's text
	length int    // rune count of the row
	tag    string // element tag, empty for a bare text leaf
	prefix string // drawn before the text, not part of content
	runs   []styledRun
	rule   bool // horizontal rule row
}

// rebuild recomputes the visual lines from the document. Node access
// stays inside the closure; only strings and styles come out.
func (u *ui) rebuild() {
	var lines []visline
	_ = u.app.engine.View(func(d *dom.Document, _ *selection.Bridge) error {
		for i, n := range d.Root().Children() {
			lines = append(lines, blockLines(i, n)...)
		}
		return nil
	})
	u.lines = lines
	u.clampCaret()
}

// blockLines renders one root child into rows.
func blockLines(i int, n dom.Node) []visline {
	el, ok := n.(*dom.Element)
	if !ok {
		return []visline{{block: i, item: -1, runs: inlineRuns(n, styleText, false), length: textLen(n)}}
	}
	tag := el.Tag()
	switch {
	case tag == "ul" || tag == "ol":
		out := make([]visline, 0, el.ChildCount())
		for j, li := range el.Children() {
			prefix := "  - "
			if tag == "ol" {
				prefix = fmt.Sprintf("  %d. ", j+1)
			}
			out = append(out, visline{
				block: i, item: j, tag: tag,
				prefix: prefix,
				runs:   inlineRuns(li, styleText, false),
				length: textLen(li),
			})
		}
		if len(out) == 0 {
			out = append(out, visline{block: i, item: -1, tag: tag})
		}
		return out
	case tag == "hr":
		return []visline{{block: i, item: -1, tag: tag, rule: true}}
	case tag == "pre":
		rows := splitRows(inlineRuns(el, styleCode, true))
		out := make([]visline, 0, len(rows))
		start := 0
		for _, runs := range rows {
			count := runsLen(runs)
			out = append(out, visline{block: i, item: -1, tag: tag, start: start, length: count, runs: runs})
			start += count + 1
		}
		return out
	case tag == "blockquote":
		return []visline{{block: i, item: -1, tag: tag, prefix: "> ", runs: inlineRuns(el, styleQuote, false), length: textLen(el)}}
	case len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6':
		return []visline{{
			block: i, item: -1, tag: tag,
			prefix: strings.Repeat("#", int(tag[1]-'0')) + " ",
			runs:   inlineRuns(el, styleHeading, false),
			length: textLen(el),
		}}
	default:
		return []visline{{block: i, item: -1, tag: tag, runs: inlineRuns(el, styleText, false), length: textLen(el)}}
	}
}

// inlineRuns flattens a node's text into styled segments. Newlines
// collapse to spaces unless keepBreaks is set, so run lengths always
// match the node's rune count.
func inlineRuns(n dom.Node, base tcell.Style, keepBreaks bool) []styledRun {
	var runs []styledRun
	var walk func(nd dom.Node, st tcell.Style)
	walk = func(nd dom.Node, st tcell.Style) {
		switch v := nd.(type) {
		case *dom.Text:
			text := v.Data()
			if !keepBreaks {
				text = strings.ReplaceAll(text, "\n", " ")
			}
			if text != "" {
				runs = append(runs, styledRun{text: text, style: st})
			}
		case *dom.Element:
			st = inlineStyle(v, st)
			for _, c := range v.Children() {
				walk(c, st)
			}
		}
	}
	walk(n, base)
	return runs
}

// inlineStyle layers an element's formatting onto the inherited style.
func inlineStyle(el *dom.Element, st tcell.Style) tcell.Style {
	switch el.Tag() {
	case "b", "strong":
		st = st.Bold(true)
	case "i", "em":
		st = st.Italic(true)
	case "u":
		st = st.Underline(true)
	case "s", "strike", "del":
		st = st.StrikeThrough(true)
	case "code":
		st = st.Foreground(tcell.ColorYellow)
	case "a":
		st = st.Underline(true).Foreground(tcell.ColorBlue)
	}
	if raw, ok := el.Attr("style"); ok {
		if c, ok := styleColor(raw); ok {
			st = st.Foreground(c)
		}
	}
	return st
}

// styleColor extracts a color declaration from an inline style value.
func styleColor(raw string) (tcell.Color, bool) {
	for _, decl := range strings.Split(raw, ";") {
		key, val, ok := strings.Cut(decl, ":")
		if !ok || strings.TrimSpace(key) != "color" {
			continue
		}
		c, err := colorful.Hex(strings.TrimSpace(val))
		if err != nil {
			continue
		}
		r, g, b := c.RGB255()
		return tcell.NewRGBColor(int32(r), int32(g), int32(b)), true
	}
	return 0, false
}

// splitRows breaks runs on newlines so preformatted blocks keep their
// line structure on screen.
func splitRows(runs []styledRun) [][]styledRun {
	rows := [][]styledRun{nil}
	for _, r := range runs {
		for {
			i := strings.IndexByte(r.text, '\n')
			if i < 0 {
				break
			}
			if i > 0 {
				rows[len(rows)-1] = append(rows[len(rows)-1], styledRun{text: r.text[:i], style: r.style})
			}
			rows = append(rows, nil)
			r.text = r.text[i+1:]
		}
		if r.text != "" {
			rows[len(rows)-1] = append(rows[len(rows)-1], r)
		}
	}
	return rows
}

func runsLen(runs []styledRun) int {
	n := 0
	for _, r := range runs {
		n += utf8.RuneCountInString(r.text)
	}
	return n
}

func prefixWidth(prefix string) int {
	return utf8.RuneCountInString(prefix)
}

func (u *ui) draw() {
	w, h := u.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}
	u.screen.Clear()
	body := h - 1
	if body < 1 {
		body = h
	}
	u.scrollTo(body)
	selStart, selEnd, selActive := u.selectionBounds()

	y := 0
	for i := u.top; i < len(u.lines) && y < body; i, y = i+1, y+1 {
		u.drawLine(y, w, i, selStart, selEnd, selActive)
	}
	if h > 1 {
		u.drawStatus(w, h-1)
	}

	switch {
	case len(u.lines) == 0:
		u.screen.ShowCursor(0, 0)
	case u.cur.line >= u.top && u.cur.line < u.top+body:
		ln := u.lines[u.cur.line]
		x := min(prefixWidth(ln.prefix)+u.cur.col, w-1)
		u.screen.ShowCursor(x, u.cur.line-u.top)
	default:
		u.screen.HideCursor()
	}
	u.screen.Show()
}

// scrollTo keeps the caret inside the visible body.
func (u *ui) scrollTo(body int) {
	if u.cur.line < u.top {
		u.top = u.cur.line
	}
	if u.cur.line >= u.top+body {
		u.top = u.cur.line - body + 1
	}
	if u.top < 0 {
		u.top = 0
	}
}

func (u *ui) drawLine(y, w, idx int, selStart, selEnd caret, selActive bool) {
	ln := u.lines[idx]
	if ln.rule {
		for x := 0; x < w; x++ {
			u.screen.SetContent(x, y, tcell.RuneHLine, nil, stylePrefix)
		}
		return
	}
	x := 0
	for _, r := range ln.prefix {
		if x >= w {
			return
		}
		u.screen.SetContent(x, y, r, nil, stylePrefix)
		x++
	}
	col := 0
	for _, run := range ln.runs {
		for _, r := range run.text {
			if x >= w {
				return
			}
			st := run.style
			if selActive && inSelection(caret{line: idx, col: col}, selStart, selEnd) {
				st = st.Reverse(true)
			}
			u.screen.SetContent(x, y, r, nil, st)
			x++
			col++
		}
	}
	// A line break inside the selection shows as one reversed cell.
	if selActive && x < w && inSelection(caret{line: idx, col: col}, selStart, selEnd) {
		u.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Reverse(true))
	}
}

func inSelection(c, start, end caret) bool {
	return !caretLess(c, start) && caretLess(c, end)
}

func (u *ui) drawStatus(w, y int) {
	e := u.app.engine
	left := u.status
	if left == "" {
		left = "^S save  ^Q quit  ^Z undo  ^Y redo  ^B bold  ^T italic  ^U underline  M-1..6 heading"
	}
	right := fmt.Sprintf("%s  v%d  undo:%d", short(u.app.SessionID()), e.Version(), e.UndoCount())
	if e.ReadOnly() {
		right = "RO  " + right
	}
	line := left
	if pad := w - utf8.RuneCountInString(left) - utf8.RuneCountInString(right); pad > 0 {
		line = left + strings.Repeat(" ", pad) + right
	}
	x := 0
	for _, r := range line {
		if x >= w {
			break
		}
		u.screen.SetContent(x, y, r, nil, styleStatus)
		x++
	}
	for ; x < w; x++ {
		u.screen.SetContent(x, y, ' ', nil, styleStatus)
	}
}
