package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestBlockLinesList(t *testing.T) {
	d := parseDoc(t, "<ul><li>one</li><li>two</li></ul>")
	lines := blockLines(0, d.Root().ChildAt(0))
	if len(lines) != 2 {
		t.Fatalf("list rows = %d, want 2", len(lines))
	}
	if lines[0].item != 0 || lines[1].item != 1 {
		t.Fatalf("item indexes = %d, %d", lines[0].item, lines[1].item)
	}
	if lines[0].prefix != "  - " || lines[1].prefix != "  - " {
		t.Fatalf("bullet prefixes = %q, %q", lines[0].prefix, lines[1].prefix)
	}
	if lines[1].length != 3 {
		t.Fatalf("row length = %d, want 3", lines[1].length)
	}
}

func TestBlockLinesOrderedList(t *testing.T) {
	d := parseDoc(t, "<ol><li>a</li><li>b</li></ol>")
	lines := blockLines(0, d.Root().ChildAt(0))
	if lines[0].prefix != "  1. " || lines[1].prefix != "  2. " {
		t.Fatalf("ordered prefixes = %q, %q", lines[0].prefix, lines[1].prefix)
	}
}

func TestBlockLinesPre(t *testing.T) {
	d := parseDoc(t, "<pre>x = 1\ny = 2</pre>")
	lines := blockLines(0, d.Root().ChildAt(0))
	if len(lines) != 2 {
		t.Fatalf("pre rows = %d, want 2", len(lines))
	}
	if lines[0].start != 0 || lines[0].length != 5 {
		t.Fatalf("first row start %d length %d", lines[0].start, lines[0].length)
	}
	if lines[1].start != 6 || lines[1].length != 5 {
		t.Fatalf("second row start %d length %d, want 6 and 5", lines[1].start, lines[1].length)
	}
}

func TestBlockLinesHeading(t *testing.T) {
	d := parseDoc(t, "<h3>deep</h3>")
	lines := blockLines(0, d.Root().ChildAt(0))
	if len(lines) != 1 || lines[0].prefix != "### " {
		t.Fatalf("heading line = %+v", lines)
	}
	if lines[0].length != 4 {
		t.Fatalf("heading length = %d, want 4", lines[0].length)
	}
}

func TestBlockLinesRule(t *testing.T) {
	d := parseDoc(t, "<hr>")
	lines := blockLines(0, d.Root().ChildAt(0))
	if len(lines) != 1 || !lines[0].rule {
		t.Fatalf("rule line = %+v", lines)
	}
}

func TestInlineRunsCollapseNewlines(t *testing.T) {
	d := parseDoc(t, "<p>a\nb</p>")
	runs := inlineRuns(d.Root().ChildAt(0), tcell.StyleDefault, false)
	if len(runs) != 1 || runs[0].text != "a b" {
		t.Fatalf("runs = %+v, want one run %q", runs, "a b")
	}
}

func TestSplitRowsKeepsEmptyRows(t *testing.T) {
	rows := splitRows([]styledRun{{text: "a\n\nb"}})
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if runsLen(rows[0]) != 1 || runsLen(rows[1]) != 0 || runsLen(rows[2]) != 1 {
		t.Fatalf("row lengths = %d, %d, %d", runsLen(rows[0]), runsLen(rows[1]), runsLen(rows[2]))
	}
}

func TestStyleColor(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want tcell.Color
		ok   bool
	}{
		{"hex color", "color: #ff0000", tcell.NewRGBColor(255, 0, 0), true},
		{"among other declarations", "text-align: center; color: #00ff00", tcell.NewRGBColor(0, 255, 0), true},
		{"background only", "background-color: #ff0000", 0, false},
		{"named color unsupported", "color: red", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := styleColor(tt.raw)
			if ok != tt.ok {
				t.Fatalf("styleColor(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("styleColor(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFindLineAcrossPreRows(t *testing.T) {
	u := &ui{lines: []visline{
		{block: 0, item: -1, start: 0, length: 5},
		{block: 0, item: -1, start: 6, length: 5},
		{block: 1, item: -1, start: 0, length: 2},
	}}

	if c := u.findLine(0, -1, 8); c != (caret{line: 1, col: 2}) {
		t.Fatalf("findLine(0, -1, 8) = %+v", c)
	}
	// A row-end offset belongs to the earlier row.
	if c := u.findLine(0, -1, 5); c != (caret{line: 0, col: 5}) {
		t.Fatalf("findLine(0, -1, 5) = %+v", c)
	}
	if c := u.findLine(1, -1, 9); c != (caret{line: 2, col: 2}) {
		t.Fatalf("out-of-range col = %+v, want clamp to line end", c)
	}
}

func TestStepCrossesLines(t *testing.T) {
	u := &ui{lines: []visline{
		{block: 0, item: -1, length: 2},
		{block: 1, item: -1, length: 3},
	}}

	if c, ok := u.step(caret{line: 0, col: 2}, 1); !ok || c != (caret{line: 1, col: 0}) {
		t.Fatalf("step forward across lines = %+v, %v", c, ok)
	}
	if c, ok := u.step(caret{line: 1, col: 0}, -1); !ok || c != (caret{line: 0, col: 2}) {
		t.Fatalf("step back across lines = %+v, %v", c, ok)
	}
	if _, ok := u.step(caret{line: 0, col: 0}, -1); ok {
		t.Fatal("step back at document start should fail")
	}
	if _, ok := u.step(caret{line: 1, col: 3}, 1); ok {
		t.Fatal("step forward at document end should fail")
	}
}
