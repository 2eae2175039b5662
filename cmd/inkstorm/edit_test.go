package main

import (
	"testing"

	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine/selection"
)

func parseDoc(t *testing.T, html string) *dom.Document {
	t.Helper()
	d := dom.NewDocument()
	if err := d.SetHTML(html); err != nil {
		t.Fatalf("SetHTML(%q): %v", html, err)
	}
	return d
}

func TestPositionAt(t *testing.T) {
	d := parseDoc(t, "<p>ab<b>cd</b>ef</p>")
	p := d.Root().ChildAt(0)

	tests := []struct {
		name   string
		offset int
		data   string
		at     int
	}{
		{"start", 0, "ab", 0},
		{"inside first leaf", 1, "ab", 1},
		{"leaf boundary", 2, "ab", 2},
		{"inside bold", 3, "cd", 1},
		{"inside last leaf", 5, "ef", 1},
		{"end", 6, "ef", 2},
		{"past end clamps", 99, "ef", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := positionAt(p, tt.offset)
			leaf, ok := pos.Node.(*dom.Text)
			if !ok {
				t.Fatalf("positionAt(%d) landed on %T", tt.offset, pos.Node)
			}
			if leaf.Data() != tt.data || pos.Offset != tt.at {
				t.Fatalf("positionAt(%d) = %q@%d, want %q@%d",
					tt.offset, leaf.Data(), pos.Offset, tt.data, tt.at)
			}
		})
	}
}

func TestPositionAtEmptyBlock(t *testing.T) {
	d := parseDoc(t, "<p></p>")
	pos := positionAt(d.Root().ChildAt(0), 0)
	el, ok := pos.Node.(*dom.Element)
	if !ok || el.Tag() != "p" || pos.Offset != 0 {
		t.Fatalf("positionAt on empty block = %#v, want the element itself", pos)
	}
}

func TestFlatOffsetRoundTrip(t *testing.T) {
	d := parseDoc(t, "<p>ab<b>cd</b>ef</p>")
	p := d.Root().ChildAt(0)
	for off := 0; off <= 6; off++ {
		pos := positionAt(p, off)
		got, ok := flatOffset(p, pos)
		if !ok || got != off {
			t.Fatalf("flatOffset(positionAt(%d)) = %d, %v", off, got, ok)
		}
	}
}

func TestFlatOffsetOutsideSubtree(t *testing.T) {
	d := parseDoc(t, "<p>ab</p><p>cd</p>")
	pos := positionAt(d.Root().ChildAt(1), 1)
	if _, ok := flatOffset(d.Root().ChildAt(0), pos); ok {
		t.Fatal("flatOffset found a position from a different block")
	}
}

func TestLocate(t *testing.T) {
	d := parseDoc(t, "<p>ab</p><ul><li>one</li><li>two</li></ul><p>cd</p>")
	root := d.Root()
	ul := root.ChildAt(1).(*dom.Element)

	tests := []struct {
		name             string
		pos              selection.Position
		block, item, col int
	}{
		{"paragraph", positionAt(root.ChildAt(0), 1), 0, -1, 1},
		{"first item", positionAt(ul.ChildAt(0), 3), 1, 0, 3},
		{"second item", positionAt(ul.ChildAt(1), 2), 1, 1, 2},
		{"root start of list", selection.Position{Node: root, Offset: 1}, 1, 0, 0},
		{"root past end", selection.Position{Node: root, Offset: 3}, 2, -1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, item, col, ok := locate(root, tt.pos)
			if !ok {
				t.Fatal("locate failed")
			}
			if block != tt.block || item != tt.item || col != tt.col {
				t.Fatalf("locate = (%d, %d, %d), want (%d, %d, %d)",
					block, item, col, tt.block, tt.item, tt.col)
			}
		})
	}
}

func TestMergeParagraphs(t *testing.T) {
	d := parseDoc(t, "<p>ab</p><p><b>cd</b></p>")
	b := selection.NewBridge(d)

	if err := mergeNodes(d, b, d.Root().ChildAt(0), d.Root().ChildAt(1)); err != nil {
		t.Fatalf("mergeNodes: %v", err)
	}
	if got, want := d.HTML(), "<p>ab<b>cd</b></p>"; got != want {
		t.Fatalf("merged html = %q, want %q", got, want)
	}
	sel, ok := b.Live()
	if !ok || !sel.Collapsed() {
		t.Fatalf("selection after merge = %#v, %v", sel, ok)
	}
	if off, ok := flatOffset(d.Root().ChildAt(0), sel.Focus); !ok || off != 2 {
		t.Fatalf("caret after merge at %d, %v, want the joint at 2", off, ok)
	}
}

func TestMergeRemovesRule(t *testing.T) {
	d := parseDoc(t, "<p>ab</p><hr><p>cd</p>")
	b := selection.NewBridge(d)

	if err := mergeNodes(d, b, d.Root().ChildAt(1), d.Root().ChildAt(2)); err != nil {
		t.Fatalf("mergeNodes: %v", err)
	}
	if got, want := d.HTML(), "<p>ab</p><p>cd</p>"; got != want {
		t.Fatalf("html after rule delete = %q, want %q", got, want)
	}
	sel, ok := b.Live()
	if !ok {
		t.Fatal("no selection after rule delete")
	}
	if off, _ := flatOffset(d.Root().ChildAt(1), sel.Focus); off != 0 {
		t.Fatalf("caret at %d, want start of the following block", off)
	}
}

func TestMergeListItemIntoParagraph(t *testing.T) {
	d := parseDoc(t, "<p>ab</p><ul><li>one</li><li>two</li></ul>")
	b := selection.NewBridge(d)
	ul := d.Root().ChildAt(1).(*dom.Element)

	if err := mergeNodes(d, b, d.Root().ChildAt(0), ul.ChildAt(0)); err != nil {
		t.Fatalf("mergeNodes: %v", err)
	}
	if got, want := d.HTML(), "<p>abone</p><ul><li>two</li></ul>"; got != want {
		t.Fatalf("html = %q, want %q", got, want)
	}
}

func TestMergeLastItemRemovesList(t *testing.T) {
	d := parseDoc(t, "<p>ab</p><ul><li>one</li></ul>")
	b := selection.NewBridge(d)
	ul := d.Root().ChildAt(1).(*dom.Element)

	if err := mergeNodes(d, b, d.Root().ChildAt(0), ul.ChildAt(0)); err != nil {
		t.Fatalf("mergeNodes: %v", err)
	}
	if got, want := d.HTML(), "<p>abone</p>"; got != want {
		t.Fatalf("html = %q, want %q", got, want)
	}
}

func TestSplitParagraph(t *testing.T) {
	d := parseDoc(t, "<p>abcd</p>")
	b := selection.NewBridge(d)

	if err := splitNode(d, b, d.Root().ChildAt(0), 2); err != nil {
		t.Fatalf("splitNode: %v", err)
	}
	if got, want := d.HTML(), "<p>ab</p><p>cd</p>"; got != want {
		t.Fatalf("html = %q, want %q", got, want)
	}
	sel, ok := b.Live()
	if !ok || !sel.Collapsed() {
		t.Fatalf("selection after split = %#v, %v", sel, ok)
	}
	if off, ok := flatOffset(d.Root().ChildAt(1), sel.Focus); !ok || off != 0 {
		t.Fatalf("caret at %d, %v, want start of the new block", off, ok)
	}
}

func TestSplitAtBlockEdges(t *testing.T) {
	t.Run("start", func(t *testing.T) {
		d := parseDoc(t, "<p>abcd</p>")
		b := selection.NewBridge(d)
		if err := splitNode(d, b, d.Root().ChildAt(0), 0); err != nil {
			t.Fatalf("splitNode: %v", err)
		}
		if got, want := d.HTML(), "<p></p><p>abcd</p>"; got != want {
			t.Fatalf("html = %q, want %q", got, want)
		}
	})
	t.Run("end", func(t *testing.T) {
		d := parseDoc(t, "<p>abcd</p>")
		b := selection.NewBridge(d)
		if err := splitNode(d, b, d.Root().ChildAt(0), 4); err != nil {
			t.Fatalf("splitNode: %v", err)
		}
		if got, want := d.HTML(), "<p>abcd</p><p></p>"; got != want {
			t.Fatalf("html = %q, want %q", got, want)
		}
	})
}

func TestSplitListItem(t *testing.T) {
	d := parseDoc(t, "<ul><li>onetwo</li></ul>")
	b := selection.NewBridge(d)
	ul := d.Root().ChildAt(0).(*dom.Element)

	if err := splitNode(d, b, ul.ChildAt(0), 3); err != nil {
		t.Fatalf("splitNode: %v", err)
	}
	if got, want := d.HTML(), "<ul><li>one</li><li>two</li></ul>"; got != want {
		t.Fatalf("html = %q, want %q", got, want)
	}
}

func TestSplitInsideFormattedRun(t *testing.T) {
	d := parseDoc(t, "<p>ab<b>cd</b>ef</p>")
	b := selection.NewBridge(d)

	// The run stays whole; the break lands after it.
	if err := splitNode(d, b, d.Root().ChildAt(0), 3); err != nil {
		t.Fatalf("splitNode: %v", err)
	}
	if got, want := d.HTML(), "<p>ab<b>cd</b></p><p>ef</p>"; got != want {
		t.Fatalf("html = %q, want %q", got, want)
	}
}

func TestSplitHeadingMakesParagraph(t *testing.T) {
	d := parseDoc(t, "<h2>topic</h2>")
	b := selection.NewBridge(d)

	if err := splitNode(d, b, d.Root().ChildAt(0), 5); err != nil {
		t.Fatalf("splitNode: %v", err)
	}
	if got, want := d.HTML(), "<h2>topic</h2><p></p>"; got != want {
		t.Fatalf("html = %q, want %q", got, want)
	}
}
