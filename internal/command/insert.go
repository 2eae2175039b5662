package command

import (
	"fmt"
	"strings"

	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine"
	"github.com/dshills/inkstorm/internal/engine/selection"
)

// insertText types args.Text at the caret, replacing the selection if
// one is active. The length budget is checked against the engine before
// the edit starts; with a truncating overflow policy the text is cut to
// whatever headroom remains.
func insertText(e *engine.Engine, args Args) error {
	text := args.Text
	if text == "" {
		return fmt.Errorf("%w: no text", ErrBadArgument)
	}
	if room := e.Headroom(); room >= 0 {
		if n := dom.GraphemeLength(text); n > room {
			if e.Overflow() != engine.OverflowTruncate {
				return fmt.Errorf("%w: %d grapheme(s) over", engine.ErrContentTooLong, n-room)
			}
			kept := dom.TruncateText([]dom.Node{dom.NewText(text)}, room)
			if len(kept) == 0 {
				return nil
			}
			text = kept[0].(*dom.Text).Data()
		}
	}
	return e.Edit(func(d *dom.Document, b *selection.Bridge) error {
		start, end, ok := liveRange(d, b)
		if !ok {
			return ErrNoSelection
		}
		if start != end {
			caret, err := deleteRange(d, start, end)
			if err != nil {
				return err
			}
			start = caret
		}
		after, err := insertTextAt(d, start, text)
		if err != nil {
			return err
		}
		return b.Collapse(after)
	})
}

// deleteSelection removes the selected content and leaves a collapsed
// caret where it was. A collapsed or missing selection is a no-op.
func deleteSelection(e *engine.Engine, _ Args) error {
	return e.Edit(func(d *dom.Document, b *selection.Bridge) error {
		start, end, ok := liveRange(d, b)
		if !ok || start == end {
			return nil
		}
		caret, err := deleteRange(d, start, end)
		if err != nil {
			return err
		}
		return b.Collapse(caret)
	})
}

func selectAll(e *engine.Engine, _ Args) error {
	return e.Edit(func(_ *dom.Document, b *selection.Bridge) error {
		return b.SelectAll()
	})
}

// insertImage places an img element at the caret. Without a selection
// the image is appended to the document.
func insertImage(e *engine.Engine, args Args) error {
	url := strings.TrimSpace(args.URL)
	if url == "" {
		return fmt.Errorf("%w: image needs a url", ErrBadArgument)
	}
	return e.Edit(func(d *dom.Document, b *selection.Bridge) error {
		img := dom.NewElement("img")
		d.SetAttr(img, "src", url)
		if args.Alt != "" {
			d.SetAttr(img, "alt", args.Alt)
		}
		start, end, ok := liveRange(d, b)
		if !ok {
			if err := d.AppendChild(d.Root(), img); err != nil {
				return err
			}
			return b.Collapse(selection.Position{Node: d.Root(), Offset: len(d.Root().Children())})
		}
		if start != end {
			caret, err := deleteRange(d, start, end)
			if err != nil {
				return err
			}
			start = caret
		}
		if err := insertNodeAt(d, start, img); err != nil {
			return err
		}
		parent, ok := img.Parent().(*dom.Element)
		if !ok {
			return dom.ErrNotChild
		}
		return b.Collapse(selection.Position{Node: parent, Offset: parent.IndexOf(img) + 1})
	})
}
