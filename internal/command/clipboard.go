package command

import (
	"fmt"
	"sync"

	atotto "github.com/atotto/clipboard"

	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine"
	"github.com/dshills/inkstorm/internal/engine/selection"
)

// Clipboard moves text between the editor and the outside world. The
// transport is plain text; formatting does not survive a round trip.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(s string) error
}

// SystemClipboard is the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) { return atotto.ReadAll() }
func (SystemClipboard) WriteAll(s string) error  { return atotto.WriteAll(s) }

// Memory is an in-process clipboard for tests and headless use.
type Memory struct {
	mu sync.Mutex
	s  string
}

func (m *Memory) ReadAll() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s, nil
}

func (m *Memory) WriteAll(s string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	return nil
}

// copyCmd writes the selected text to the clipboard. Text from
// different blocks is joined with newlines.
func (r *Registry) copyCmd(e *engine.Engine, _ Args) error {
	var out string
	err := e.View(func(d *dom.Document, b *selection.Bridge) error {
		start, end, ok := liveRange(d, b)
		if !ok || start == end {
			return ErrNoSelection
		}
		segs := segmentsBetween(d.Root(), start, end)
		if len(segs) == 0 {
			return ErrNoSelection
		}
		out = plainText(d.Root(), segs)
		return nil
	})
	if err != nil {
		return err
	}
	return r.clipboard.WriteAll(out)
}

func (r *Registry) cut(e *engine.Engine, args Args) error {
	if err := r.copyCmd(e, args); err != nil {
		return err
	}
	return deleteSelection(e, args)
}

// paste inserts clipboard content at the caret, replacing the selection
// if one is active. The content is sanitized before parsing, and the
// length budget is applied to the parsed fragment up front.
func (r *Registry) paste(e *engine.Engine, _ Args) error {
	raw, err := r.clipboard.ReadAll()
	if err != nil {
		return fmt.Errorf("read clipboard: %w", err)
	}
	clean := r.sanitize(raw)
	if clean == "" {
		return nil
	}
	nodes, err := dom.ParseFragment(clean)
	if err != nil {
		return fmt.Errorf("parse clipboard: %w", err)
	}
	if room := e.Headroom(); room >= 0 {
		if n := dom.TextLength(nodes...); n > room {
			if e.Overflow() != engine.OverflowTruncate {
				return fmt.Errorf("%w: %d grapheme(s) over", engine.ErrContentTooLong, n-room)
			}
			nodes = dom.TruncateText(nodes, room)
		}
	}
	if len(nodes) == 0 {
		return nil
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
		caret := start
		for _, n := range nodes {
			if t, ok := n.(*dom.Text); ok {
				after, err := insertTextAt(d, caret, t.Data())
				if err != nil {
					return err
				}
				caret = after
				continue
			}
			if err := insertNodeAt(d, caret, n); err != nil {
				return err
			}
			parent, ok := n.Parent().(*dom.Element)
			if !ok {
				return dom.ErrNotChild
			}
			caret = selection.Position{Node: parent, Offset: parent.IndexOf(n) + 1}
		}
		return b.Collapse(caret)
	})
}
