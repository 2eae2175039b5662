package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/inkstorm/internal/command"
	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine/selection"
	"github.com/dshills/inkstorm/internal/event"
)

// eventQueueSize bounds the input queue between the poll goroutine and
// the event loop. Input past a full queue is dropped.
const eventQueueSize = 100

// caret addresses a spot in the visual line list: a line index plus a
// rune column within that line's text.
type caret struct {
	line int
	col  int
}

func caretLess(a, b caret) bool {
	return a.line < b.line || (a.line == b.line && a.col < b.col)
}

// ui is the terminal front end. All fields are owned by the event loop
// goroutine; other goroutines reach it only through the tcell queue.
type ui struct {
	app    *App
	screen tcell.Screen

	lines  []visline
	cur    caret
	anchor *caret // selection anchor, nil for a bare caret
	top    int    // first visible line
	status string

	pasting  bool
	pasteBuf []rune

	events chan tcell.Event
	unsubs []func()
}

func newUI(a *App) (*ui, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	return &ui{app: a, screen: screen, events: make(chan tcell.Event, eventQueueSize)}, nil
}

func (u *ui) run() error {
	if err := u.screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer u.screen.Fini()
	u.screen.EnablePaste()
	u.screen.EnableMouse()

	u.subscribe()
	defer u.unsubscribe()

	// PollEvent blocks, so it runs on its own goroutine. Fini makes it
	// return nil, which ends the goroutine after the loop exits.
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case u.events <- ev:
			default:
				// Input the loop cannot keep up with is dropped.
			}
		}
	}()

	u.refresh()
	u.syncSelection()
	u.draw()

	for {
		select {
		case <-u.app.quitCh:
			return errQuit
		case ev := <-u.events:
			if err := u.dispatch(ev); err != nil {
				return err
			}
			u.draw()
		}
	}
}

// subscribe forwards engine events into the terminal event queue.
// Handlers can run while the engine lock is held, so they post and
// return without touching UI state.
func (u *ui) subscribe() {
	bus := u.app.engine.Bus()
	for _, topic := range []event.Topic{
		event.TopicDocumentChanged,
		event.TopicDocumentReplaced,
		event.TopicAutosaveSaved,
		event.TopicAutosaveFailed,
		event.TopicConfigReloaded,
		event.TopicPluginLoaded,
		event.TopicPluginError,
	} {
		off, err := bus.Subscribe(topic, func(ev event.Event) {
			_ = u.screen.PostEvent(tcell.NewEventInterrupt(ev))
		})
		if err == nil {
			u.unsubs = append(u.unsubs, off)
		}
	}
}

func (u *ui) unsubscribe() {
	for _, off := range u.unsubs {
		off()
	}
	u.unsubs = nil
}

func (u *ui) dispatch(ev tcell.Event) error {
	switch t := ev.(type) {
	case *tcell.EventResize:
		u.screen.Sync()
	case *tcell.EventInterrupt:
		if e, ok := t.Data().(event.Event); ok {
			u.consume(e)
		}
	case *tcell.EventPaste:
		if t.Start() {
			u.pasting = true
			u.pasteBuf = u.pasteBuf[:0]
		} else {
			u.pasting = false
			if len(u.pasteBuf) > 0 {
				u.execute(command.CmdInsertText, command.Args{Text: string(u.pasteBuf)})
				u.pasteBuf = u.pasteBuf[:0]
			}
		}
	case *tcell.EventMouse:
		u.handleMouse(t)
	case *tcell.EventKey:
		return u.handleKey(t)
	}
	return nil
}

// consume reacts to engine events once they reach the loop goroutine.
func (u *ui) consume(ev event.Event) {
	switch ev.Topic {
	case event.TopicDocumentChanged, event.TopicDocumentReplaced:
		u.refresh()
	case event.TopicAutosaveSaved:
		if p, ok := ev.Payload.(event.AutosaveSaved); ok {
			u.status = fmt.Sprintf("autosaved %s (%d bytes)", short(p.SessionID), p.Bytes)
		}
	case event.TopicAutosaveFailed:
		if p, ok := ev.Payload.(event.AutosaveFailed); ok {
			u.status = fmt.Sprintf("autosave failed: %v", p.Err)
		}
	case event.TopicConfigReloaded:
		u.status = "configuration reloaded"
	case event.TopicPluginLoaded:
		if p, ok := ev.Payload.(event.PluginLoaded); ok {
			u.status = "plugin loaded: " + p.Name
		}
	case event.TopicPluginError:
		if p, ok := ev.Payload.(event.PluginError); ok {
			u.status = fmt.Sprintf("plugin %s: %s: %v", p.Name, p.Hook, p.Err)
		}
	}
}

func (u *ui) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	switch {
	case ev.Buttons()&tcell.WheelUp != 0:
		u.top = max(0, u.top-3)
	case ev.Buttons()&tcell.WheelDown != 0:
		u.top = min(max(0, len(u.lines)-1), u.top+3)
	case ev.Buttons()&tcell.ButtonPrimary != 0:
		line := u.top + y
		if line < 0 || line >= len(u.lines) {
			return
		}
		col := x - prefixWidth(u.lines[line].prefix)
		u.moveTo(line, max(0, min(col, u.lines[line].length)), ev.Modifiers()&tcell.ModShift != 0)
	}
}

func (u *ui) handleKey(ev *tcell.EventKey) error {
	if u.pasting {
		switch ev.Key() {
		case tcell.KeyRune:
			u.pasteBuf = append(u.pasteBuf, ev.Rune())
		case tcell.KeyEnter:
			u.pasteBuf = append(u.pasteBuf, '\n')
		case tcell.KeyTab:
			u.pasteBuf = append(u.pasteBuf, '\t')
		}
		return nil
	}
	u.status = ""
	shift := ev.Modifiers()&tcell.ModShift != 0

	switch ev.Key() {
	case tcell.KeyCtrlQ:
		return errQuit
	case tcell.KeyCtrlS:
		if err := u.app.SaveSession(); err != nil {
			u.status = fmt.Sprintf("save failed: %v", err)
		} else {
			u.status = "saved session " + short(u.app.SessionID())
		}
	case tcell.KeyCtrlZ:
		u.execute(command.CmdUndo, command.Args{})
	case tcell.KeyCtrlY:
		u.execute(command.CmdRedo, command.Args{})
	case tcell.KeyCtrlB:
		u.execute(command.CmdBold, command.Args{})
	case tcell.KeyCtrlT:
		// Ctrl-I is indistinguishable from Tab in a terminal.
		u.execute(command.CmdItalic, command.Args{})
	case tcell.KeyCtrlU:
		u.execute(command.CmdUnderline, command.Args{})
	case tcell.KeyCtrlD:
		u.execute(command.CmdStrike, command.Args{})
	case tcell.KeyCtrlA:
		u.execute(command.CmdSelectAll, command.Args{})
	case tcell.KeyCtrlX:
		u.execute(command.CmdCut, command.Args{})
	case tcell.KeyCtrlC:
		u.execute(command.CmdCopy, command.Args{})
	case tcell.KeyCtrlV:
		u.execute(command.CmdPaste, command.Args{})
	case tcell.KeyCtrlL:
		u.refresh()
		u.screen.Sync()
	case tcell.KeyEscape:
		u.anchor = nil
		u.syncSelection()
	case tcell.KeyEnter:
		u.splitBlock()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		u.deleteRune(-1)
	case tcell.KeyDelete:
		u.deleteRune(1)
	case tcell.KeyLeft:
		u.move(-1, 0, shift)
	case tcell.KeyRight:
		u.move(1, 0, shift)
	case tcell.KeyUp:
		u.move(0, -1, shift)
	case tcell.KeyDown:
		u.move(0, 1, shift)
	case tcell.KeyHome:
		u.moveTo(u.cur.line, 0, shift)
	case tcell.KeyEnd:
		u.moveTo(u.cur.line, u.lineLen(u.cur.line), shift)
	case tcell.KeyPgUp:
		_, h := u.screen.Size()
		u.move(0, -max(1, h-1), shift)
	case tcell.KeyPgDn:
		_, h := u.screen.Size()
		u.move(0, max(1, h-1), shift)
	case tcell.KeyRune:
		if ev.Modifiers()&tcell.ModAlt != 0 {
			u.altCommand(ev.Rune())
		} else {
			u.execute(command.CmdInsertText, command.Args{Text: string(ev.Rune())})
		}
	}
	return nil
}

// altCommand maps Alt chords to block commands.
func (u *ui) altCommand(r rune) {
	switch {
	case r >= '1' && r <= '6':
		u.execute(command.CmdHeading, command.Args{Level: int(r - '0')})
	case r == '0' || r == 'p':
		u.execute(command.CmdParagraph, command.Args{})
	case r == 'q':
		u.execute(command.CmdBlockquote, command.Args{})
	case r == 'u':
		u.execute(command.CmdUnorderedList, command.Args{})
	case r == 'o':
		u.execute(command.CmdOrderedList, command.Args{})
	case r == 'r':
		u.execute(command.CmdRule, command.Args{})
	case r == 'x':
		u.execute(command.CmdClearFormat, command.Args{})
	default:
		u.status = fmt.Sprintf("unbound: Alt-%c", r)
	}
}

// execute pushes the UI caret into the engine, runs a command against
// it, and pulls the resulting state back.
func (u *ui) execute(name string, args command.Args) {
	u.syncSelection()
	if err := u.app.registry.Execute(u.app.engine, name, args); err != nil {
		u.status = err.Error()
	}
	u.refresh()
}

// refresh recomputes the visual lines and re-derives the caret from the
// engine's live selection.
func (u *ui) refresh() {
	u.rebuild()
	u.syncFromEngine()
}

func (u *ui) lineLen(i int) int {
	if i < 0 || i >= len(u.lines) {
		return 0
	}
	return u.lines[i].length
}

func (u *ui) clampCaret() {
	if len(u.lines) == 0 {
		u.cur = caret{}
		u.anchor = nil
		u.top = 0
		return
	}
	u.cur.line = max(0, min(u.cur.line, len(u.lines)-1))
	u.cur.col = max(0, min(u.cur.col, u.lines[u.cur.line].length))
	if u.anchor != nil {
		if u.anchor.line >= len(u.lines) || u.anchor.col > u.lineLen(u.anchor.line) {
			u.anchor = nil
		}
	}
}

func (u *ui) selectionBounds() (start, end caret, active bool) {
	if u.anchor == nil || *u.anchor == u.cur {
		return caret{}, caret{}, false
	}
	if caretLess(*u.anchor, u.cur) {
		return *u.anchor, u.cur, true
	}
	return u.cur, *u.anchor, true
}

func (u *ui) move(dx, dy int, extend bool) {
	if len(u.lines) == 0 {
		return
	}
	c := u.cur
	switch {
	case dx != 0:
		next, ok := u.step(c, dx)
		if !ok {
			return
		}
		c = next
	case dy != 0:
		c.line = max(0, min(c.line+dy, len(u.lines)-1))
		c.col = min(c.col, u.lineLen(c.line))
	}
	u.moveTo(c.line, c.col, extend)
}

func (u *ui) moveTo(line, col int, extend bool) {
	if extend {
		if u.anchor == nil {
			a := u.cur
			u.anchor = &a
		}
	} else {
		u.anchor = nil
	}
	u.cur = caret{line: line, col: col}
	u.clampCaret()
	u.syncSelection()
}

// step moves one rune left or right, crossing line boundaries.
func (u *ui) step(c caret, dir int) (caret, bool) {
	if len(u.lines) == 0 {
		return c, false
	}
	if dir < 0 {
		if c.col > 0 {
			return caret{line: c.line, col: c.col - 1}, true
		}
		if c.line == 0 {
			return c, false
		}
		return caret{line: c.line - 1, col: u.lineLen(c.line - 1)}, true
	}
	if c.col < u.lineLen(c.line) {
		return caret{line: c.line, col: c.col + 1}, true
	}
	if c.line+1 >= len(u.lines) {
		return c, false
	}
	return caret{line: c.line + 1, col: 0}, true
}

func (u *ui) sameNode(i, j int) bool {
	if i < 0 || j < 0 || i >= len(u.lines) || j >= len(u.lines) {
		return false
	}
	return u.lines[i].block == u.lines[j].block && u.lines[i].item == u.lines[j].item
}

// deleteRune removes the selection when one is active, otherwise one
// rune in the given direction. At a block edge the blocks merge.
func (u *ui) deleteRune(dir int) {
	if _, _, active := u.selectionBounds(); active {
		u.execute(command.CmdDelete, command.Args{})
		return
	}
	target, ok := u.step(u.cur, dir)
	if !ok {
		return
	}
	if !u.sameNode(u.cur.line, target.line) {
		u.merge(dir)
		return
	}
	a := u.cur
	u.anchor = &a
	u.cur = target
	u.execute(command.CmdDelete, command.Args{})
}

// merge joins the caret's block with its neighbor in the given
// direction through a structural edit.
func (u *ui) merge(dir int) {
	into, from := u.cur.line-1, u.cur.line
	if dir > 0 {
		into, from = u.cur.line, u.cur.line+1
	}
	if into < 0 || from >= len(u.lines) {
		return
	}
	intoLn, fromLn := u.lines[into], u.lines[from]
	err := u.app.engine.Edit(func(d *dom.Document, b *selection.Bridge) error {
		dst, ok := lineNode(d, intoLn)
		if !ok {
			return nil
		}
		src, ok := lineNode(d, fromLn)
		if !ok {
			return nil
		}
		return mergeNodes(d, b, dst, src)
	})
	if err != nil {
		u.status = err.Error()
	}
	u.refresh()
}

// splitBlock breaks the block at the caret. Enter inside preformatted
// text stays a literal newline; a list item splits into the next item;
// everything else starts a fresh paragraph.
func (u *ui) splitBlock() {
	if _, _, active := u.selectionBounds(); active {
		u.execute(command.CmdDelete, command.Args{})
	}
	if len(u.lines) == 0 {
		err := u.app.engine.Edit(func(d *dom.Document, b *selection.Bridge) error {
			p := dom.NewElement("p")
			if err := d.AppendChild(d.Root(), p); err != nil {
				return err
			}
			return b.Collapse(selection.Position{Node: p, Offset: 0})
		})
		if err != nil {
			u.status = err.Error()
		}
		u.refresh()
		return
	}
	ln := u.lines[u.cur.line]
	if ln.tag == "pre" {
		u.execute(command.CmdInsertText, command.Args{Text: "\n"})
		return
	}
	off := ln.start + u.cur.col
	err := u.app.engine.Edit(func(d *dom.Document, b *selection.Bridge) error {
		n, ok := lineNode(d, ln)
		if !ok {
			return nil
		}
		return splitNode(d, b, n, off)
	})
	if err != nil {
		u.status = err.Error()
	}
	u.refresh()
}

// syncSelection pushes the UI caret into the engine as the live
// selection. Selection is not content, so this works read-only too.
func (u *ui) syncSelection() {
	cur := u.cur
	anchor := cur
	if u.anchor != nil {
		anchor = *u.anchor
	}
	_ = u.app.engine.View(func(d *dom.Document, b *selection.Bridge) error {
		if len(u.lines) == 0 {
			return b.Collapse(selection.Position{Node: d.Root(), Offset: 0})
		}
		focus, ok := u.position(d, cur)
		if !ok {
			return nil
		}
		if anchor == cur {
			return b.Collapse(focus)
		}
		start, ok := u.position(d, anchor)
		if !ok {
			return b.Collapse(focus)
		}
		return b.Select(start, focus)
	})
}

// syncFromEngine pulls the engine's live selection back into the UI
// caret after a mutation moved it.
func (u *ui) syncFromEngine() {
	type loc struct{ block, item, col int }
	var focus, anchor loc
	haveFocus, haveAnchor := false, false
	_ = u.app.engine.View(func(d *dom.Document, b *selection.Bridge) error {
		sel, ok := b.Live()
		if !ok {
			return nil
		}
		if bl, it, col, ok := locate(d.Root(), sel.Focus); ok {
			focus = loc{bl, it, col}
			haveFocus = true
		}
		if !sel.Collapsed() {
			if bl, it, col, ok := locate(d.Root(), sel.Anchor); ok {
				anchor = loc{bl, it, col}
				haveAnchor = true
			}
		}
		return nil
	})
	if !haveFocus {
		u.clampCaret()
		return
	}
	u.cur = u.findLine(focus.block, focus.item, focus.col)
	if haveAnchor {
		a := u.findLine(anchor.block, anchor.item, anchor.col)
		u.anchor = &a
	} else {
		u.anchor = nil
	}
	u.clampCaret()
}

// position maps a caret to a live position on the document.
func (u *ui) position(d *dom.Document, c caret) (selection.Position, bool) {
	if c.line < 0 || c.line >= len(u.lines) {
		return selection.Position{}, false
	}
	ln := u.lines[c.line]
	n, ok := lineNode(d, ln)
	if !ok {
		return selection.Position{}, false
	}
	return positionAt(n, ln.start+c.col), true
}

// findLine maps a block, item, and flat text offset to a caret. Rows of
// a block split across lines claim their own offset window.
func (u *ui) findLine(block, item, col int) caret {
	for i, ln := range u.lines {
		if ln.block != block || ln.item != item {
			continue
		}
		if col >= ln.start && col <= ln.start+ln.length {
			return caret{line: i, col: col - ln.start}
		}
	}
	for i, ln := range u.lines {
		if ln.block == block && ln.item == item {
			return caret{line: i, col: min(col, ln.length)}
		}
	}
	return caret{}
}

// short trims a session UUID for the status line.
func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
