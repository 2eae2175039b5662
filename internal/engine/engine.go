package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine/history"
	"github.com/dshills/inkstorm/internal/engine/path"
	"github.com/dshills/inkstorm/internal/engine/selection"
	"github.com/dshills/inkstorm/internal/event"
)

// Re-export commonly used types for convenience.
type (
	// Path is a structural address from the document root.
	Path = path.Path

	// Range is a serialized selection (two addresses plus offsets).
	Range = path.Range

	// Position is a live selection endpoint (node plus offset).
	Position = selection.Position

	// Selection is the live anchor/focus pair.
	Selection = selection.Selection

	// Snapshot is one history entry (content, selection, timestamp).
	Snapshot = history.Snapshot
)

// eventSource tags events published by the engine.
const eventSource = "engine"

// Engine is the editing facade: it owns one document tree, the live
// selection bridge, and the snapshot history, and coordinates them so
// that mutations become debounced history entries and undo/redo replays
// never re-enter the history they came from.
//
// All operations are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	// Core components
	doc    *dom.Document
	bridge *selection.Bridge
	store  *history.Store
	bus    *event.Bus

	// Mutation observation. The observation debounce coalesces a burst
	// of tree mutations into one history push; it composes with the
	// store's own commit debounce.
	obsMu      sync.Mutex
	obsTimer   *time.Timer
	obsPending bool
	obsGen     uint64
	obsDelay   time.Duration

	removeObserver func()
	closed         bool

	// Configuration
	sanitize  func(string) string
	maxLength int
	overflow  OverflowPolicy
	readOnly  bool

	// Initialization
	initContent     string
	historyCapacity int
	historyDebounce time.Duration
}

// New creates an Engine with the given options. The initial content is
// recorded as an immediate history snapshot, so the first edit is always
// undoable back to it. New fails when the initial content does not parse
// or exceeds the maximum length under the reject policy.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		obsDelay:        DefaultObserveDebounce,
		overflow:        OverflowReject,
		historyCapacity: history.DefaultMaxEntries,
		historyDebounce: history.DefaultDebounce,
	}

	// Apply options to get configuration
	for _, opt := range opts {
		opt(e)
	}
	if e.bus == nil {
		e.bus = event.NewBus()
	}

	e.doc = dom.NewDocument()
	e.bridge = selection.NewBridge(e.doc)
	e.bridge.OnChange(e.selectionChanged)
	e.store = history.NewStore(
		history.WithMaxEntries(e.historyCapacity),
		history.WithDebounce(e.historyDebounce),
		history.WithCommitHook(e.snapshotCommitted),
	)
	e.removeObserver = e.doc.Observe(e.onMutation)

	if err := e.setContentLocked(e.initContent); err != nil {
		return nil, err
	}
	return e, nil
}

// ============================================================================
// Content Operations
// ============================================================================

// Content returns the serialized document: the inner HTML of the root
// container. History and session layers treat this string as opaque.
func (e *Engine) Content() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.HTML()
}

// TextContent returns the document's plain-text projection.
func (e *Engine) TextContent() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.TextContent()
}

// Length returns the document's text length in grapheme clusters. This
// is the unit the maximum-length policy is measured in.
func (e *Engine) Length() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return dom.TextLength(e.doc.Root())
}

// Headroom returns how many grapheme clusters may still be typed before
// the maximum length is reached, or -1 when no maximum is configured.
func (e *Engine) Headroom() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.maxLength <= 0 {
		return -1
	}
	h := e.maxLength - dom.TextLength(e.doc.Root())
	if h < 0 {
		return 0
	}
	return h
}

// Version returns the document version. It increases by one for every
// observed mutation.
func (e *Engine) Version() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Version()
}

// SetContent replaces the whole document. The content passes through the
// configured sanitizer, the maximum-length policy is enforced, and the
// result is recorded as an immediate history snapshot so a programmatic
// replacement can never be lost to debounce.
func (e *Engine) SetContent(raw string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if e.readOnly {
		return ErrReadOnly
	}
	return e.setContentLocked(raw)
}

// ============================================================================
// Transactions
// ============================================================================

// Edit runs fn with exclusive access to the document and selection
// bridge. All content mutations go through Edit (directly or via the
// command layer); mutations made inside fn are observed and scheduled
// for a debounced history push. fn must not retain either argument and
// must not call other Engine methods.
func (e *Engine) Edit(fn func(doc *dom.Document, sel *selection.Bridge) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if e.readOnly {
		return ErrReadOnly
	}
	return fn(e.doc, e.bridge)
}

// View runs fn with shared access rules but no write gate: it works on a
// read-only engine. fn must not mutate the document; mutations would
// still be observed but would bypass the read-only contract.
func (e *Engine) View(fn func(doc *dom.Document, sel *selection.Bridge) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	return fn(e.doc, e.bridge)
}

// ============================================================================
// Selection Operations
// ============================================================================

// Selection returns a copy of the live selection endpoints. The second
// return value is false when nothing is selected.
func (e *Engine) Selection() (Selection, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Selection{}, false
	}
	return e.bridge.Live()
}

// CaptureSelection serializes the live selection into a structural
// address range. False when there is no selection or it lies outside
// the editor root.
func (e *Engine) CaptureSelection() (Range, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Range{}, false
	}
	return e.bridge.Capture()
}

// RestoreSelection resolves a serialized range against the current tree
// and installs it as the live selection. False when either endpoint no
// longer resolves; the live selection is left untouched in that case.
func (e *Engine) RestoreSelection(r Range) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	return e.bridge.Restore(r)
}

// ClearSelection drops the live selection.
func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.bridge.Clear()
}

// ============================================================================
// Undo/Redo Operations
// ============================================================================

// Undo replays the most recent history snapshot. It returns false when
// there is nothing to undo or the engine is closed or read-only; that is
// a normal outcome, not an error. The state being left is recorded on
// the redo stack first, so Undo followed by Redo restores it exactly.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.readOnly {
		return false
	}

	snap, ok := e.store.Undo(e.doc.HTML(), e.captureLocked())
	if !ok {
		return false
	}
	e.cancelObservationLocked()

	restored, applied := e.applySnapshotLocked(snap)
	if !applied {
		// Put the entry back; the document was not touched.
		e.store.Redo(snap.Content, snap.Selection)
		return false
	}

	e.publishStep(event.TopicHistoryUndo, restored)
	e.publish(event.TopicDocumentReplaced, event.DocumentReplaced{
		Version: e.doc.Version(),
		Restore: true,
	})
	return true
}

// Redo replays the most recently undone snapshot. It returns false when
// there is nothing to redo or the engine is closed or read-only.
func (e *Engine) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.readOnly {
		return false
	}

	snap, ok := e.store.Redo(e.doc.HTML(), e.captureLocked())
	if !ok {
		return false
	}
	e.cancelObservationLocked()

	restored, applied := e.applySnapshotLocked(snap)
	if !applied {
		e.store.Undo(snap.Content, snap.Selection)
		return false
	}

	e.publishStep(event.TopicHistoryRedo, restored)
	e.publish(event.TopicDocumentReplaced, event.DocumentReplaced{
		Version: e.doc.Version(),
		Restore: true,
	})
	return true
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	return e.store.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	return e.store.CanRedo()
}

// UndoCount returns the number of available undo snapshots.
func (e *Engine) UndoCount() int {
	return e.store.UndoCount()
}

// RedoCount returns the number of available redo snapshots.
func (e *Engine) RedoCount() int {
	return e.store.RedoCount()
}

// ClearHistory discards all undo/redo snapshots, then records the
// current state as a fresh baseline, leaving the engine in the same
// history state as a newly constructed one.
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.cancelObservationLocked()
	e.store.Clear()
	e.publish(event.TopicHistoryCleared, nil)
	e.store.Push(e.doc.HTML(), e.captureLocked(), true)
}

// Flush commits any pending observation and any held debounced snapshot
// synchronously. Tests and teardown paths use it instead of waiting out
// the debounce timers.
func (e *Engine) Flush() {
	e.fireObservation()
	e.store.Flush()
}

// ============================================================================
// Configuration
// ============================================================================

// Bus returns the engine's event bus.
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// ReadOnly returns true if the engine rejects writes.
func (e *Engine) ReadOnly() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readOnly
}

// MaxLength returns the configured maximum text length in grapheme
// clusters, or zero when unlimited.
func (e *Engine) MaxLength() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxLength
}

// Overflow returns the configured overflow policy.
func (e *Engine) Overflow() OverflowPolicy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.overflow
}

// Retune adjusts the tunable debounces and the history capacity at
// runtime, for live configuration reload. Non-positive values leave the
// corresponding setting unchanged.
func (e *Engine) Retune(historyCapacity int, historyDebounce, observeDebounce time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	if historyCapacity > 0 {
		e.store.SetMaxEntries(historyCapacity)
	}
	if historyDebounce > 0 {
		e.store.SetDebounce(historyDebounce)
	}
	if observeDebounce > 0 {
		e.obsMu.Lock()
		e.obsDelay = observeDebounce
		e.obsMu.Unlock()
	}
}

// ============================================================================
// Lifecycle
// ============================================================================

// Close tears the engine down: the mutation observer is removed, any
// pending debounced snapshot is dropped, and history is discarded.
// Close is idempotent; operations after Close fail with ErrEngineClosed
// or report false.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	e.removeObserver()
	e.cancelObservationLocked()
	e.store.Clear()
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// ============================================================================
// Mutation Observation
// ============================================================================

// onMutation runs synchronously inside every observed document change,
// under the engine lock.
func (e *Engine) onMutation(ch dom.Change) {
	// Replay mutations carry the store lock; recording them would
	// corrupt the stacks with the state being restored.
	if e.closed || e.store.Locked() {
		return
	}
	e.publish(event.TopicDocumentChanged, event.DocumentChanged{
		Version: ch.Version,
		Op:      ch.Op.String(),
	})
	e.scheduleObservation()
}

// scheduleObservation arms or re-arms the observation debounce.
func (e *Engine) scheduleObservation() {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()

	e.obsPending = true
	if e.obsTimer == nil {
		e.obsTimer = time.AfterFunc(e.obsDelay, e.fireObservation)
		return
	}
	e.obsTimer.Reset(e.obsDelay)
}

// cancelObservationLocked drops any armed observation. The generation
// bump invalidates a fire that already consumed the pending flag but has
// not yet taken the engine lock. Caller holds e.mu.
func (e *Engine) cancelObservationLocked() {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()

	e.obsPending = false
	e.obsGen++
	if e.obsTimer != nil {
		e.obsTimer.Stop()
	}
}

// fireObservation commits the armed observation: it captures the current
// content and selection and hands them to the store as a debounced push.
// Runs on the timer goroutine and from Flush.
func (e *Engine) fireObservation() {
	e.obsMu.Lock()
	if !e.obsPending {
		e.obsMu.Unlock()
		return
	}
	e.obsPending = false
	gen := e.obsGen
	e.obsMu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// An undo, clear, or close may have invalidated the observation
	// between consuming the flag and acquiring the engine lock.
	e.obsMu.Lock()
	stale := gen != e.obsGen
	e.obsMu.Unlock()
	if stale || e.closed {
		return
	}

	// The push happens under the engine lock so the captured state
	// cannot be superseded before the store records it.
	e.store.Push(e.doc.HTML(), e.captureLocked(), false)
}

// ============================================================================
// Internal Helpers
// ============================================================================

// setContentLocked parses, gates, and installs raw as the new document
// content, then records it as an immediate snapshot. Caller holds e.mu.
func (e *Engine) setContentLocked(raw string) error {
	if e.sanitize != nil {
		raw = e.sanitize(raw)
	}
	nodes, err := dom.ParseFragment(raw)
	if err != nil {
		return err
	}
	if e.maxLength > 0 {
		if n := dom.TextLength(nodes...); n > e.maxLength {
			if e.overflow == OverflowTruncate {
				nodes = dom.TruncateText(nodes, e.maxLength)
			} else {
				return fmt.Errorf("%w: %d > %d", ErrContentTooLong, n, e.maxLength)
			}
		}
	}
	if err := e.doc.ReplaceChildren(e.doc.Root(), nodes...); err != nil {
		return err
	}
	e.bridge.Clear()

	// The replacement itself armed the observation debounce; the
	// immediate push below fully accounts for it.
	e.cancelObservationLocked()
	e.store.Push(e.doc.HTML(), nil, true)

	e.publish(event.TopicDocumentReplaced, event.DocumentReplaced{
		Version: e.doc.Version(),
		Restore: false,
	})
	return nil
}

// applySnapshotLocked replays a snapshot into the live document with the
// store locked, so the replay's own mutations are not recorded. The
// deferred unlock runs on every exit path. Caller holds e.mu.
func (e *Engine) applySnapshotLocked(snap history.Snapshot) (selRestored, applied bool) {
	e.store.Lock()
	defer e.store.Unlock()

	if err := e.doc.SetHTML(snap.Content); err != nil {
		return false, false
	}
	e.bridge.Clear()
	if snap.Selection != nil {
		// A miss means the address no longer resolves; content is
		// kept and the selection is simply not restored.
		selRestored = e.bridge.Restore(*snap.Selection)
	}
	return selRestored, true
}

// captureLocked serializes the live selection, nil when there is none.
// Caller holds e.mu.
func (e *Engine) captureLocked() *path.Range {
	r, ok := e.bridge.Capture()
	if !ok {
		return nil
	}
	return &r
}

// selectionChanged is the bridge's change callback; it runs under e.mu.
func (e *Engine) selectionChanged() {
	live, ok := e.bridge.Live()
	e.publish(event.TopicSelectionChanged, event.SelectionChanged{
		Active:    ok,
		Collapsed: ok && live.Collapsed(),
	})
}

// snapshotCommitted is the store's commit hook; the store lock is not
// held, so querying the store back is safe.
func (e *Engine) snapshotCommitted(history.Snapshot) {
	e.publish(event.TopicHistoryPushed, event.HistoryPushed{
		UndoDepth: e.store.UndoCount(),
	})
}

// publishStep reports a completed undo or redo replay.
func (e *Engine) publishStep(topic event.Topic, restored bool) {
	e.publish(topic, event.HistoryStep{
		UndoDepth:         e.store.UndoCount(),
		RedoDepth:         e.store.RedoCount(),
		SelectionRestored: restored,
	})
}

// publish sends an event on the bus. Handlers run inline, possibly under
// the engine lock, and must treat events as signals only; calling back
// into the Engine deadlocks.
func (e *Engine) publish(topic event.Topic, payload any) {
	_ = e.bus.Publish(event.NewEvent(topic, payload, eventSource))
}
