package history

import (
	"sync"
	"time"

	"github.com/dshills/inkstorm/internal/engine/path"
)

// Default tuning for new stores.
const (
	DefaultMaxEntries = 1000
	DefaultDebounce   = 300 * time.Millisecond
)

// Store maintains bounded undo and redo stacks of document snapshots.
//
// Pushes are debounced: a burst of non-immediate pushes inside the
// debounce window commits only its newest snapshot. Undo and redo always
// record the state being left on the opposite stack, so the pair is
// reversible at any depth.
type Store struct {
	mu sync.Mutex

	undoStack []Snapshot
	redoStack []Snapshot

	// Pending debounced push. A rearm replaces it wholesale; the timer
	// object is reused across bursts.
	pending *Snapshot
	timer   *time.Timer

	locked bool

	maxEntries int
	debounce   time.Duration

	// onCommit, when set, runs after a snapshot lands on the undo stack.
	// It is invoked without the store lock held. Set at construction only.
	onCommit func(Snapshot)
}

// Option configures a Store.
type Option func(*Store)

// WithMaxEntries sets the undo stack capacity.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithDebounce sets the push debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithCommitHook registers a callback for committed pushes. Deduplicated
// pushes and the bookkeeping appends made by Undo and Redo do not fire it.
func WithCommitHook(fn func(Snapshot)) Option {
	return func(s *Store) {
		s.onCommit = fn
	}
}

// NewStore creates a snapshot store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		maxEntries: DefaultMaxEntries,
		debounce:   DefaultDebounce,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Push records a snapshot of the given content and selection.
//
// When immediate is false the snapshot is held for the debounce window;
// another push inside the window supersedes it. When immediate is true
// any held snapshot is dropped and this one commits synchronously.
//
// Push has no effect while the store is locked.
func (s *Store) Push(content string, selection *path.Range, immediate bool) {
	s.mu.Lock()

	if s.locked {
		s.mu.Unlock()
		return
	}

	snap := Snapshot{
		Content:   content,
		Selection: cloneSelection(selection),
		Timestamp: time.Now(),
	}

	if !immediate {
		s.pending = &snap
		if s.timer != nil {
			s.timer.Reset(s.debounce)
		} else {
			s.timer = time.AfterFunc(s.debounce, s.firePending)
		}
		s.mu.Unlock()
		return
	}

	s.cancelPendingLocked()
	committed := s.commitLocked(snap)

	// Release before the hook so it may call back into the store.
	s.mu.Unlock()
	if committed && s.onCommit != nil {
		s.onCommit(snap.Clone())
	}
}

// firePending commits the held snapshot when the debounce timer expires.
func (s *Store) firePending() {
	s.mu.Lock()

	if s.pending == nil || s.locked {
		s.pending = nil
		s.mu.Unlock()
		return
	}

	snap := *s.pending
	s.pending = nil
	committed := s.commitLocked(snap)

	s.mu.Unlock()
	if committed && s.onCommit != nil {
		s.onCommit(snap.Clone())
	}
}

// commitLocked appends a snapshot to the undo stack and reports whether
// it landed. Identical content to the current top is skipped so settled
// duplicate states never stack up. A commit invalidates the redo stack.
func (s *Store) commitLocked(snap Snapshot) bool {
	if n := len(s.undoStack); n > 0 && s.undoStack[n-1].Content == snap.Content {
		return false
	}

	s.undoStack = append(s.undoStack, snap)
	s.redoStack = nil

	// Enforce capacity, oldest entries first
	if len(s.undoStack) > s.maxEntries {
		excess := len(s.undoStack) - s.maxEntries
		s.undoStack = s.undoStack[excess:]
	}
	return true
}

// cancelPendingLocked drops any held snapshot and disarms its timer.
func (s *Store) cancelPendingLocked() {
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
	}
}

// Undo pops the most recent snapshot, recording the caller's current
// state on the redo stack first so the step is reversible. The second
// return value is false when there is nothing to undo; that is a normal
// terminal outcome, not an error.
func (s *Store) Undo(content string, selection *path.Range) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undoStack) == 0 {
		return Snapshot{}, false
	}

	// A held push describes the state being left. Letting it commit
	// after the pop would clear the redo stack mid-undo; the state is
	// preserved on the redo stack below instead.
	s.cancelPendingLocked()

	s.redoStack = append(s.redoStack, Snapshot{
		Content:   content,
		Selection: cloneSelection(selection),
		Timestamp: time.Now(),
	})

	top := s.undoStack[len(s.undoStack)-1]
	s.undoStack = s.undoStack[:len(s.undoStack)-1]
	return top, true
}

// Redo pops the most recent undone snapshot, recording the caller's
// current state on the undo stack first. The second return value is
// false when there is nothing to redo.
func (s *Store) Redo(content string, selection *path.Range) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redoStack) == 0 {
		return Snapshot{}, false
	}

	s.cancelPendingLocked()

	s.undoStack = append(s.undoStack, Snapshot{
		Content:   content,
		Selection: cloneSelection(selection),
		Timestamp: time.Now(),
	})
	if len(s.undoStack) > s.maxEntries {
		excess := len(s.undoStack) - s.maxEntries
		s.undoStack = s.undoStack[excess:]
	}

	top := s.redoStack[len(s.redoStack)-1]
	s.redoStack = s.redoStack[:len(s.redoStack)-1]
	return top, true
}

// CanUndo returns true if undo is available.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack) > 0
}

// UndoCount returns the number of undo steps available.
func (s *Store) UndoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack)
}

// RedoCount returns the number of redo steps available.
func (s *Store) RedoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack)
}

// Lock suppresses pushes. The caller holds the lock for the duration of
// a snapshot replay so the replay's own mutation is not recorded; Unlock
// must run on every exit path of the replay, normal or not.
func (s *Store) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = true
}

// Unlock re-enables pushes.
func (s *Store) Unlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = false
}

// Locked reports whether pushes are currently suppressed.
func (s *Store) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Clear removes all history and cancels any held push. The debounce
// timer is disarmed so no commit lands after the store is emptied.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPendingLocked()
	s.undoStack = nil
	s.redoStack = nil
}

// Flush commits any held push immediately instead of waiting out the
// debounce window.
func (s *Store) Flush() {
	s.mu.Lock()

	if s.pending == nil {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}

	snap := *s.pending
	s.pending = nil
	committed := s.commitLocked(snap)

	s.mu.Unlock()
	if committed && s.onCommit != nil {
		s.onCommit(snap.Clone())
	}
}

// HasPending reports whether a debounced push is awaiting commit.
func (s *Store) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// PeekUndo returns the snapshot the next Undo would restore without
// removing it.
func (s *Store) PeekUndo() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undoStack) == 0 {
		return Snapshot{}, false
	}
	return s.undoStack[len(s.undoStack)-1].Clone(), true
}

// PeekRedo returns the snapshot the next Redo would restore without
// removing it.
func (s *Store) PeekRedo() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redoStack) == 0 {
		return Snapshot{}, false
	}
	return s.redoStack[len(s.redoStack)-1].Clone(), true
}

// MaxEntries returns the undo stack capacity.
func (s *Store) MaxEntries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxEntries
}

// SetMaxEntries changes the undo stack capacity. If the stack is larger,
// oldest entries are removed.
func (s *Store) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.maxEntries = max

	if len(s.undoStack) > max {
		excess := len(s.undoStack) - max
		s.undoStack = s.undoStack[excess:]
	}
}

// Debounce returns the push debounce window.
func (s *Store) Debounce() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debounce
}

// SetDebounce changes the debounce window. A push already held keeps its
// original deadline.
func (s *Store) SetDebounce(d time.Duration) {
	if d <= 0 {
		d = DefaultDebounce
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.debounce = d
}
