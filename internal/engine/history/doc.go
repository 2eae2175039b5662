// Package history provides bounded, debounced undo/redo for document
// snapshots.
//
// Unlike command-based histories that record individual operations, this
// store keeps full snapshots: the serialized document content plus an
// optional structural selection address. Restoring a snapshot is therefore
// a wholesale content replacement, which is why selection is stored as a
// path address rather than a live node reference.
//
// # Snapshots
//
// A Snapshot captures {content, selection, timestamp}. The selection is
// opaque to the store; it is captured and restored by the selection bridge
// and merely carried here.
//
// # Debounced Push
//
// Rapid successive pushes within the debounce window collapse into one
// committed entry, the newest:
//
//	store := NewStore()
//	store.Push(a, nil, false) // arms timer
//	store.Push(b, nil, false) // rearms; a is superseded
//	// ...window elapses: only b commits
//
// Immediate pushes bypass the window and cancel any pending commit. They
// are used for the initial snapshot and for programmatic full-content
// replacement, where losing the state to debounce would be unacceptable.
//
// # Lock Discipline
//
// Replaying a snapshot mutates the document, and that mutation is observed
// by the same pipeline that records history. Callers must wrap every
// replay in Lock/Unlock so the replay's own write is not pushed back onto
// the stack:
//
//	store.Lock()
//	defer store.Unlock()
//	// apply snapshot content and selection
//
// Pushes made while locked have no effect on either stack.
package history
