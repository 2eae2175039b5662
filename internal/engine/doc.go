// Package engine provides the editing core for Inkstorm.
//
// The Engine is the facade over three sub-packages: the structural
// selection addressing (path, selection), the snapshot history
// (history), and the document tree it coordinates (dom). It watches
// document mutations, turns settled bursts of them into debounced
// history snapshots, and drives undo/redo by replaying snapshots without
// re-entering the observation pipeline that records them.
//
// # Architecture
//
//   - path: structural addresses (child-index paths) that survive the
//     death of the node they were captured from
//   - selection: the live anchor/focus pair and its capture/restore
//     bridge into path addresses
//   - history: bounded dual-stack snapshot store with debounced commits
//     and the replay lock
//
// # Thread Safety
//
// All Engine operations are safe for concurrent use; one mutex
// serializes document and selection access. The document and bridge
// themselves are not safe for concurrent use, which is why they are
// only reachable through Edit and View closures:
//
//	e, _ := engine.New(engine.WithContent("<p>hello</p>"))
//	err := e.Edit(func(doc *dom.Document, sel *selection.Bridge) error {
//		return doc.AppendChild(doc.Root(), dom.NewElement("hr"))
//	})
//
// # History Flow
//
// Every observed mutation arms the observation debounce. When it
// settles, the current content and captured selection are pushed to the
// store, which applies its own commit debounce; the two windows compose.
// Programmatic replacement via SetContent commits immediately instead,
// so it can never be lost to a debounce window:
//
//	e.SetContent("<p>draft two</p>") // immediate snapshot
//	e.Undo()                         // back to "<p>hello</p>"
//	e.Redo()                         // forward again
//
// Undo and Redo return false, not an error, when their stack is empty.
// Hosts use CanUndo/CanRedo to disable the corresponding affordance.
//
// # Events
//
// The engine publishes document.changed, document.replaced,
// selection.changed, and history.* events on its bus. Handlers run
// inline, possibly while the engine lock is held: they must treat
// events as signals and never call back into the Engine.
package engine
