// Package session persists editor state across process restarts.
//
// A session is one snapshot of the engine (serialized content, an
// optional selection address, a timestamp) stored under a stable ID.
// The wire format is JSON with the same selection shape the history
// layer serializes, so blobs interchange with any host that speaks it.
//
// # Stores
//
// Store is a small blob interface. FileStore keeps one file per
// session under a directory and writes through a rename so saves are
// atomic; MemStore backs tests.
//
// # Autosave
//
// Autosaver snapshots the engine on a fixed ticker, skipping writes
// while the document version is unchanged. Results surface as
// autosave.saved and autosave.failed events on the engine's bus.
//
//	store := session.NewFileStore(cfg.Session.Dir)
//	saver := session.NewAutosaver(eng, store, cfg.Autosave.Interval.Std())
//	defer saver.Close()
package session
