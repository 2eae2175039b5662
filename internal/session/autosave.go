package session

import (
	"sync"
	"time"

	"github.com/dshills/inkstorm/internal/engine"
	"github.com/dshills/inkstorm/internal/event"
)

// autosaveSource tags events published by the autosaver.
const autosaveSource = "autosave"

// Autosaver periodically writes the engine's state to a session store.
// It runs one goroutine; Close stops it. Outcomes are published on the
// engine's bus as autosave.saved and autosave.failed events.
type Autosaver struct {
	engine   *engine.Engine
	store    Store
	id       string
	interval time.Duration

	mu        sync.Mutex
	lastSaved uint64
	haveSaved bool
	closed    bool

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// AutosaveOption configures an Autosaver.
type AutosaveOption func(*Autosaver)

// WithSessionID pins the session ID instead of generating a fresh one.
// Hosts use it to keep writing the session they resumed from.
func WithSessionID(id string) AutosaveOption {
	return func(a *Autosaver) {
		if id != "" {
			a.id = id
		}
	}
}

// NewAutosaver starts autosaving e to st every interval. An interval of
// zero or less starts no ticker; SaveNow remains usable.
func NewAutosaver(e *engine.Engine, st Store, interval time.Duration, opts ...AutosaveOption) *Autosaver {
	a := &Autosaver{
		engine:   e,
		store:    st,
		id:       NewID(),
		interval: interval,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if interval > 0 {
		a.wg.Add(1)
		go a.loop()
	}
	return a
}

// ID returns the session ID saves are written under.
func (a *Autosaver) ID() string { return a.id }

// Interval returns the configured tick interval.
func (a *Autosaver) Interval() time.Duration { return a.interval }

// SaveNow persists immediately, regardless of the ticker schedule and
// of whether the document changed since the last save.
func (a *Autosaver) SaveNow() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrAutosaverClosed
	}
	a.mu.Unlock()
	return a.save(true)
}

// Close stops the autosave goroutine. No final save is written; hosts
// that want one call SaveNow first. Close is idempotent.
func (a *Autosaver) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()
	close(a.closeCh)
	a.wg.Wait()
	return nil
}

func (a *Autosaver) loop() {
	defer a.wg.Done()
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.closeCh:
			return
		case <-ticker.C:
			_ = a.save(false)
		}
	}
}

// save writes one session blob. Ticker saves skip when the document
// version is unchanged since the last write; forced saves never skip.
func (a *Autosaver) save(force bool) error {
	v := a.engine.Version()
	a.mu.Lock()
	skip := !force && a.haveSaved && v == a.lastSaved
	a.mu.Unlock()
	if skip {
		return nil
	}

	n, err := Save(a.store, a.engine, a.id)
	bus := a.engine.Bus()
	if err != nil {
		_ = bus.Publish(event.NewEvent(event.TopicAutosaveFailed,
			event.AutosaveFailed{SessionID: a.id, Err: err}, autosaveSource))
		return err
	}

	a.mu.Lock()
	a.lastSaved = v
	a.haveSaved = true
	a.mu.Unlock()

	_ = bus.Publish(event.NewEvent(event.TopicAutosaveSaved,
		event.AutosaveSaved{SessionID: a.id, Bytes: n}, autosaveSource))
	return nil
}
