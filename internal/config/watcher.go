package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDebounce coalesces the event bursts editors produce when
// saving (truncate-then-write, or write-temp-then-rename).
const DefaultReloadDebounce = 100 * time.Millisecond

// ReloadFunc receives the freshly loaded configuration after a change
// settles.
type ReloadFunc func(Config)

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithReloadDebounce sets the quiet period before a change triggers a
// reload.
func WithReloadDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithErrorHandler receives reload failures (unreadable or invalid
// file). The previous configuration stays in effect either way; without
// a handler, failures are dropped.
func WithErrorHandler(fn func(error)) WatchOption {
	return func(w *Watcher) {
		if fn != nil {
			w.onError = fn
		}
	}
}

// Watcher reloads a configuration file when it changes on disk.
type Watcher struct {
	path     string
	fw       *fsnotify.Watcher
	fn       ReloadFunc
	onError  func(error)
	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	closed bool

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Watch starts watching path and calls fn with the reloaded
// configuration after each on-disk change settles. The file's directory
// is watched rather than the file itself, so atomic-rename saves keep
// working.
func Watch(path string, fn ReloadFunc, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     abs,
		fw:       fw,
		fn:       fn,
		debounce: DefaultReloadDebounce,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Path returns the watched file path.
func (w *Watcher) Path() string { return w.path }

// Close stops the watcher. A pending debounced reload is dropped. Close
// is idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	close(w.closeCh)
	err := w.fw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.fail(err)
		}
	}
}

// handle arms (or re-arms) the debounce timer for events touching the
// watched file.
func (w *Watcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	w.mu.Unlock()

	cfg, err := Load(w.path)
	if err != nil {
		w.fail(err)
		return
	}
	w.fn(cfg)
}

func (w *Watcher) fail(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
