package plugin

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/inkstorm/internal/command"
	"github.com/dshills/inkstorm/internal/engine"
	"github.com/dshills/inkstorm/internal/event"
)

// pluginSource tags events published by the plugin host.
const pluginSource = "plugin"

// hookQueueSize bounds pending hook notifications. The queue holds
// signals, not state; when it overflows, notifications are dropped and
// plugins observe the editor's current state on the next one.
const hookQueueSize = 64

type hookEvent struct {
	hook string
	arg  map[string]any
	done chan struct{}
}

// Host loads and runs Lua plugins against one engine and one command
// registry. Hook notifications are delivered on the host's own
// goroutine, so plugin code may call back into the engine freely.
type Host struct {
	engine   *engine.Engine
	registry *command.Registry
	bus      *event.Bus

	mu      sync.Mutex
	plugins map[string]*Plugin
	order   []string
	closed  bool

	hookCh  chan hookEvent
	closeCh chan struct{}
	wg      sync.WaitGroup
	unsubs  []func()
}

// NewHost creates a plugin host wired to the engine's bus: document
// changes and replacements feed on_change hooks, autosaves feed on_save
// hooks.
func NewHost(e *engine.Engine, reg *command.Registry) *Host {
	h := &Host{
		engine:   e,
		registry: reg,
		bus:      e.Bus(),
		plugins:  make(map[string]*Plugin),
		hookCh:   make(chan hookEvent, hookQueueSize),
		closeCh:  make(chan struct{}),
	}

	h.subscribe(event.TopicDocumentChanged, func(ev event.Event) {
		if ch, ok := ev.Payload.(event.DocumentChanged); ok {
			h.enqueue("on_change", map[string]any{"version": ch.Version, "op": ch.Op})
		}
	})
	h.subscribe(event.TopicDocumentReplaced, func(ev event.Event) {
		if rp, ok := ev.Payload.(event.DocumentReplaced); ok {
			h.enqueue("on_change", map[string]any{"version": rp.Version, "restore": rp.Restore})
		}
	})
	h.subscribe(event.TopicAutosaveSaved, func(ev event.Event) {
		if sv, ok := ev.Payload.(event.AutosaveSaved); ok {
			h.enqueue("on_save", map[string]any{"session": sv.SessionID, "bytes": sv.Bytes})
		}
	})

	h.wg.Add(1)
	go h.dispatch()
	return h
}

func (h *Host) subscribe(topic event.Topic, fn event.Handler) {
	unsub, err := h.bus.Subscribe(topic, fn)
	if err != nil {
		return
	}
	h.unsubs = append(h.unsubs, unsub)
}

// enqueue hands a hook notification to the dispatch goroutine. Bus
// handlers must not block, so a full queue drops the signal.
func (h *Host) enqueue(hook string, arg map[string]any) {
	select {
	case h.hookCh <- hookEvent{hook: hook, arg: arg}:
	default:
	}
}

func (h *Host) dispatch() {
	defer h.wg.Done()
	for {
		select {
		case <-h.closeCh:
			return
		case he := <-h.hookCh:
			if he.done != nil {
				close(he.done)
				continue
			}
			for _, p := range h.snapshot() {
				p.callHook(he.hook, he.arg, h.bus)
			}
		}
	}
}

// snapshot returns the loaded plugins in load order.
func (h *Host) snapshot() []*Plugin {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Plugin, 0, len(h.order))
	for _, name := range h.order {
		out = append(out, h.plugins[name])
	}
	return out
}

// Load reads and executes one plugin source file under the given name.
// A plugin that loads cleanly starts enabled. A failed plugin stays
// registered in the failed state with its error recorded, and any
// commands it managed to register are removed again.
func (h *Host) Load(name, path string) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHostClosed
	}
	if _, exists := h.plugins[name]; exists {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPluginExists, name)
	}
	p := &Plugin{
		name:     name,
		path:     path,
		L:        newSandboxedState(),
		state:    StateDisabled,
		hooks:    make(map[string]*lua.LFunction),
		cmdFuncs: make(map[string]*lua.LFunction),
	}
	h.plugins[name] = p
	h.order = append(h.order, name)
	h.mu.Unlock()

	p.mu.Lock()
	h.installAPI(p)
	err := h.doFile(p, path)
	if err != nil {
		p.state = StateFailed
		p.err = err
		for _, cmd := range p.cmdOrder {
			h.registry.Unregister(cmd)
		}
		p.cmdOrder = nil
		p.cmdFuncs = make(map[string]*lua.LFunction)
		p.hooks = make(map[string]*lua.LFunction)
		p.mu.Unlock()
		_ = h.bus.Publish(event.NewEvent(event.TopicPluginError,
			event.PluginError{Name: name, Hook: "load", Err: err}, pluginSource))
		return fmt.Errorf("plugin %s: %w", name, err)
	}
	p.state = StateEnabled
	p.mu.Unlock()

	_ = h.bus.Publish(event.NewEvent(event.TopicPluginLoaded,
		event.PluginLoaded{Name: name}, pluginSource))
	return nil
}

// doFile executes the plugin source with panic recovery.
func (h *Host) doFile(p *Plugin, path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return p.L.DoFile(path)
}

// LoadDir loads every plugin under dir: single-file plugins (name.lua)
// and directory plugins (name/init.lua). When enabled is non-empty,
// only the named plugins load. Individual load failures are recorded on
// the plugin and published as plugin.error events; only an unreadable
// directory fails the scan. A missing directory is not an error.
func (h *Host) LoadDir(dir string, enabled []string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("plugin dir: %w", err)
	}

	var want map[string]bool
	if len(enabled) > 0 {
		want = make(map[string]bool, len(enabled))
		for _, name := range enabled {
			want[name] = true
		}
	}

	for _, entry := range entries {
		var name, path string
		switch {
		case entry.IsDir():
			name = entry.Name()
			path = filepath.Join(dir, name, "init.lua")
			if _, err := os.Stat(path); err != nil {
				continue
			}
		case strings.HasSuffix(entry.Name(), ".lua"):
			name = strings.TrimSuffix(entry.Name(), ".lua")
			path = filepath.Join(dir, entry.Name())
		default:
			continue
		}
		if want != nil && !want[name] {
			continue
		}
		// Load records failures on the plugin itself; the scan goes on.
		_ = h.Load(name, path)
	}
	return nil
}

// Get returns the plugin loaded under name.
func (h *Host) Get(name string) (*Plugin, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.plugins[name]
	return p, ok
}

// Names returns loaded plugin names in load order, failed ones included.
func (h *Host) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

// Enable re-activates a disabled plugin: its hooks fire again and its
// commands are re-registered. Enabling an enabled plugin is a no-op;
// a failed plugin cannot be enabled.
func (h *Host) Enable(name string) error {
	p, err := h.lookup(name)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateEnabled:
		return nil
	case StateFailed:
		return fmt.Errorf("%w: %s: %v", ErrPluginFailed, name, p.err)
	}
	for _, cmd := range p.cmdOrder {
		if err := h.registry.Register(cmd, h.wrapCommand(p, cmd, p.cmdFuncs[cmd])); err != nil {
			_ = h.bus.Publish(event.NewEvent(event.TopicPluginError,
				event.PluginError{Name: name, Hook: "enable", Err: err}, pluginSource))
		}
	}
	p.state = StateEnabled
	return nil
}

// Disable deactivates a plugin: hooks stop firing and its commands are
// unregistered. The Lua state is kept, so Enable restores it as it was.
func (h *Host) Disable(name string) error {
	p, err := h.lookup(name)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateEnabled {
		return nil
	}
	for _, cmd := range p.cmdOrder {
		h.registry.Unregister(cmd)
	}
	p.state = StateDisabled
	return nil
}

func (h *Host) lookup(name string) (*Plugin, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHostClosed
	}
	p, ok := h.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return p, nil
}

// wrapCommand adapts a Lua handler to the registry's command shape.
func (h *Host) wrapCommand(p *Plugin, name string, fn *lua.LFunction) command.Func {
	return func(_ *engine.Engine, args command.Args) error {
		return p.invoke(name, fn, args)
	}
}

// Flush waits until every hook notification enqueued before the call
// has been dispatched. Tests use it instead of polling.
func (h *Host) Flush() {
	done := make(chan struct{})
	select {
	case h.hookCh <- hookEvent{done: done}:
	case <-h.closeCh:
		return
	}
	select {
	case <-done:
	case <-h.closeCh:
	}
}

// Close unsubscribes from the bus, stops the dispatch goroutine,
// unregisters every plugin command, and closes the Lua states. Close is
// idempotent.
func (h *Host) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	unsubs := h.unsubs
	h.unsubs = nil
	plugins := make([]*Plugin, 0, len(h.order))
	for _, name := range h.order {
		plugins = append(plugins, h.plugins[name])
	}
	h.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	close(h.closeCh)
	h.wg.Wait()

	for _, p := range plugins {
		p.mu.Lock()
		for _, cmd := range p.cmdOrder {
			h.registry.Unregister(cmd)
		}
		if p.state == StateEnabled {
			p.state = StateDisabled
		}
		p.L.Close()
		p.mu.Unlock()
	}
}
