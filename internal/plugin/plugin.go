package plugin

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/inkstorm/internal/command"
	"github.com/dshills/inkstorm/internal/event"
)

// State is the lifecycle state of a loaded plugin.
type State int

const (
	// StateEnabled means hooks fire and registered commands run.
	StateEnabled State = iota

	// StateDisabled means the plugin is loaded but dormant.
	StateDisabled

	// StateFailed means the plugin's source did not load.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Plugin is one loaded Lua plugin. A plugin owns a sandboxed Lua state;
// mu serializes every entry into it (load, hooks, command invocations).
// The API closures installed on the state run inside one of those
// entries, so they touch plugin fields without relocking.
type Plugin struct {
	name string
	path string

	mu       sync.Mutex
	L        *lua.LState
	state    State
	err      error
	hooks    map[string]*lua.LFunction
	cmdFuncs map[string]*lua.LFunction
	cmdOrder []string
}

// Name returns the plugin's registered name.
func (p *Plugin) Name() string { return p.name }

// Path returns the source file the plugin was loaded from.
func (p *Plugin) Path() string { return p.path }

// State returns the plugin's lifecycle state.
func (p *Plugin) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the load error for a failed plugin, nil otherwise.
func (p *Plugin) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Commands returns the command names the plugin has registered, in
// registration order.
func (p *Plugin) Commands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.cmdOrder...)
}

// callHook runs one registered hook with the given payload. Hook
// failures are published as plugin.error events and never propagate.
func (p *Plugin) callHook(hook string, arg map[string]any, bus *event.Bus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateEnabled {
		return
	}
	fn := p.hooks[hook]
	if fn == nil {
		return
	}

	p.L.Push(fn)
	p.L.Push(mapToTable(p.L, arg))
	if err := p.pcall(1); err != nil {
		_ = bus.Publish(event.NewEvent(event.TopicPluginError,
			event.PluginError{Name: p.name, Hook: hook, Err: err}, pluginSource))
	}
}

// invoke runs a plugin-registered command handler.
func (p *Plugin) invoke(name string, fn *lua.LFunction, args command.Args) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateEnabled {
		return fmt.Errorf("%w: %s", ErrPluginDisabled, p.name)
	}
	p.L.Push(fn)
	p.L.Push(argsToTable(p.L, args))
	if err := p.pcall(1); err != nil {
		return fmt.Errorf("plugin %s: command %s: %w", p.name, name, err)
	}
	return nil
}

// pcall calls the function already pushed on the Lua stack with nargs
// arguments, recovering panics from the Lua runtime.
func (p *Plugin) pcall(nargs int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return p.L.PCall(nargs, 0, nil)
}
