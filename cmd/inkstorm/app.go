package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dshills/inkstorm/internal/command"
	"github.com/dshills/inkstorm/internal/config"
	"github.com/dshills/inkstorm/internal/engine"
	"github.com/dshills/inkstorm/internal/event"
	"github.com/dshills/inkstorm/internal/markdown"
	"github.com/dshills/inkstorm/internal/plugin"
	"github.com/dshills/inkstorm/internal/sanitize"
	"github.com/dshills/inkstorm/internal/session"
)

// errQuit signals a user-requested exit from the event loop.
var errQuit = errors.New("quit")

// appSource tags events published by the application shell.
const appSource = "app"

// Commands the shell adds on top of the built-in registry.
const (
	cmdMarkdownImport = "markdown.import"
	cmdMarkdownExport = "markdown.export"
)

type options struct {
	ConfigPath string
	SessionID  string
	ReadOnly   bool
	ImportPath string
	ExportPath string
}

// App owns every subsystem for one editing session and tears them down
// in reverse order on Shutdown.
type App struct {
	configPath string
	sessionID  string

	engine   *engine.Engine
	registry *command.Registry
	store    *session.FileStore
	plugins  *plugin.Host
	watcher  *config.Watcher

	mu    sync.Mutex // guards cfg and saver across config reloads
	cfg   config.Config
	saver *session.Autosaver

	quitCh   chan struct{}
	quitOnce sync.Once
	downOnce sync.Once
}

func newApp(opts options) (*App, error) {
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = filepath.Join(stateDir(), "config.toml")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(engineOptions(cfg, opts)...)
	if err != nil {
		return nil, err
	}

	a := &App{
		configPath: configPath,
		cfg:        cfg,
		engine:     eng,
		registry:   command.Default(),
		quitCh:     make(chan struct{}),
	}
	registerMarkdownCommands(a.registry)

	dir := cfg.Session.Dir
	if dir == "" {
		dir = filepath.Join(stateDir(), "sessions")
	}
	a.store = session.NewFileStore(dir)

	a.sessionID = opts.SessionID
	if a.sessionID == "" {
		a.sessionID = session.NewID()
	} else if _, err := session.Load(a.store, a.engine, a.sessionID); err != nil {
		// An unknown ID starts a fresh session under that name; anything
		// else (bad ID, corrupt blob, read-only engine) is fatal.
		if !errors.Is(err, session.ErrNotFound) {
			a.engine.Close()
			return nil, fmt.Errorf("resume session %s: %w", a.sessionID, err)
		}
	}

	if cfg.Autosave.Enabled {
		a.saver = session.NewAutosaver(a.engine, a.store, cfg.Autosave.Interval.Std(),
			session.WithSessionID(a.sessionID))
	}

	a.plugins = plugin.NewHost(a.engine, a.registry)
	pluginDir := cfg.Plugins.Dir
	if pluginDir == "" {
		pluginDir = filepath.Join(stateDir(), "plugins")
	}
	if err := a.plugins.LoadDir(pluginDir, cfg.Plugins.Enabled); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: plugins: %v\n", err)
	}

	// Live reload is best effort; an unwatchable path just means edits
	// to the file need a restart.
	if w, err := config.Watch(configPath, a.applyConfig); err == nil {
		a.watcher = w
	}

	return a, nil
}

// engineOptions maps the config file onto engine construction options.
// Zero values stay on the engine's own defaults. The engine leaves
// sanitization to its host, so the allow-list filter is attached here.
func engineOptions(cfg config.Config, opts options) []engine.Option {
	eo := []engine.Option{engine.WithSanitizer(sanitize.Default().Sanitize)}
	if cfg.Editor.MaxLength > 0 {
		eo = append(eo, engine.WithMaxLength(cfg.Editor.MaxLength))
	}
	if p := engine.OverflowPolicy(cfg.Editor.Overflow); p.Valid() {
		eo = append(eo, engine.WithOverflowPolicy(p))
	}
	if cfg.Editor.ReadOnly || opts.ReadOnly {
		eo = append(eo, engine.WithReadOnly())
	}
	if cfg.History.Capacity > 0 {
		eo = append(eo, engine.WithHistoryCapacity(cfg.History.Capacity))
	}
	if d := cfg.History.Debounce.Std(); d > 0 {
		eo = append(eo, engine.WithHistoryDebounce(d))
	}
	if d := cfg.History.ObserveDebounce.Std(); d > 0 {
		eo = append(eo, engine.WithObserveDebounce(d))
	}
	return eo
}

// registerMarkdownCommands adds the Markdown bridge to the command set
// so plugins and key bindings reach it the same way as the built-ins.
func registerMarkdownCommands(reg *command.Registry) {
	_ = reg.Register(cmdMarkdownImport, func(e *engine.Engine, args command.Args) error {
		if args.Text == "" {
			return fmt.Errorf("%w: markdown source required", command.ErrBadArgument)
		}
		return markdown.Import(e, args.Text)
	})
	_ = reg.Register(cmdMarkdownExport, func(e *engine.Engine, args command.Args) error {
		if args.URL == "" {
			return fmt.Errorf("%w: destination path required", command.ErrBadArgument)
		}
		md, err := markdown.Export(e)
		if err != nil {
			return err
		}
		return os.WriteFile(args.URL, []byte(md), 0o644)
	})
}

// applyConfig runs on the watcher goroutine with each validated reload.
func (a *App) applyConfig(c config.Config) {
	a.engine.Retune(c.History.Capacity, c.History.Debounce.Std(), c.History.ObserveDebounce.Std())

	a.mu.Lock()
	prev := a.cfg
	a.cfg = c
	if c.Autosave != prev.Autosave {
		if a.saver != nil {
			_ = a.saver.Close()
			a.saver = nil
		}
		if c.Autosave.Enabled {
			a.saver = session.NewAutosaver(a.engine, a.store, c.Autosave.Interval.Std(),
				session.WithSessionID(a.sessionID))
		}
	}
	a.mu.Unlock()

	_ = a.engine.Bus().Publish(event.NewEvent(event.TopicConfigReloaded,
		event.ConfigReloaded{Path: a.configPath}, appSource))
}

// SessionID returns the identifier saves are written under.
func (a *App) SessionID() string { return a.sessionID }

// SaveSession writes the session now, through the autosaver when one is
// running so its version tracking stays accurate.
func (a *App) SaveSession() error {
	a.mu.Lock()
	saver := a.saver
	a.mu.Unlock()
	if saver != nil {
		return saver.SaveNow()
	}
	_, err := session.Save(a.store, a.engine, a.sessionID)
	return err
}

// ImportMarkdown replaces the session content with the rendering of the
// Markdown file at path and saves the result.
func (a *App) ImportMarkdown(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := a.registry.Execute(a.engine, cmdMarkdownImport, command.Args{Text: string(data)}); err != nil {
		return err
	}
	return a.SaveSession()
}

// ExportMarkdown writes the session content as Markdown to path.
func (a *App) ExportMarkdown(path string) error {
	return a.registry.Execute(a.engine, cmdMarkdownExport, command.Args{URL: path})
}

// Run drives the terminal UI until quit or failure.
func (a *App) Run() error {
	u, err := newUI(a)
	if err != nil {
		return err
	}
	return u.run()
}

// Quit asks the event loop to exit. Safe to call from any goroutine.
func (a *App) Quit() {
	a.quitOnce.Do(func() { close(a.quitCh) })
}

// Shutdown stops every subsystem. The autosaver closes before the
// engine so its final save still sees an open engine.
func (a *App) Shutdown() {
	a.downOnce.Do(func() {
		if a.watcher != nil {
			_ = a.watcher.Close()
		}
		if a.plugins != nil {
			a.plugins.Close()
		}
		a.mu.Lock()
		saver := a.saver
		a.saver = nil
		a.mu.Unlock()
		if saver != nil {
			_ = saver.Close()
		}
		a.engine.Close()
	})
}

// stateDir is where sessions, plugins, and the default config live.
func stateDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".inkstorm"
	}
	return filepath.Join(base, "inkstorm")
}
