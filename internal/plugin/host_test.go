package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/inkstorm/internal/command"
	"github.com/dshills/inkstorm/internal/dom"
	"github.com/dshills/inkstorm/internal/engine"
	"github.com/dshills/inkstorm/internal/engine/selection"
	"github.com/dshills/inkstorm/internal/event"
)

func newHost(t *testing.T, content string) (*engine.Engine, *command.Registry, *Host) {
	t.Helper()
	e, err := engine.New(
		engine.WithContent(content),
		engine.WithHistoryDebounce(time.Millisecond),
		engine.WithObserveDebounce(time.Millisecond),
	)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(e.Close)

	reg := command.Default()
	h := NewHost(e, reg)
	t.Cleanup(h.Close)
	return e, reg, h
}

func writePlugin(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name+".lua")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write plugin: %v", err)
	}
	return path
}

// placeCaret collapses the selection at the given rune offset of the
// first text leaf, so insert commands have somewhere to land.
func placeCaret(t *testing.T, e *engine.Engine, at int) {
	t.Helper()
	err := e.Edit(func(doc *dom.Document, sel *selection.Bridge) error {
		block, ok := doc.Root().ChildAt(0).(*dom.Element)
		if !ok {
			t.Fatal("first child is not an element")
		}
		leaf := block.ChildAt(0)
		return sel.Select(
			selection.Position{Node: leaf, Offset: at},
			selection.Position{Node: leaf, Offset: at},
		)
	})
	if err != nil {
		t.Fatalf("place caret: %v", err)
	}
}

// luaGlobal reads a global out of a plugin's state. Tests call it only
// after Flush, when the dispatch goroutine is quiescent.
func luaGlobal(t *testing.T, p *Plugin, name string) lua.LValue {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.L.GetGlobal(name)
}

// subscribe collects events for a topic without ever blocking the
// publisher.
func subscribe(t *testing.T, e *engine.Engine, topic event.Topic) <-chan event.Event {
	t.Helper()
	ch := make(chan event.Event, 8)
	unsub, err := e.Bus().Subscribe(topic, func(ev event.Event) {
		select {
		case ch <- ev:
		default:
		}
	})
	if err != nil {
		t.Fatalf("subscribe %s: %v", topic, err)
	}
	t.Cleanup(unsub)
	return ch
}

func TestLoadRunsPlugin(t *testing.T) {
	e, _, h := newHost(t, "<p>hello</p>")
	loaded := subscribe(t, e, event.TopicPluginLoaded)

	path := writePlugin(t, t.TempDir(), "greet", `greeted = "yes"`)
	if err := h.Load("greet", path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	p, ok := h.Get("greet")
	if !ok {
		t.Fatal("Get(greet) = false after Load")
	}
	if p.State() != StateEnabled {
		t.Errorf("State() = %v, want %v", p.State(), StateEnabled)
	}
	if p.Path() != path {
		t.Errorf("Path() = %q, want %q", p.Path(), path)
	}
	if got := luaGlobal(t, p, "greeted"); got != lua.LString("yes") {
		t.Errorf("greeted = %v, want yes", got)
	}

	select {
	case ev := <-loaded:
		pl, ok := ev.Payload.(event.PluginLoaded)
		if !ok || pl.Name != "greet" {
			t.Errorf("plugin.loaded payload = %#v", ev.Payload)
		}
	default:
		t.Error("no plugin.loaded event")
	}
}

func TestPluginCommandRuns(t *testing.T) {
	e, reg, h := newHost(t, "<p>hello</p>")

	path := writePlugin(t, t.TempDir(), "shout", `
inkstorm.register_command("text.shout", function(args)
	local ok, err = inkstorm.execute("insert.text", { text = string.upper(args.text) })
	if not ok then
		error(err)
	end
end)
`)
	if err := h.Load("shout", path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	p, _ := h.Get("shout")
	if got := p.Commands(); !reflect.DeepEqual(got, []string{"text.shout"}) {
		t.Errorf("Commands() = %v, want [text.shout]", got)
	}

	placeCaret(t, e, 5)
	if err := reg.Execute(e, "text.shout", command.Args{Text: "abc"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := e.Content(); !strings.Contains(got, "helloABC") {
		t.Errorf("Content() = %q, want helloABC inserted", got)
	}
}

func TestExecuteUnknownFromLua(t *testing.T) {
	e, reg, h := newHost(t, "<p>x</p>")

	path := writePlugin(t, t.TempDir(), "tryer", `
inkstorm.register_command("try.missing", function(args)
	local ok, err = inkstorm.execute("does.not.exist")
	if ok then
		error("expected failure")
	end
	if err == nil then
		error("expected a message")
	end
end)
`)
	if err := h.Load("tryer", path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := reg.Execute(e, "try.missing", command.Args{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

func TestEngineGettersFromLua(t *testing.T) {
	e, reg, h := newHost(t, "<p>hello</p>")

	path := writePlugin(t, t.TempDir(), "peek", `
inkstorm.register_command("peek.doc", function(args)
	html = inkstorm.content()
	plain = inkstorm.text()
	n = inkstorm.length()
	v = inkstorm.version()
	did_undo = inkstorm.undo()
end)
`)
	if err := h.Load("peek", path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := reg.Execute(e, "peek.doc", command.Args{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	p, _ := h.Get("peek")
	if got := luaGlobal(t, p, "html"); got != lua.LString("<p>hello</p>") {
		t.Errorf("content() = %v, want <p>hello</p>", got)
	}
	if got := luaGlobal(t, p, "plain"); got != lua.LString("hello") {
		t.Errorf("text() = %v, want hello", got)
	}
	if got := luaGlobal(t, p, "n"); got != lua.LNumber(5) {
		t.Errorf("length() = %v, want 5", got)
	}
	if got, ok := luaGlobal(t, p, "v").(lua.LNumber); !ok || got < 1 {
		t.Errorf("version() = %v, want >= 1", got)
	}
	if got := luaGlobal(t, p, "did_undo"); got != lua.LFalse {
		t.Errorf("undo() with empty history = %v, want false", got)
	}
}

func TestOnChangeHook(t *testing.T) {
	e, reg, h := newHost(t, "<p>hello</p>")

	path := writePlugin(t, t.TempDir(), "watch", `
hits = 0
inkstorm.on_change(function(ev)
	hits = hits + 1
	last_version = ev.version
end)
`)
	if err := h.Load("watch", path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	placeCaret(t, e, 0)
	if err := reg.Execute(e, "insert.text", command.Args{Text: "x"}); err != nil {
		t.Fatalf("insert.text: %v", err)
	}
	h.Flush()

	p, _ := h.Get("watch")
	if hits, ok := luaGlobal(t, p, "hits").(lua.LNumber); !ok || hits < 1 {
		t.Fatalf("hits = %v, want >= 1", luaGlobal(t, p, "hits"))
	}
	if ver, ok := luaGlobal(t, p, "last_version").(lua.LNumber); !ok || ver < 1 {
		t.Errorf("last_version = %v, want >= 1", luaGlobal(t, p, "last_version"))
	}
}

func TestOnSaveHook(t *testing.T) {
	e, _, h := newHost(t, "<p>x</p>")

	path := writePlugin(t, t.TempDir(), "saver", `
inkstorm.on_save(function(ev)
	saved_session = ev.session
	saved_bytes = ev.bytes
end)
`)
	if err := h.Load("saver", path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	_ = e.Bus().Publish(event.NewEvent(event.TopicAutosaveSaved,
		event.AutosaveSaved{SessionID: "s9", Bytes: 42}, "test"))
	h.Flush()

	p, _ := h.Get("saver")
	if got := luaGlobal(t, p, "saved_session"); got != lua.LString("s9") {
		t.Errorf("saved_session = %v, want s9", got)
	}
	if got := luaGlobal(t, p, "saved_bytes"); got != lua.LNumber(42) {
		t.Errorf("saved_bytes = %v, want 42", got)
	}
}

func TestHookErrorPublishesPluginError(t *testing.T) {
	e, reg, h := newHost(t, "<p>hello</p>")
	failures := subscribe(t, e, event.TopicPluginError)

	path := writePlugin(t, t.TempDir(), "angry", `
inkstorm.on_change(function(ev)
	error("hook boom")
end)
`)
	if err := h.Load("angry", path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	placeCaret(t, e, 0)
	if err := reg.Execute(e, "insert.text", command.Args{Text: "x"}); err != nil {
		t.Fatalf("insert.text: %v", err)
	}
	h.Flush()

	select {
	case ev := <-failures:
		pe, ok := ev.Payload.(event.PluginError)
		if !ok {
			t.Fatalf("plugin.error payload = %#v", ev.Payload)
		}
		if pe.Name != "angry" || pe.Hook != "on_change" {
			t.Errorf("PluginError = %+v, want angry/on_change", pe)
		}
		if pe.Err == nil || !strings.Contains(pe.Err.Error(), "hook boom") {
			t.Errorf("Err = %v, want hook boom", pe.Err)
		}
	default:
		t.Fatal("no plugin.error event after failing hook")
	}
}

func TestLoadFailureCleansUp(t *testing.T) {
	e, reg, h := newHost(t, "<p>x</p>")
	failures := subscribe(t, e, event.TopicPluginError)

	path := writePlugin(t, t.TempDir(), "broken", `
inkstorm.register_command("broken.cmd", function(args) end)
error("setup failed")
`)
	err := h.Load("broken", path)
	if err == nil || !strings.Contains(err.Error(), "setup failed") {
		t.Fatalf("Load = %v, want setup failed", err)
	}

	p, ok := h.Get("broken")
	if !ok {
		t.Fatal("failed plugin not retained")
	}
	if p.State() != StateFailed {
		t.Errorf("State() = %v, want %v", p.State(), StateFailed)
	}
	if p.Err() == nil {
		t.Error("Err() = nil for failed plugin")
	}
	if _, ok := reg.Get("broken.cmd"); ok {
		t.Error("broken.cmd still registered after failed load")
	}

	select {
	case ev := <-failures:
		pe := ev.Payload.(event.PluginError)
		if pe.Name != "broken" || pe.Hook != "load" {
			t.Errorf("PluginError = %+v, want broken/load", pe)
		}
	default:
		t.Error("no plugin.error event for failed load")
	}

	if err := h.Enable("broken"); !errors.Is(err, ErrPluginFailed) {
		t.Errorf("Enable = %v, want ErrPluginFailed", err)
	}
}

func TestLoadDuplicateName(t *testing.T) {
	_, _, h := newHost(t, "<p>x</p>")

	path := writePlugin(t, t.TempDir(), "dup", `x = 1`)
	if err := h.Load("dup", path); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if err := h.Load("dup", path); !errors.Is(err, ErrPluginExists) {
		t.Errorf("second Load = %v, want ErrPluginExists", err)
	}
}

func TestRegisterBuiltinNameFailsLoad(t *testing.T) {
	_, reg, h := newHost(t, "<p>x</p>")

	path := writePlugin(t, t.TempDir(), "shadow", `
inkstorm.register_command("format.bold", function(args) end)
`)
	if err := h.Load("shadow", path); err == nil {
		t.Fatal("Load = nil, want error for shadowed builtin")
	}
	p, _ := h.Get("shadow")
	if p.State() != StateFailed {
		t.Errorf("State() = %v, want %v", p.State(), StateFailed)
	}
	if _, ok := reg.Get("format.bold"); !ok {
		t.Error("builtin format.bold lost after failed shadow")
	}
}

func TestExecuteOwnCommandRefused(t *testing.T) {
	e, reg, h := newHost(t, "<p>x</p>")

	path := writePlugin(t, t.TempDir(), "loop", `
inkstorm.register_command("loop.self", function(args)
	inkstorm.execute("loop.self")
end)
`)
	if err := h.Load("loop", path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	err := reg.Execute(e, "loop.self", command.Args{})
	if err == nil || !strings.Contains(err.Error(), "registered by this plugin") {
		t.Errorf("Execute = %v, want refusal", err)
	}
}

func TestSandboxStripsEscapes(t *testing.T) {
	_, _, h := newHost(t, "<p>x</p>")

	path := writePlugin(t, t.TempDir(), "probe", `
for _, name in ipairs({"dofile", "loadfile", "load", "loadstring", "require", "io", "os"}) do
	if _G[name] ~= nil then
		error(name .. " escaped the sandbox")
	end
end
`)
	if err := h.Load("probe", path); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestDisableEnable(t *testing.T) {
	e, reg, h := newHost(t, "<p>hello</p>")

	path := writePlugin(t, t.TempDir(), "toggle", `
hits = 0
inkstorm.on_change(function(ev)
	hits = hits + 1
end)
inkstorm.register_command("mark.cmd", function(args)
	marked = true
end)
`)
	if err := h.Load("toggle", path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := h.Disable("toggle"); err != nil {
		t.Fatalf("Disable: %v", err)
	}

	p, _ := h.Get("toggle")
	if p.State() != StateDisabled {
		t.Errorf("State() = %v, want %v", p.State(), StateDisabled)
	}
	if _, ok := reg.Get("mark.cmd"); ok {
		t.Error("mark.cmd registered while disabled")
	}

	// Changes while disabled must not reach the hook.
	placeCaret(t, e, 0)
	if err := reg.Execute(e, "insert.text", command.Args{Text: "x"}); err != nil {
		t.Fatalf("insert.text: %v", err)
	}
	h.Flush()
	if got := luaGlobal(t, p, "hits"); got != lua.LNumber(0) {
		t.Errorf("hits = %v while disabled, want 0", got)
	}

	if err := h.Enable("toggle"); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := reg.Execute(e, "mark.cmd", command.Args{}); err != nil {
		t.Fatalf("mark.cmd: %v", err)
	}
	if got := luaGlobal(t, p, "marked"); got != lua.LTrue {
		t.Errorf("marked = %v, want true", got)
	}
	if err := reg.Execute(e, "insert.text", command.Args{Text: "y"}); err != nil {
		t.Fatalf("insert.text: %v", err)
	}
	h.Flush()
	if hits, ok := luaGlobal(t, p, "hits").(lua.LNumber); !ok || hits < 1 {
		t.Errorf("hits = %v after enable, want >= 1", luaGlobal(t, p, "hits"))
	}

	// Enabling twice is a no-op, and the commands stay registered.
	if err := h.Enable("toggle"); err != nil {
		t.Fatalf("second Enable: %v", err)
	}
	if _, ok := reg.Get("mark.cmd"); !ok {
		t.Error("mark.cmd lost after double enable")
	}
}

func TestEnableUnknown(t *testing.T) {
	_, _, h := newHost(t, "<p>x</p>")
	if err := h.Enable("ghost"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("Enable(ghost) = %v, want ErrPluginNotFound", err)
	}
	if err := h.Disable("ghost"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("Disable(ghost) = %v, want ErrPluginNotFound", err)
	}
}

func TestLoadDirDiscovery(t *testing.T) {
	_, _, h := newHost(t, "<p>x</p>")

	dir := t.TempDir()
	writePlugin(t, dir, "alpha", `a = 1`)
	if err := os.MkdirAll(filepath.Join(dir, "beta"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "beta", "init.lua"), []byte(`b = 2`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := h.LoadDir(dir, nil); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if got, want := h.Names(), []string{"alpha", "beta"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestLoadDirEnabledFilter(t *testing.T) {
	_, _, h := newHost(t, "<p>x</p>")

	dir := t.TempDir()
	writePlugin(t, dir, "alpha", `a = 1`)
	writePlugin(t, dir, "beta", `b = 2`)

	if err := h.LoadDir(dir, []string{"beta"}); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if got, want := h.Names(), []string{"beta"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestLoadDirMissingDir(t *testing.T) {
	_, _, h := newHost(t, "<p>x</p>")
	if err := h.LoadDir(filepath.Join(t.TempDir(), "nope"), nil); err != nil {
		t.Errorf("LoadDir(missing) = %v, want nil", err)
	}
}

func TestLoadDirKeepsGoingOnFailure(t *testing.T) {
	_, _, h := newHost(t, "<p>x</p>")

	dir := t.TempDir()
	writePlugin(t, dir, "bad", `error("nope")`)
	writePlugin(t, dir, "good", `g = 1`)

	if err := h.LoadDir(dir, nil); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if got, want := h.Names(), []string{"bad", "good"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}

	pb, _ := h.Get("bad")
	if pb.State() != StateFailed {
		t.Errorf("bad State() = %v, want %v", pb.State(), StateFailed)
	}
	pg, _ := h.Get("good")
	if pg.State() != StateEnabled {
		t.Errorf("good State() = %v, want %v", pg.State(), StateEnabled)
	}
}

func TestHostClose(t *testing.T) {
	_, reg, h := newHost(t, "<p>x</p>")

	path := writePlugin(t, t.TempDir(), "bye", `
inkstorm.register_command("bye.cmd", function(args) end)
`)
	if err := h.Load("bye", path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	h.Close()
	h.Close()

	if _, ok := reg.Get("bye.cmd"); ok {
		t.Error("bye.cmd still registered after Close")
	}
	if err := h.Load("late", path); !errors.Is(err, ErrHostClosed) {
		t.Errorf("Load after Close = %v, want ErrHostClosed", err)
	}
	if err := h.Enable("bye"); !errors.Is(err, ErrHostClosed) {
		t.Errorf("Enable after Close = %v, want ErrHostClosed", err)
	}

	// Flush on a closed host returns immediately.
	h.Flush()
}
