package plugin

import (
	lua "github.com/yuin/gopher-lua"
)

// apiModule installs the inkstorm global table into one plugin's Lua
// state. Its methods run inside a locked entry into that state (DoFile
// or a command invocation), so they read and write plugin fields
// without taking p.mu again.
type apiModule struct {
	host *Host
	p    *Plugin
}

func (h *Host) installAPI(p *Plugin) {
	m := &apiModule{host: h, p: p}
	L := p.L
	mod := L.NewTable()

	L.SetField(mod, "content", L.NewFunction(m.content))
	L.SetField(mod, "text", L.NewFunction(m.text))
	L.SetField(mod, "length", L.NewFunction(m.length))
	L.SetField(mod, "version", L.NewFunction(m.version))
	L.SetField(mod, "execute", L.NewFunction(m.execute))
	L.SetField(mod, "register_command", L.NewFunction(m.registerCommand))
	L.SetField(mod, "on_change", L.NewFunction(m.onChange))
	L.SetField(mod, "on_save", L.NewFunction(m.onSave))
	L.SetField(mod, "undo", L.NewFunction(m.undo))
	L.SetField(mod, "redo", L.NewFunction(m.redo))

	L.SetGlobal("inkstorm", mod)
}

// content() -> string
// Returns the document as HTML.
func (m *apiModule) content(L *lua.LState) int {
	L.Push(lua.LString(m.host.engine.Content()))
	return 1
}

// text() -> string
// Returns the document's plain text.
func (m *apiModule) text(L *lua.LState) int {
	L.Push(lua.LString(m.host.engine.TextContent()))
	return 1
}

// length() -> number
// Returns the document's text length.
func (m *apiModule) length(L *lua.LState) int {
	L.Push(lua.LNumber(m.host.engine.Length()))
	return 1
}

// version() -> number
// Returns the document version counter.
func (m *apiModule) version(L *lua.LState) int {
	L.Push(lua.LNumber(m.host.engine.Version()))
	return 1
}

// execute(name, args?) -> true | false, error
// Runs a registered command. A plugin may not execute a command it
// registered itself; its handler is already on the call stack's lock.
func (m *apiModule) execute(L *lua.LState) int {
	name := L.CheckString(1)
	args := argsFromTable(L.OptTable(2, nil))

	if _, own := m.p.cmdFuncs[name]; own {
		L.RaiseError("execute: %s is registered by this plugin", name)
		return 0
	}

	if err := m.host.registry.Execute(m.host.engine, name, args); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// register_command(name, fn)
// Registers fn as an editor command under name.
func (m *apiModule) registerCommand(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)

	if err := m.host.registry.Register(name, m.host.wrapCommand(m.p, name, fn)); err != nil {
		L.RaiseError("register_command: %v", err)
		return 0
	}
	m.p.cmdFuncs[name] = fn
	m.p.cmdOrder = append(m.p.cmdOrder, name)
	return 0
}

// on_change(fn)
// Registers fn to run after the document changes. fn receives a table
// with the new version and either the operation name or a restore flag.
func (m *apiModule) onChange(L *lua.LState) int {
	m.p.hooks["on_change"] = L.CheckFunction(1)
	return 0
}

// on_save(fn)
// Registers fn to run after an autosave. fn receives a table with the
// session id and the byte count written.
func (m *apiModule) onSave(L *lua.LState) int {
	m.p.hooks["on_save"] = L.CheckFunction(1)
	return 0
}

// undo() -> bool
// Undoes the last change.
func (m *apiModule) undo(L *lua.LState) int {
	L.Push(lua.LBool(m.host.engine.Undo()))
	return 1
}

// redo() -> bool
// Redoes the last undone change.
func (m *apiModule) redo(L *lua.LState) int {
	L.Push(lua.LBool(m.host.engine.Redo()))
	return 1
}
