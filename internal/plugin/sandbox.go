package plugin

import (
	lua "github.com/yuin/gopher-lua"
)

// newSandboxedState creates a Lua state with only the safe standard
// libraries. The package library is never opened, so require does not
// exist and plugins cannot load code from disk; the editor API arrives
// as the inkstorm global instead.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// The base library still carries code-loading entry points.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}
