package plugin

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/inkstorm/internal/command"
)

// toLua converts a Go value to a Lua value on L. Values outside the
// supported set degrade to their string form rather than erroring,
// since hook payloads are informational.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []string:
		t := L.NewTable()
		for i, s := range val {
			t.RawSetInt(i+1, lua.LString(s))
		}
		return t
	case []any:
		t := L.NewTable()
		for i, e := range val {
			t.RawSetInt(i+1, toLua(L, e))
		}
		return t
	case map[string]any:
		return mapToTable(L, val)
	case error:
		return lua.LString(val.Error())
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// mapToTable converts a string-keyed map to a Lua table.
func mapToTable(L *lua.LState, m map[string]any) *lua.LTable {
	t := L.NewTable()
	for k, v := range m {
		t.RawSetString(k, toLua(L, v))
	}
	return t
}

// argsFromTable reads command arguments from a Lua table. Missing and
// mistyped fields keep their zero values.
func argsFromTable(t *lua.LTable) command.Args {
	if t == nil {
		return command.Args{}
	}
	var a command.Args
	if s, ok := t.RawGetString("text").(lua.LString); ok {
		a.Text = string(s)
	}
	if s, ok := t.RawGetString("url").(lua.LString); ok {
		a.URL = string(s)
	}
	if s, ok := t.RawGetString("alt").(lua.LString); ok {
		a.Alt = string(s)
	}
	if s, ok := t.RawGetString("color").(lua.LString); ok {
		a.Color = string(s)
	}
	if n, ok := t.RawGetString("level").(lua.LNumber); ok {
		a.Level = int(n)
	}
	return a
}

// argsToTable converts command arguments into the table a Lua command
// handler receives.
func argsToTable(L *lua.LState, a command.Args) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("text", lua.LString(a.Text))
	t.RawSetString("url", lua.LString(a.URL))
	t.RawSetString("alt", lua.LString(a.Alt))
	t.RawSetString("color", lua.LString(a.Color))
	t.RawSetString("level", lua.LNumber(a.Level))
	return t
}
