// Package plugin runs Lua plugins inside sandboxed interpreter states.
//
// Each plugin is a single Lua file (or a directory with an init.lua)
// executed in its own state with the io, os, and code-loading
// facilities removed. The editor API arrives as a global inkstorm
// table:
//
//	inkstorm.register_command("shout", function(args)
//	    local ok, err = inkstorm.execute("insert.text", { text = "!" })
//	end)
//	inkstorm.on_change(function(ev)
//	    -- ev.version, ev.op or ev.restore
//	end)
//
// # Concurrency
//
// A Lua state is not goroutine-safe, so every entry into a plugin
// (loading it, running one of its commands, delivering a hook) holds
// that plugin's mutex. Hooks are delivered from the host's own
// goroutine rather than inline with the event that caused them, so
// hook code may call back into the engine. A plugin cannot execute its
// own commands; two plugins whose commands execute each other's can
// still deadlock, so plugin authors should treat execute as one-way.
package plugin
