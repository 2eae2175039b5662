// Package config loads, validates, and live-reloads the editor
// configuration.
//
// Configuration is layered. Built-in defaults come first, a TOML file
// overrides them, and INKSTORM_* environment variables override both:
//
//	cfg, err := config.Load("~/.config/inkstorm/inkstorm.toml")
//
// A missing file is not an error; every field has a usable zero value,
// so a partial file only overrides what it names.
//
// # Live reload
//
// Watch re-loads the file when it changes on disk, debouncing the event
// bursts editors produce while saving:
//
//	w, err := config.Watch(path, func(cfg config.Config) {
//	    eng.Retune(cfg.History.Capacity,
//	        cfg.History.Debounce.Std(), cfg.History.ObserveDebounce.Std())
//	})
//	defer w.Close()
//
// The watcher observes the file's parent directory, so saves that
// replace the file by rename are picked up too.
package config
