package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix guards which environment variables the loader reads.
const EnvPrefix = "INKSTORM_"

// Load builds a Config from three layers: built-in defaults, the TOML
// file at path, then INKSTORM_* environment overrides. A missing file is
// not an error, and an empty path skips the file layer entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays INKSTORM_* variables onto cfg. Numbers, booleans,
// and durations that fail to parse are skipped; string values go through
// Validate like everything else.
func applyEnv(cfg *Config) {
	if v, ok := lookup("MAX_LENGTH"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Editor.MaxLength = n
		}
	}
	if v, ok := lookup("OVERFLOW"); ok {
		cfg.Editor.Overflow = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("READ_ONLY"); ok {
		if b, err := parseBool(v); err == nil {
			cfg.Editor.ReadOnly = b
		}
	}
	if v, ok := lookup("HISTORY_CAPACITY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.History.Capacity = n
		}
	}
	if v, ok := lookup("HISTORY_DEBOUNCE"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.History.Debounce = Duration(d)
		}
	}
	if v, ok := lookup("OBSERVE_DEBOUNCE"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.History.ObserveDebounce = Duration(d)
		}
	}
	if v, ok := lookup("AUTOSAVE"); ok {
		if b, err := parseBool(v); err == nil {
			cfg.Autosave.Enabled = b
		}
	}
	if v, ok := lookup("AUTOSAVE_INTERVAL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Autosave.Interval = Duration(d)
		}
	}
	if v, ok := lookup("SESSION_DIR"); ok {
		cfg.Session.Dir = v
	}
	if v, ok := lookup("PLUGIN_DIR"); ok {
		cfg.Plugins.Dir = v
	}
	if v, ok := lookup("PLUGINS"); ok {
		cfg.Plugins.Enabled = splitList(v)
	}
}

func lookup(name string) (string, bool) {
	return os.LookupEnv(EnvPrefix + name)
}

// parseBool accepts the usual spellings: true/false, yes/no, on/off, 1/0.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("%w: boolean %q", ErrInvalid, s)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
