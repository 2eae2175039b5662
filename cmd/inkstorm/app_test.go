package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/inkstorm/internal/command"
	"github.com/dshills/inkstorm/internal/config"
	"github.com/dshills/inkstorm/internal/engine"
)

func TestEngineOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Editor.MaxLength = 120
	cfg.Editor.Overflow = "truncate"
	cfg.History.Capacity = 4

	e, err := engine.New(engineOptions(cfg, options{ReadOnly: true})...)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	defer e.Close()

	if got := e.MaxLength(); got != 120 {
		t.Fatalf("MaxLength = %d, want 120", got)
	}
	if got := e.Overflow(); got != engine.OverflowTruncate {
		t.Fatalf("Overflow = %q, want truncate", got)
	}
	if !e.ReadOnly() {
		t.Fatal("read-only flag did not carry over")
	}
}

func TestEngineOptionsDefaults(t *testing.T) {
	e, err := engine.New(engineOptions(config.Default(), options{})...)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	defer e.Close()

	if got := e.MaxLength(); got != 0 {
		t.Fatalf("MaxLength = %d, want unlimited", got)
	}
	if e.ReadOnly() {
		t.Fatal("engine read-only without being asked")
	}
}

func TestMarkdownCommands(t *testing.T) {
	e, err := engine.New()
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	defer e.Close()
	reg := command.NewRegistry()
	registerMarkdownCommands(reg)

	src := "# Title\n\nSome **bold** text.\n"
	if err := reg.Execute(e, cmdMarkdownImport, command.Args{Text: src}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := e.Content(); !strings.Contains(got, "<h1>Title</h1>") {
		t.Fatalf("imported content = %q", got)
	}

	path := filepath.Join(t.TempDir(), "out.md")
	if err := reg.Execute(e, cmdMarkdownExport, command.Args{URL: path}); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != src {
		t.Fatalf("export round trip = %q, want %q", data, src)
	}
}

func TestMarkdownCommandsValidateArgs(t *testing.T) {
	e, err := engine.New()
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	defer e.Close()
	reg := command.NewRegistry()
	registerMarkdownCommands(reg)

	if err := reg.Execute(e, cmdMarkdownImport, command.Args{}); !errors.Is(err, command.ErrBadArgument) {
		t.Fatalf("import without text: %v", err)
	}
	if err := reg.Execute(e, cmdMarkdownExport, command.Args{}); !errors.Is(err, command.ErrBadArgument) {
		t.Fatalf("export without destination: %v", err)
	}
}
