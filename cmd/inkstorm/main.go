// Command inkstorm is a terminal front end for the inkstorm editing
// engine. It keeps one rich-text session per run: content is edited
// through the engine's command set, autosaved to the session store, and
// importable from or exportable to Markdown without entering the UI.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	app, err := newApp(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer app.Shutdown()

	// One-shot conversions never touch the terminal.
	switch {
	case opts.ImportPath != "":
		if err := app.ImportMarkdown(opts.ImportPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: import %s: %v\n", opts.ImportPath, err)
			return 1
		}
		fmt.Printf("Imported %s into session %s\n", opts.ImportPath, app.SessionID())
		return 0
	case opts.ExportPath != "":
		if err := app.ExportMarkdown(opts.ExportPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: export %s: %v\n", opts.ExportPath, err)
			return 1
		}
		return 0
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		app.Quit()
	}()

	if err := app.Run(); err != nil && !errors.Is(err, errQuit) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.SessionID, "session", "", "Session ID to resume")
	flag.StringVar(&opts.SessionID, "s", "", "Session ID to resume (shorthand)")
	flag.BoolVar(&opts.ReadOnly, "readonly", false, "Open the session read-only")
	flag.StringVar(&opts.ImportPath, "import", "", "Import a Markdown file into the session and exit")
	flag.StringVar(&opts.ExportPath, "export", "", "Export the session as Markdown to a file and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Inkstorm - rich text editing in the terminal\n\n")
		fmt.Fprintf(os.Stderr, "Usage: inkstorm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  inkstorm                              Start a fresh session\n")
		fmt.Fprintf(os.Stderr, "  inkstorm -s 7c9e1f02                  Resume a saved session\n")
		fmt.Fprintf(os.Stderr, "  inkstorm -import notes.md             Seed a session from Markdown\n")
		fmt.Fprintf(os.Stderr, "  inkstorm -s 7c9e1f02 -export out.md   Write a session as Markdown\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Inkstorm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	return opts
}
