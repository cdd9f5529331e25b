package main

import (
	"fmt"
	"io"
	"strings"

	"pydev/bootstrap"
)

// DebugLogger provides structured debug output for bootstrap startup.
// It is disabled by default (when output is nil) and outputs to stderr when enabled.
type DebugLogger struct {
	output io.Writer
}

// NewDebugLogger creates a new debug logger.
// If output is nil, the logger is disabled and all methods are no-ops.
func NewDebugLogger(output io.Writer) *DebugLogger {
	return &DebugLogger{output: output}
}

// Enabled returns true if debug logging is enabled.
func (d *DebugLogger) Enabled() bool {
	return d.output != nil
}

// Section outputs a section header.
func (d *DebugLogger) Section(name string) {
	if d.output == nil {
		return
	}

	_, _ = fmt.Fprintf(d.output, "\n=== %s ===\n", name)
}

// Logf outputs a formatted debug message.
func (d *DebugLogger) Logf(format string, args ...any) {
	if d.output == nil {
		return
	}

	_, _ = fmt.Fprintf(d.output, format+"\n", args...)
}

// ConfigFile outputs information about a config file.
func (d *DebugLogger) ConfigFile(label, path string, loaded bool) {
	if d.output == nil {
		return
	}

	if loaded {
		_, _ = fmt.Fprintf(d.output, "  %s: %s\n", label, path)
	} else {
		_, _ = fmt.Fprintf(d.output, "  %s: (not found)\n", label)
	}
}

// Setting outputs one effective setting value.
func (d *DebugLogger) Setting(name, value string) {
	if d.output == nil {
		return
	}

	_, _ = fmt.Fprintf(d.output, "  %s: %s\n", name, value)
}

// Argv outputs a command line.
func (d *DebugLogger) Argv(label string, argv []string) {
	if d.output == nil {
		return
	}

	_, _ = fmt.Fprintf(d.output, "  %s: %s\n", label, strings.Join(argv, " "))
}

// newCommandDebugLogger returns a DebugLogger writing to stderr when the
// command's --debug flag is set, and a disabled one otherwise.
func newCommandDebugLogger(flags interface{ GetBool(string) (bool, error) }, stderr io.Writer) *DebugLogger {
	enabled, _ := flags.GetBool("debug")
	if enabled {
		return NewDebugLogger(stderr)
	}

	return NewDebugLogger(nil)
}

// debugConfigLoading outputs debug information about config file loading.
func debugConfigLoading(debug *DebugLogger, cfg *Config) {
	if !debug.Enabled() {
		return
	}

	debug.Section("Config Loading")

	if len(cfg.LoadedConfigFiles) == 0 {
		debug.Logf("  No config files loaded (using defaults)")

		return
	}

	if path, ok := cfg.LoadedConfigFiles["global"]; ok {
		debug.ConfigFile("Global config", path, true)
	} else {
		debug.ConfigFile("Global config", "", false)
	}

	if path, ok := cfg.LoadedConfigFiles["explicit"]; ok {
		debug.ConfigFile("Explicit config (--config)", path, true)
	} else if path, ok := cfg.LoadedConfigFiles["project"]; ok {
		debug.ConfigFile("Project config", path, true)
	} else {
		debug.ConfigFile("Project config", "", false)
	}
}

// debugBootstrap outputs the resolved paths and computed env set.
func debugBootstrap(debug *DebugLogger, b *bootstrap.Bootstrap) {
	if !debug.Enabled() {
		return
	}

	paths := b.Paths()

	debug.Section("Resolved Paths")
	debug.Setting("root", paths.Root)
	debug.Setting("source", paths.Source)
	debug.Setting("tests", paths.Tests)
	debug.Setting("venv", paths.Venv)
	debug.Setting("entrypoint", paths.Entrypoint)
	debug.Setting("manifest", paths.Manifest)
	debug.Setting("lockfile", paths.Lockfile)

	debug.Section("Environment Variable Set")

	for _, kv := range b.Env().Slice() {
		debug.Logf("  %s", kv)
	}
}
