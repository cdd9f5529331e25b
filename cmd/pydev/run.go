package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
)

// Run is the main entry point. Returns exit code.
// sigCh can be nil if signal handling is not needed (e.g., in tests).
func Run(stdin io.Reader, stdout, stderr io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	// Create fresh global flags for this invocation
	globalFlags := flag.NewFlagSet("pydev", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})

	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")
	flagVersion := globalFlags.BoolP("version", "v", false, "Show version and exit")
	flagCwd := globalFlags.StringP("cwd", "C", "", "Run as if started in `dir`")
	flagConfig := globalFlags.String("config", "", "Use specified config `file`")

	err := globalFlags.Parse(args[1:])
	if err != nil {
		fprintError(stderr, err)
		fprintln(stderr, "Run 'pydev --help' for usage.")

		return 1
	}

	// Handle --version early, before loading config
	if *flagVersion {
		if commit == "none" && date == "unknown" {
			fprintf(stdout, "pydev %s (built from source)\n", version)
		} else {
			fprintf(stdout, "pydev %s (%s, %s)\n", version, commit, date)
		}

		return 0
	}

	// Create context early so config loading can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load config (handles --cwd resolution internally)
	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: *flagCwd,
		ConfigPath:      *flagConfig,
		Env:             env,
	})
	if err != nil {
		fprintError(stderr, err)

		return 1
	}

	// Create all commands
	commands := []*Command{
		StartCmd(&cfg, env),
		SyncCmd(&cfg, env),
		EnvCmd(&cfg, env),
		BuildCmd(&cfg, env),
		WatchCmd(&cfg, env),
		CheckCmd(&cfg, env),
	}

	commandMap := make(map[string]*Command, len(commands)*2)
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases {
			commandMap[alias] = cmd
		}
	}

	commandAndArgs := globalFlags.Args()

	// Show help: explicit --help or bare `pydev` with no args
	if *flagHelp || len(commandAndArgs) == 0 {
		printUsage(stdout, commands)

		return 0
	}

	// Dispatch to command
	cmdName := commandAndArgs[0]

	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintError(stderr, fmt.Errorf("unknown command %q", cmdName))
		fprintln(stderr)
		printUsage(stderr, commands)

		return 1
	}

	done := make(chan int, 1)

	go func() {
		done <- cmd.Run(ctx, stdin, stdout, stderr, commandAndArgs[1:])
	}()

	// A nil sigCh (tests) just waits for the command.
	if sigCh == nil {
		return <-done
	}

	return waitInterruptible(done, sigCh, cancel, stderr)
}

// waitInterruptible waits for the running command, turning the first signal
// into a context cancellation with a ten second cleanup window. A second
// signal or the window elapsing forces the exit.
func waitInterruptible(done <-chan int, sigCh <-chan os.Signal, cancel context.CancelFunc, stderr io.Writer) int {
	select {
	case exitCode := <-done:
		return exitCode
	case <-sigCh:
		fprintln(stderr, "Interrupted, waiting up to 10s for cleanup... (Ctrl+C again to force exit)")
		cancel()
	}

	select {
	case <-done:
		fprintln(stderr, "Cleanup complete.")
	case <-time.After(10 * time.Second):
		fprintln(stderr, "Cleanup timed out, forced exit.")
	case <-sigCh:
		fprintln(stderr, "Forced exit.")
	}

	return 130
}

func fprintln(output io.Writer, a ...any) {
	_, _ = fmt.Fprintln(output, a...)
}

func fprintf(output io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(output, format, a...)
}

// ANSI color codes for terminal output.
const (
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// fprintError prints an error message with optional red coloring for TTY.
func fprintError(output io.Writer, err error) {
	if IsTerminal() {
		fprintln(output, colorRed+"error:"+colorReset, err)
	} else {
		fprintln(output, "error:", err)
	}
}

func printUsage(output io.Writer, commands []*Command) {
	fprintln(output, "pydev - containerized Python development environment bootstrap")
	fprintln(output)
	fprintln(output, "Usage: pydev [flags] <command> [args]")
	fprintln(output)
	fprintln(output, "Flags:")
	fprintln(output, "  -h, --help             Show help")
	fprintln(output, "  -v, --version          Show version and exit")
	fprintln(output, "  -C, --cwd <dir>        Run as if started in <dir>")
	fprintln(output, "      --config <file>    Use specified config file")
	fprintln(output)
	fprintln(output, "Commands:")

	for _, cmd := range commands {
		fprintln(output, cmd.HelpLine())
	}

	fprintln(output)
	fprintln(output, "Run 'pydev <command> --help' for more information on a command.")
}

// isTerminal is a function variable that returns true if stdin is a terminal.
// It can be overridden in tests to control TTY behavior.
var isTerminal = func() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	return (stat.Mode() & os.ModeCharDevice) != 0
}

// IsTerminal returns true if stdin is a terminal.
func IsTerminal() bool {
	return isTerminal()
}
