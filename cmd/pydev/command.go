package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// ErrSilentExit signals a failure that has already been reported to the
// user; the dispatcher exits non-zero without printing anything more.
var ErrSilentExit = errors.New("silent exit")

// ExitCodeError carries a child process exit code up to the dispatcher,
// which adopts it as the pydev exit code without printing an error.
type ExitCodeError struct {
	Code int
}

// Error implements the error interface.
func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewExitCodeError returns an ExitCodeError for code, or nil when code is
// zero.
func NewExitCodeError(code int) error {
	if code == 0 {
		return nil
	}

	return &ExitCodeError{Code: code}
}

// Command is one pydev subcommand.
type Command struct {
	// Flags is the command's flag set. Parsed by Run before Exec is called.
	Flags *flag.FlagSet
	// Usage is the one-line usage string; its first word is the command
	// name.
	Usage string
	// Short is the one-line description shown in the command list.
	Short string
	// Long is the full description shown by <command> --help.
	Long string
	// Aliases are alternative names for the command.
	Aliases []string
	// Exec runs the command with the remaining (post-flag) arguments.
	Exec func(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error
}

// Name returns the command name (the first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine returns the line shown for this command in the global usage.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-10s %s", c.Name(), c.Short)
}

// Run parses flags, handles --help, executes the command, and maps its
// error to an exit code.
func (c *Command) Run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) int {
	err := c.Flags.Parse(args)
	if err != nil {
		fprintError(stderr, err)
		fprintln(stderr)
		c.printHelp(stderr)

		return 1
	}

	if help, _ := c.Flags.GetBool("help"); help {
		c.printHelp(stdout)

		return 0
	}

	err = c.Exec(ctx, stdin, stdout, stderr, c.Flags.Args())
	if err == nil {
		return 0
	}

	if errors.Is(err, ErrSilentExit) {
		return 1
	}

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	fprintError(stderr, err)

	return 1
}

func (c *Command) printHelp(output io.Writer) {
	fprintln(output, c.Long)
	fprintln(output)
	fprintln(output, "Usage: pydev", c.Usage)

	if c.Flags.HasFlags() {
		fprintln(output)
		fprintln(output, "Flags:")
		fprintln(output, strings.TrimRight(c.Flags.FlagUsages(), "\n"))
	}
}
