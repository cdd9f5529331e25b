package main

import (
	"context"
	"io"

	flag "github.com/spf13/pflag"
)

// StartCmd creates the start command, which transfers control to the
// external entrypoint script.
func StartCmd(cfg *Config, env map[string]string) *Command {
	flags := flag.NewFlagSet("start", flag.ContinueOnError)
	flags.BoolP("help", "h", false, "Show help")
	flags.String("entrypoint", "", "Override the entrypoint script `path`")
	flags.Bool("no-exec", false, "Run the entrypoint as a child process instead of replacing pydev")
	flags.Bool("debug", false, "Print bootstrap details to stderr")

	return &Command{
		Flags: flags,
		Usage: "start [flags]",
		Short: "Apply the environment set and hand control to the entrypoint",
		Long: "Apply the bootstrap environment variable set and invoke the external\n" +
			"entrypoint script with no arguments. By default the script replaces the\n" +
			"pydev process, so its exit code is the container's exit code.",
		Aliases: []string{"run"},
		Exec: func(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, _ []string) error {
			debug := newCommandDebugLogger(flags, stderr)
			debugConfigLoading(debug, cfg)

			if flags.Changed("entrypoint") {
				entry, _ := flags.GetString("entrypoint")
				cfg.Entrypoint = entry
			}

			b, err := newBootstrap(cfg, env)
			if err != nil {
				return err
			}

			debugBootstrap(debug, b)

			noExec, _ := flags.GetBool("no-exec")
			if !noExec {
				// Replaces the process on success; only failures return.
				return b.Exec()
			}

			cmd, err := b.EntryCommand(ctx)
			if err != nil {
				return err
			}

			debug.Argv("entrypoint", cmd.Args)

			exitCode, err := Execute(ctx, cmd, stdin, stdout, stderr)
			if err != nil {
				return err
			}

			return NewExitCodeError(exitCode)
		},
	}
}
