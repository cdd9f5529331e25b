package main

import (
	"context"
	"io"

	flag "github.com/spf13/pflag"

	"pydev/bootstrap"
)

// EnvCmd creates the env command, which prints the computed environment
// variable set.
func EnvCmd(cfg *Config, env map[string]string) *Command {
	flags := flag.NewFlagSet("env", flag.ContinueOnError)
	flags.BoolP("help", "h", false, "Show help")
	flags.Bool("export", false, "Print in shell export form")
	flags.Bool("debug", false, "Print bootstrap details to stderr")

	return &Command{
		Flags: flags,
		Usage: "env [flags]",
		Short: "Print the bootstrap environment variable set",
		Long: "Print the computed environment variable set: dependency link mode,\n" +
			"isolated environment directory, interpreter and type-checker search\n" +
			"paths, and the file-watch polling flag. Output is sorted by key.",
		Exec: func(_ context.Context, _ io.Reader, stdout, stderr io.Writer, _ []string) error {
			debug := newCommandDebugLogger(flags, stderr)
			debugConfigLoading(debug, cfg)

			b, err := newBootstrap(cfg, env)
			if err != nil {
				return err
			}

			debugBootstrap(debug, b)

			exportForm, _ := flags.GetBool("export")

			for _, kv := range b.Env().Slice() {
				if exportForm {
					fprintf(stdout, "export %s\n", kv)
				} else {
					fprintln(stdout, kv)
				}
			}

			return nil
		},
	}
}

// newBootstrap constructs the library bootstrap from the loaded application
// config and process environment.
func newBootstrap(cfg *Config, env map[string]string) (*bootstrap.Bootstrap, error) {
	bcfg := cfg.bootstrapConfig()

	return bootstrap.NewWithEnvironment(&bcfg, bootstrap.Environment{
		WorkDir: cfg.EffectiveCwd,
		HostEnv: env,
	})
}
