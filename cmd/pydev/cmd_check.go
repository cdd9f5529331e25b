package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"pydev/bootstrap"
)

// CheckCmd creates the check command, which verifies the bootstrap
// contract without running anything.
func CheckCmd(cfg *Config, env map[string]string) *Command {
	flags := flag.NewFlagSet("check", flag.ContinueOnError)
	flags.BoolP("help", "h", false, "Show help")
	flags.BoolP("quiet", "q", false, "Quiet mode, no output")
	flags.Bool("debug", false, "Print bootstrap details to stderr")

	return &Command{
		Flags: flags,
		Usage: "check [flags]",
		Short: "Verify the project satisfies the bootstrap contract",
		Long: "Verify the bootstrap contract: the environment variable set is\n" +
			"complete (polling flag truthy, both search path entries present), the\n" +
			"source and tests directories exist, the lock file covers the manifest,\n" +
			"and the entrypoint script is executable. Exits 0 when all checks pass.",
		Exec: func(ctx context.Context, _ io.Reader, stdout, stderr io.Writer, _ []string) error {
			debug := newCommandDebugLogger(flags, stderr)
			debugConfigLoading(debug, cfg)

			b, err := newBootstrap(cfg, env)
			if err != nil {
				return err
			}

			debugBootstrap(debug, b)

			quiet, _ := flags.GetBool("quiet")

			report := func(name string, checkErr error) {
				if quiet {
					return
				}

				if checkErr != nil {
					fprintf(stdout, "not ok  %s: %v\n", name, checkErr)
				} else {
					fprintf(stdout, "ok      %s\n", name)
				}
			}

			var errs []error

			for _, c := range bootstrapChecks(ctx, b) {
				err := c.run()
				report(c.name, err)

				errs = append(errs, err)
			}

			err = errors.Join(errs...)
			if err != nil {
				if quiet {
					return ErrSilentExit
				}

				return fmt.Errorf("%d of %d checks failed", countErrs(errs), len(errs))
			}

			return nil
		},
	}
}

type check struct {
	name string
	run  func() error
}

// bootstrapChecks enumerates the contract checks in report order.
func bootstrapChecks(ctx context.Context, b *bootstrap.Bootstrap) []check {
	paths := b.Paths()

	return []check{
		{
			name: "env set complete",
			run:  func() error { return checkEnvSet(b) },
		},
		{
			name: "source directory",
			run:  func() error { return checkDir(paths.Source) },
		},
		{
			name: "tests directory",
			run:  func() error { return checkDir(paths.Tests) },
		},
		{
			name: "manifest and lock agree",
			run:  func() error { return checkLockAgainstManifest(b) },
		},
		{
			name: "entrypoint executable",
			run: func() error {
				_, err := b.EntryCommand(ctx)

				return err
			},
		},
	}
}

// checkEnvSet verifies every contract variable is present and the polling
// flag is truthy.
func checkEnvSet(b *bootstrap.Bootstrap) error {
	envSet := b.Env()

	required := []string{
		bootstrap.EnvLinkMode,
		bootstrap.EnvProjectEnvironment,
		bootstrap.EnvPythonPath,
		bootstrap.EnvMypyPath,
		bootstrap.EnvForcePolling,
	}

	var errs []error

	for _, key := range required {
		v, ok := envSet.Lookup(key)
		if !ok || v == "" {
			errs = append(errs, fmt.Errorf("%s is unset", key))
		}
	}

	if v, _ := envSet.Lookup(bootstrap.EnvForcePolling); v != "true" && v != "1" {
		errs = append(errs, fmt.Errorf("%s = %q is not truthy", bootstrap.EnvForcePolling, v))
	}

	return errors.Join(errs...)
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	return nil
}

func countErrs(errs []error) int {
	n := 0

	for _, err := range errs {
		if err != nil {
			n++
		}
	}

	return n
}
