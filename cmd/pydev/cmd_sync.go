package main

import (
	"context"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"pydev/bootstrap"
)

// SyncCmd creates the sync command, which runs the dependency synchronizer
// with the bootstrap environment applied.
func SyncCmd(cfg *Config, env map[string]string) *Command {
	flags := flag.NewFlagSet("sync", flag.ContinueOnError)
	flags.BoolP("help", "h", false, "Show help")
	flags.Bool("no-dev", false, "Skip the dev dependency group")
	flags.Bool("check", true, "Verify manifest/lock consistency before syncing")
	flags.Bool("dry-run", false, "Print the synchronizer invocation without executing")
	flags.Bool("debug", false, "Print bootstrap details to stderr")

	return &Command{
		Flags: flags,
		Usage: "sync [flags]",
		Short: "Synchronize dependencies into the isolated environment",
		Long: "Run the dependency synchronizer against the manifest and lock file.\n" +
			"The invocation is frozen: it installs exactly the locked package set\n" +
			"and fails without partial installs when the lock is missing or stale.",
		Exec: func(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, _ []string) error {
			debug := newCommandDebugLogger(flags, stderr)
			debugConfigLoading(debug, cfg)

			applySyncFlags(cfg, flags)

			b, err := newBootstrap(cfg, env)
			if err != nil {
				return err
			}

			debugBootstrap(debug, b)

			if check, _ := flags.GetBool("check"); check {
				err = checkLockAgainstManifest(b)
				if err != nil {
					return err
				}
			}

			if dryRun, _ := flags.GetBool("dry-run"); dryRun {
				fprintln(stdout, strings.Join(b.SyncArgs(), " "))

				return nil
			}

			cmd, err := b.SyncCommand(ctx)
			if err != nil {
				return err
			}

			debug.Argv("sync", cmd.Args)

			exitCode, err := Execute(ctx, cmd, stdin, stdout, stderr)
			if err != nil {
				return err
			}

			return NewExitCodeError(exitCode)
		},
	}
}

// applySyncFlags applies CLI flag overrides to the config.
// Only flags that were explicitly set override config values.
func applySyncFlags(cfg *Config, flags *flag.FlagSet) {
	if flags.Changed("no-dev") {
		noDev, _ := flags.GetBool("no-dev")
		dev := !noDev
		cfg.Dev = &dev
	}
}

// checkLockAgainstManifest front-runs the synchronizer's own consistency
// check so a stale lock surfaces with package names instead of a raw
// non-zero exit.
func checkLockAgainstManifest(b *bootstrap.Bootstrap) error {
	paths := b.Paths()

	manifest, err := bootstrap.LoadManifest(paths.Manifest)
	if err != nil {
		return err
	}

	lock, err := bootstrap.LoadLockfile(paths.Lockfile)
	if err != nil {
		return err
	}

	return bootstrap.CheckLock(manifest, lock, *b.Config().DevExtra)
}
