package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"pydev/bootstrap"
	"pydev/watch"
)

// ErrInvalidWatchMode is returned for watch modes other than poll/native.
var ErrInvalidWatchMode = errors.New("invalid watch mode (expected poll or native)")

// debounceWindow coalesces bursts of file events into one restart.
const debounceWindow = 200 * time.Millisecond

// WatchCmd creates the watch command, which runs the entrypoint and
// restarts it when source or test files change.
func WatchCmd(cfg *Config, env map[string]string) *Command {
	flags := flag.NewFlagSet("watch", flag.ContinueOnError)
	flags.BoolP("help", "h", false, "Show help")
	flags.Bool("native", false, "Use OS change notifications instead of polling")
	flags.Duration("interval", 0, "Poll interval (default 500ms)")
	flags.Bool("debug", false, "Print bootstrap and watch details to stderr")

	return &Command{
		Flags: flags,
		Usage: "watch [flags]",
		Short: "Run the entrypoint and restart it on source changes",
		Long: "Run the entrypoint script and restart it whenever files under the\n" +
			"source or tests directories change. Polling is the default because\n" +
			"bind-mounted trees do not deliver native change events reliably;\n" +
			"--native opts into OS notifications on hosts where they work.",
		Exec: func(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, _ []string) error {
			debug := newCommandDebugLogger(flags, stderr)
			debugConfigLoading(debug, cfg)

			if flags.Changed("native") {
				cfg.Watch.Mode = WatchModeNative
			}

			if flags.Changed("interval") {
				interval, _ := flags.GetDuration("interval")
				cfg.Watch.Interval = interval.String()
			}

			b, err := newBootstrap(cfg, env)
			if err != nil {
				return err
			}

			debugBootstrap(debug, b)

			watcher, err := newWatcher(cfg, b)
			if err != nil {
				return err
			}
			defer func() { _ = watcher.Close() }()

			return watchLoop(ctx, b, watcher, stdin, stdout, stderr, debug)
		},
	}
}

// newWatcher constructs the configured watcher over the source and tests
// trees.
func newWatcher(cfg *Config, b *bootstrap.Bootstrap) (watch.Watcher, error) {
	paths := b.Paths()
	dirs := []string{paths.Source, paths.Tests}

	switch cfg.Watch.Mode {
	case WatchModeNative:
		return watch.NewNative(dirs)
	case WatchModePoll, "":
		interval, err := pollInterval(cfg)
		if err != nil {
			return nil, err
		}

		return watch.NewPoller(dirs, interval)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidWatchMode, cfg.Watch.Mode)
	}
}

func pollInterval(cfg *Config) (time.Duration, error) {
	if cfg.Watch.Interval == "" {
		return watch.DefaultPollInterval, nil
	}

	interval, err := time.ParseDuration(cfg.Watch.Interval)
	if err != nil {
		return 0, fmt.Errorf("parsing watch interval %q: %w", cfg.Watch.Interval, err)
	}

	return interval, nil
}

// watchLoop runs the entrypoint until ctx is cancelled, restarting it after
// each (debounced) change event. The entrypoint exiting on its own is not an
// error; the loop waits for the next change and starts it again.
func watchLoop(
	ctx context.Context,
	b *bootstrap.Bootstrap,
	watcher watch.Watcher,
	stdin io.Reader,
	stdout, stderr io.Writer,
	debug *DebugLogger,
) error {
	for {
		cmd, err := b.EntryCommand(ctx)
		if err != nil {
			return err
		}

		debug.Argv("entrypoint", cmd.Args)

		exited := make(chan int, 1)

		runCtx, stopRun := context.WithCancel(ctx)

		go func() {
			code, runErr := Execute(runCtx, cmd, stdin, stdout, stderr)
			if runErr != nil {
				fprintError(stderr, runErr)
			}

			exited <- code
		}()

		restart, err := waitForChange(ctx, watcher, stderr, debug)

		// Always tear the current run down before deciding what's next.
		stopRun()
		<-exited

		if err != nil {
			return err
		}

		if !restart {
			return nil
		}
	}
}

// waitForChange blocks until a change event arrives (returns true), or ctx
// is cancelled / the watcher closes (returns false).
func waitForChange(ctx context.Context, watcher watch.Watcher, stderr io.Writer, debug *DebugLogger) (bool, error) {
	for {
		select {
		case <-ctx.Done():
			return false, nil
		case ev, ok := <-watcher.Events():
			if !ok {
				return false, errors.New("watcher closed unexpectedly")
			}

			debug.Logf("  %s %s", ev.Op, ev.Path)
			fprintf(stderr, "change detected (%s %s), restarting\n", ev.Op, ev.Path)
			drainEvents(watcher)

			return true, nil
		case err, ok := <-watcher.Errors():
			if ok && err != nil {
				fprintError(stderr, err)
			}
		}
	}
}

// drainEvents swallows the rest of an event burst so one save doesn't
// trigger several restarts.
func drainEvents(watcher watch.Watcher) {
	deadline := time.After(debounceWindow)

	for {
		select {
		case _, ok := <-watcher.Events():
			if !ok {
				return
			}
		case <-deadline:
			return
		}
	}
}
