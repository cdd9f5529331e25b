package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pydev/bootstrap"
	"pydev/watch"
)

// stubWatcher feeds canned events into watchLoop.
type stubWatcher struct {
	events chan watch.Event
	errs   chan error
}

func newStubWatcher() *stubWatcher {
	return &stubWatcher{
		events: make(chan watch.Event, 16),
		errs:   make(chan error, 1),
	}
}

func (s *stubWatcher) Events() <-chan watch.Event { return s.events }
func (s *stubWatcher) Errors() <-chan error       { return s.errs }
func (s *stubWatcher) Close() error               { return nil }

// watchProject builds a project whose entrypoint logs each start and then
// blocks, so restarts are observable as lines in runs.log.
func watchProject(t *testing.T) (*bootstrap.Bootstrap, string) {
	t.Helper()

	projectDir := setupTestProject(t)
	logPath := filepath.Join(projectDir, "runs.log")

	script := "#!/bin/sh\necho run >> runs.log\nexec sleep 60\n"

	err := os.WriteFile(filepath.Join(projectDir, "docker", "entrypoint.sh"), []byte(script), 0o755)
	if err != nil {
		t.Fatalf("write entrypoint: %v", err)
	}

	cfg := DefaultConfig()
	cfg.EffectiveCwd = projectDir

	b, err := newBootstrap(&cfg, map[string]string{"PATH": "/usr/bin:/bin"})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	return b, logPath
}

// waitForRuns polls runs.log until it shows want started runs.
func waitForRuns(t *testing.T, logPath string, want int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		if countRuns(logPath) == want {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("entrypoint started %d times, want %d", countRuns(logPath), want)
}

func countRuns(logPath string) int {
	data, err := os.ReadFile(logPath)
	if err != nil {
		return 0
	}

	return strings.Count(string(data), "run\n")
}

func TestWatchLoopRestartsOnChange(t *testing.T) {
	t.Parallel()

	b, logPath := watchProject(t)
	watcher := newStubWatcher()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stderr strings.Builder

	done := make(chan error, 1)

	go func() {
		done <- watchLoop(ctx, b, watcher, strings.NewReader(""), &strings.Builder{}, &stderr, NewDebugLogger(nil))
	}()

	waitForRuns(t, logPath, 1)

	watcher.events <- watch.Event{Path: "src/app.py", Op: watch.Write}

	waitForRuns(t, logPath, 2)

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch loop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not return after cancellation")
	}

	if !strings.Contains(stderr.String(), "change detected") {
		t.Fatalf("stderr = %q, want restart notice", stderr.String())
	}
}

func TestWatchLoopDebouncesEventBursts(t *testing.T) {
	t.Parallel()

	b, logPath := watchProject(t)
	watcher := newStubWatcher()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- watchLoop(ctx, b, watcher, strings.NewReader(""), &strings.Builder{}, &strings.Builder{}, NewDebugLogger(nil))
	}()

	waitForRuns(t, logPath, 1)

	// One save often produces several events; they must collapse into a
	// single restart.
	for range 5 {
		watcher.events <- watch.Event{Path: "src/app.py", Op: watch.Write}
	}

	waitForRuns(t, logPath, 2)

	// Past the debounce window, nothing else may have restarted.
	time.Sleep(2 * debounceWindow)

	if got := countRuns(logPath); got != 2 {
		t.Fatalf("entrypoint started %d times after burst, want 2", got)
	}

	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not return after cancellation")
	}
}

func TestWatchLoopEntrypointExitIsNotAnError(t *testing.T) {
	t.Parallel()

	projectDir := setupTestProject(t)

	// Entrypoint exits immediately on its own; the loop must keep waiting
	// for changes instead of failing.
	script := "#!/bin/sh\nexit 0\n"

	err := os.WriteFile(filepath.Join(projectDir, "docker", "entrypoint.sh"), []byte(script), 0o755)
	if err != nil {
		t.Fatalf("write entrypoint: %v", err)
	}

	cfg := DefaultConfig()
	cfg.EffectiveCwd = projectDir

	b, err := newBootstrap(&cfg, map[string]string{"PATH": "/usr/bin:/bin"})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	watcher := newStubWatcher()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- watchLoop(ctx, b, watcher, strings.NewReader(""), &strings.Builder{}, &strings.Builder{}, NewDebugLogger(nil))
	}()

	// Let the entrypoint run to completion, then cancel.
	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch loop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not return after cancellation")
	}
}
