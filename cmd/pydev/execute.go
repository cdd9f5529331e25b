package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
)

// Execute runs a prepared command with stdio wired through.
// Returns the exit code from the process.
//
// When the context is cancelled, SIGTERM is sent to the process to allow
// graceful shutdown. The process may exit with any code; context cancellation
// is signaled separately via the returned error.
func Execute(
	ctx context.Context,
	cmd *exec.Cmd,
	stdin io.Reader,
	stdout, stderr io.Writer,
) (int, error) {
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	// exec.CommandContext would SIGKILL on cancellation; route through
	// SIGTERM instead so the child gets a chance to clean up.
	cmd.Cancel = nil

	// Start the process
	err := cmd.Start()
	if err != nil {
		return 1, fmt.Errorf("starting %s: %w", cmd.Path, err)
	}

	// Watch for context cancellation in a goroutine
	// When cancelled, send SIGTERM to allow graceful shutdown
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			// Context cancelled - send SIGTERM for graceful shutdown
			if cmd.Process != nil {
				_ = cmd.Process.Signal(syscall.SIGTERM)
			}
		case <-done:
			// Process exited normally, nothing to do
		}
	}()

	// Wait for process to complete
	err = cmd.Wait()

	close(done)

	// Extract exit code
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		// Some other error (e.g., process couldn't be started properly)
		return 1, fmt.Errorf("waiting for %s: %w", cmd.Path, err)
	}

	return 0, nil
}
