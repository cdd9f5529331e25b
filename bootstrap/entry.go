package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Static errors for control transfer.
var (
	// ErrEntrypointNotFound is returned when the entrypoint script does not
	// exist.
	ErrEntrypointNotFound = errors.New("entrypoint script not found")
	// ErrEntrypointNotExecutable is returned when the entrypoint script
	// exists but lacks an execute bit.
	ErrEntrypointNotExecutable = errors.New("entrypoint script is not executable")
)

// EntryCommand constructs an unstarted *exec.Cmd that runs the entrypoint
// script with no arguments in the project root, with the bootstrap
// environment applied.
//
// The entrypoint owns all behavior from that point on; its exit code is the
// caller's exit code. Cancellation of ctx kills the entrypoint.
func (b *Bootstrap) EntryCommand(ctx context.Context) (*exec.Cmd, error) {
	entry, err := b.checkEntrypoint()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, entry)
	cmd.Dir = b.paths.Root
	cmd.Env = b.envSet.Environ(b.v.env.HostEnv)

	return cmd, nil
}

// checkEntrypoint verifies the entrypoint script exists, is a regular file,
// and is executable. Returns the resolved path.
func (b *Bootstrap) checkEntrypoint() (string, error) {
	entry := b.paths.Entrypoint

	info, err := os.Stat(entry)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("bootstrap: %w: %s", ErrEntrypointNotFound, entry)
		}

		return "", fmt.Errorf("bootstrap: statting entrypoint %s: %w", entry, err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("bootstrap: %w: %s is a directory", ErrEntrypointNotFound, entry)
	}

	if info.Mode().Perm()&0o111 == 0 {
		return "", fmt.Errorf("bootstrap: %w: %s", ErrEntrypointNotExecutable, entry)
	}

	resolved, err := filepath.EvalSymlinks(entry)
	if err != nil {
		return "", fmt.Errorf("bootstrap: resolving entrypoint %s: %w", entry, err)
	}

	return resolved, nil
}
