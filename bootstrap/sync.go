package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrSynchronizerNotFound is returned when the dependency synchronizer
// binary is not in PATH.
var ErrSynchronizerNotFound = errors.New("dependency synchronizer not found in PATH (try installing uv: https://docs.astral.sh/uv/)")

// SyncArgs returns the argv of the dependency synchronizer invocation,
// starting with the synchronizer binary itself.
//
// The invocation is frozen: it installs exactly what the lock file declares
// and fails non-zero if the lock is missing, inconsistent, or a package
// cannot be resolved. There is no partial or best-effort install. The dev
// extra is appended when enabled in config.
func (b *Bootstrap) SyncArgs() []string {
	args := []string{b.v.cfg.Synchronizer, "sync", "--frozen"}

	if *b.v.cfg.DevExtra {
		args = append(args, "--extra", DefaultDevExtra)
	}

	return args
}

// SyncCommand constructs an unstarted *exec.Cmd that runs the dependency
// synchronizer in the project root with the bootstrap environment applied.
//
// The returned command has no stdio wired; callers set Stdin/Stdout/Stderr
// and then call Run/Start/Wait. Cancellation of ctx kills the synchronizer.
func (b *Bootstrap) SyncCommand(ctx context.Context) (*exec.Cmd, error) {
	argv := b.SyncArgs()

	binary, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w: %w", ErrSynchronizerNotFound, err)
	}

	cmd := exec.CommandContext(ctx, binary, argv[1:]...)
	cmd.Dir = b.paths.Root
	cmd.Env = b.envSet.Environ(b.v.env.HostEnv)

	return cmd, nil
}
