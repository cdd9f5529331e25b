//go:build unix

package bootstrap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Exec replaces the current process with the entrypoint script, invoked
// with no arguments in the project root and the bootstrap environment
// applied. On success it does not return; the script's exit code becomes
// the process exit code.
//
// This is the container control-transfer path. Callers that need to stay
// alive (tests, watch mode) use [Bootstrap.EntryCommand] instead.
func (b *Bootstrap) Exec() error {
	entry, err := b.checkEntrypoint()
	if err != nil {
		return err
	}

	err = os.Chdir(b.paths.Root)
	if err != nil {
		return fmt.Errorf("bootstrap: chdir to project root: %w", err)
	}

	environ := b.envSet.Environ(b.v.env.HostEnv)

	err = unix.Exec(entry, []string{entry}, environ)

	// unix.Exec only returns on failure.
	return fmt.Errorf("bootstrap: exec %s: %w", entry, err)
}
