package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testProject(t *testing.T) (string, *Bootstrap) {
	t.Helper()

	root := t.TempDir()

	err := os.MkdirAll(filepath.Join(root, "docker"), 0o750)
	if err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	entry := filepath.Join(root, "docker", "entrypoint.sh")

	err = os.WriteFile(entry, []byte("#!/bin/sh\nexit 0\n"), 0o600)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	err = os.Chmod(entry, 0o755)
	if err != nil {
		t.Fatalf("chmod: %v", err)
	}

	b, err := NewWithEnvironment(&Config{}, Environment{
		WorkDir: root,
		HostEnv: map[string]string{"PATH": os.Getenv("PATH")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return root, b
}

func TestEntryCommand(t *testing.T) {
	t.Parallel()

	root, b := testProject(t)

	cmd, err := b.EntryCommand(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cmd.Dir != root {
		t.Fatalf("cmd.Dir = %q, want %q", cmd.Dir, root)
	}

	// Entrypoint is invoked with no arguments.
	if len(cmd.Args) != 1 {
		t.Fatalf("cmd.Args = %v, want a single argv0", cmd.Args)
	}

	for _, key := range []string{EnvLinkMode, EnvProjectEnvironment, EnvPythonPath, EnvMypyPath, EnvForcePolling} {
		found := slices.ContainsFunc(cmd.Env, func(kv string) bool {
			return len(kv) > len(key) && kv[:len(key)+1] == key+"="
		})
		if !found {
			t.Fatalf("cmd.Env missing %s", key)
		}
	}
}

func TestEntryCommand_MissingEntrypoint(t *testing.T) {
	t.Parallel()

	b, err := NewWithEnvironment(&Config{}, Environment{WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = b.EntryCommand(context.Background())
	if !errors.Is(err, ErrEntrypointNotFound) {
		t.Fatalf("want ErrEntrypointNotFound, got %v", err)
	}
}

func TestEntryCommand_NotExecutable(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	err := os.WriteFile(filepath.Join(root, "entry.sh"), []byte("#!/bin/sh\n"), 0o600)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	b, err := NewWithEnvironment(&Config{Entrypoint: "entry.sh"}, Environment{WorkDir: root})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = b.EntryCommand(context.Background())
	if !errors.Is(err, ErrEntrypointNotExecutable) {
		t.Fatalf("want ErrEntrypointNotExecutable, got %v", err)
	}
}

func TestSyncArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dev  bool
		want []string
	}{
		{
			name: "dev extra enabled",
			dev:  true,
			want: []string{"uv", "sync", "--frozen", "--extra", "dev"},
		},
		{
			name: "base set only",
			dev:  false,
			want: []string{"uv", "sync", "--frozen"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dev := tt.dev

			b, err := NewWithEnvironment(&Config{DevExtra: &dev}, Environment{WorkDir: "/project"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tt.want, b.SyncArgs()); diff != "" {
				t.Fatalf("sync argv mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
