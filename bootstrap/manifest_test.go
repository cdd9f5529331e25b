package bootstrap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testManifest = `
[project]
name = "effect"
dependencies = [
    "attrs>=23.0",
    "Typing_Extensions>=4.8",
]

[project.optional-dependencies]
dev = [
    "pytest>=8",
    "mypy ~= 1.11",
]
`

const testLock = `
version = 1

[[package]]
name = "attrs"
version = "23.2.0"

[[package]]
name = "typing-extensions"
version = "4.9.0"

[[package]]
name = "pytest"
version = "8.1.0"

[[package]]
name = "mypy"
version = "1.11.2"
`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)

	err := os.WriteFile(path, []byte(content), 0o600)
	if err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}

	return path
}

func TestNormalizePackageName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"requests", "requests"},
		{"Typing_Extensions", "typing-extensions"},
		{"ruamel.yaml", "ruamel-yaml"},
		{"a--b__c..d", "a-b-c-d"},
		{"  spaced  ", "spaced"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got := NormalizePackageName(tt.in)
			if got != tt.want {
				t.Fatalf("NormalizePackageName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDeclaredDependencies(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestFile(t, dir, "pyproject.toml", testManifest)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Project.Name != "effect" {
		t.Fatalf("project name = %q, want effect", m.Project.Name)
	}

	base := m.DeclaredDependencies(false)
	if diff := cmp.Diff([]string{"attrs", "typing-extensions"}, base); diff != "" {
		t.Fatalf("base dependencies mismatch (-want +got):\n%s", diff)
	}

	withDev := m.DeclaredDependencies(true)
	if diff := cmp.Diff([]string{"attrs", "mypy", "pytest", "typing-extensions"}, withDev); diff != "" {
		t.Fatalf("dev dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckLock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		lock    string
		wantErr string
	}{
		{
			name: "consistent lock",
			lock: testLock,
		},
		{
			name: "lock missing a dev dependency",
			lock: `
version = 1

[[package]]
name = "attrs"
version = "23.2.0"

[[package]]
name = "typing-extensions"
version = "4.9.0"

[[package]]
name = "pytest"
version = "8.1.0"
`,
			wantErr: "not pinned: mypy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			manifestPath := writeTestFile(t, dir, "pyproject.toml", testManifest)
			lockPath := writeTestFile(t, dir, "uv.lock", tt.lock)

			m, err := LoadManifest(manifestPath)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			l, err := LoadLockfile(lockPath)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			err = CheckLock(m, l, true)

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				return
			}

			if err == nil || !errors.Is(err, ErrLockInconsistent) {
				t.Fatalf("want ErrLockInconsistent, got %v", err)
			}
		})
	}
}

func TestLoadLockfile_Missing(t *testing.T) {
	t.Parallel()

	_, err := LoadLockfile(filepath.Join(t.TempDir(), "uv.lock"))
	if !errors.Is(err, ErrLockfileMissing) {
		t.Fatalf("want ErrLockfileMissing, got %v", err)
	}
}

func TestLoadLockfile_ParsesPackages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTestFile(t, dir, "uv.lock", testLock)

	l, err := LoadLockfile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if l.Version != 1 {
		t.Fatalf("lock version = %d, want 1", l.Version)
	}

	if len(l.Packages) != 4 {
		t.Fatalf("locked packages = %d, want 4", len(l.Packages))
	}

	if !l.Covers("typing-extensions") {
		t.Fatal("lock should cover typing-extensions")
	}

	if l.Covers("requests") {
		t.Fatal("lock should not cover requests")
	}
}
