package bootstrap

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testEnvSet(t *testing.T) EnvSet {
	t.Helper()

	b, err := NewWithEnvironment(&Config{}, Environment{WorkDir: "/project"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return b.Env()
}

func TestEnvSet_ContainsFullContract(t *testing.T) {
	t.Parallel()

	envSet := testEnvSet(t)

	want := []string{
		"MYPYPATH=/project/src:/project/tests",
		"PYTHONPATH=/project/src:/project/tests",
		"UV_LINK_MODE=copy",
		"UV_PROJECT_ENVIRONMENT=/project/.venv",
		"WATCHFILES_FORCE_POLLING=true",
	}

	if diff := cmp.Diff(want, envSet.Slice()); diff != "" {
		t.Fatalf("env set mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvSet_PollingFlagIsTruthy(t *testing.T) {
	t.Parallel()

	envSet := testEnvSet(t)

	v, ok := envSet.Lookup(EnvForcePolling)
	if !ok {
		t.Fatalf("%s missing from env set", EnvForcePolling)
	}

	if v != "true" {
		t.Fatalf("%s = %q, want true", EnvForcePolling, v)
	}
}

func TestEnvSet_SearchPathsMatch(t *testing.T) {
	t.Parallel()

	envSet := testEnvSet(t)

	pythonPath, _ := envSet.Lookup(EnvPythonPath)
	mypyPath, _ := envSet.Lookup(EnvMypyPath)

	if pythonPath != mypyPath {
		t.Fatalf("interpreter and type-checker paths diverge: %q vs %q", pythonPath, mypyPath)
	}

	entries := strings.Split(pythonPath, ":")
	if len(entries) != 2 {
		t.Fatalf("search path has %d entries, want 2 (source, tests): %q", len(entries), pythonPath)
	}
}

func TestEnvSet_EnvironLayersOverHost(t *testing.T) {
	t.Parallel()

	envSet := testEnvSet(t)

	environ := envSet.Environ(map[string]string{
		"PATH":       "/usr/bin",
		"PYTHONPATH": "/stale/path", // must lose to the computed value
		"":           "dropped",
	})

	var gotPath, gotPythonPath bool

	for _, kv := range environ {
		switch kv {
		case "PATH=/usr/bin":
			gotPath = true
		case "PYTHONPATH=/project/src:/project/tests":
			gotPythonPath = true
		case "PYTHONPATH=/stale/path":
			t.Fatal("host PYTHONPATH survived the bootstrap override")
		}
	}

	if !gotPath {
		t.Fatal("host PATH missing from merged environ")
	}

	if !gotPythonPath {
		t.Fatal("computed PYTHONPATH missing from merged environ")
	}
}

func TestEnvSet_MapIsACopy(t *testing.T) {
	t.Parallel()

	envSet := testEnvSet(t)

	m := envSet.Map()
	m[EnvLinkMode] = "symlink"

	v, _ := envSet.Lookup(EnvLinkMode)
	if v != LinkModeCopy {
		t.Fatalf("Map() mutation leaked into set: %s = %q", EnvLinkMode, v)
	}
}
