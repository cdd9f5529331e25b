package bootstrap

import (
	"maps"
	"path/filepath"
	"sort"
	"strings"
)

// Environment variable names in the bootstrap contract. Downstream tools
// read these; the bootstrap sets each exactly once and never mutates them.
const (
	// EnvLinkMode selects copy semantics for installed dependency files
	// rather than symlinking, so the installed tree survives mounts that
	// do not share the synchronizer cache.
	EnvLinkMode = "UV_LINK_MODE"

	// EnvProjectEnvironment is the isolated environment directory the
	// synchronizer installs into.
	EnvProjectEnvironment = "UV_PROJECT_ENVIRONMENT"

	// EnvPythonPath is the interpreter module search path.
	EnvPythonPath = "PYTHONPATH"

	// EnvMypyPath is the type-checker module search path.
	EnvMypyPath = "MYPYPATH"

	// EnvForcePolling forces file-watchers to poll for changes instead of
	// relying on OS change notifications, which do not propagate reliably
	// across bind mounts.
	EnvForcePolling = "WATCHFILES_FORCE_POLLING"
)

// LinkModeCopy is the only link mode the bootstrap emits.
const LinkModeCopy = "copy"

// EnvSet is the computed environment variable set of a bootstrap.
//
// It is a value type; methods that would mutate return copies. Rendering is
// deterministic (sorted by key).
type EnvSet struct {
	vars map[string]string
}

// computeEnvSet derives the variable set from resolved project paths.
//
// The interpreter and type-checker search paths both carry the source and
// tests directories, so code under test can import application modules and
// test utilities without packaging steps.
func computeEnvSet(paths Paths) EnvSet {
	searchPath := paths.Source + string(filepath.ListSeparator) + paths.Tests

	return EnvSet{vars: map[string]string{
		EnvLinkMode:           LinkModeCopy,
		EnvProjectEnvironment: paths.Venv,
		EnvPythonPath:         searchPath,
		EnvMypyPath:           searchPath,
		EnvForcePolling:       "true",
	}}
}

// Lookup returns the value for key and whether it is part of the set.
func (s EnvSet) Lookup(key string) (string, bool) {
	v, ok := s.vars[key]

	return v, ok
}

// Len returns the number of variables in the set.
func (s EnvSet) Len() int {
	return len(s.vars)
}

// Keys returns the variable names in sorted order.
func (s EnvSet) Keys() []string {
	keys := make([]string, 0, len(s.vars))
	for k := range s.vars {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Slice returns the set as a sorted KEY=VALUE slice.
//
// Sorting makes debug output and image layers stable across runs.
func (s EnvSet) Slice() []string {
	keys := s.Keys()

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+s.vars[k])
	}

	return out
}

// Map returns a copy of the set as a map.
func (s EnvSet) Map() map[string]string {
	out := make(map[string]string, len(s.vars))
	maps.Copy(out, s.vars)

	return out
}

// Environ layers the set over base and returns a sorted KEY=VALUE slice
// suitable for exec.Cmd.Env. Set entries win over base entries.
func (s EnvSet) Environ(base map[string]string) []string {
	merged := make(map[string]string, len(base)+len(s.vars))

	for k, v := range base {
		if k == "" {
			continue
		}

		merged[k] = v
	}

	maps.Copy(merged, s.vars)

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+merged[k])
	}

	return out
}

// String renders the set as newline-separated KEY=VALUE pairs.
func (s EnvSet) String() string {
	return strings.Join(s.Slice(), "\n")
}

func (s EnvSet) clone() EnvSet {
	out := make(map[string]string, len(s.vars))
	maps.Copy(out, s.vars)

	return EnvSet{vars: out}
}
