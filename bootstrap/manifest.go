package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Static errors for manifest and lock handling.
var (
	// ErrLockfileMissing is returned when the lock file does not exist. A
	// frozen sync cannot run without it.
	ErrLockfileMissing = errors.New("lock file missing (run the synchronizer once without --frozen to create it)")
	// ErrLockInconsistent is returned when the lock file does not cover
	// every dependency the manifest declares.
	ErrLockInconsistent = errors.New("lock file is inconsistent with the manifest")
)

// Manifest is the subset of a pyproject.toml the bootstrap cares about:
// the project name, its base dependencies, and the optional dependency
// groups (extras).
type Manifest struct {
	Project struct {
		Name                 string              `toml:"name"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
}

// Lockfile is the subset of a uv.lock: the lock format version and the
// fully resolved package set. A lock is a reproducible snapshot; syncing
// the same lock twice produces the same installed tree.
type Lockfile struct {
	Version  int             `toml:"version"`
	Packages []LockedPackage `toml:"package"`
}

// LockedPackage is one resolved package pinned in the lock.
type LockedPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// LoadManifest reads and parses a dependency manifest.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest

	_, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parsing manifest %s: %w", path, err)
	}

	return &m, nil
}

// LoadLockfile reads and parses a dependency lock file.
func LoadLockfile(path string) (*Lockfile, error) {
	_, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("bootstrap: %w: %s", ErrLockfileMissing, path)
		}

		return nil, fmt.Errorf("bootstrap: statting lock file %s: %w", path, err)
	}

	var l Lockfile

	_, err = toml.DecodeFile(path, &l)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parsing lock file %s: %w", path, err)
	}

	return &l, nil
}

// DeclaredDependencies returns the normalized names of every dependency the
// manifest declares: the base set plus, when includeDev is set, the dev
// extra. Results are sorted and deduplicated.
func (m *Manifest) DeclaredDependencies(includeDev bool) []string {
	seen := map[string]bool{}

	var names []string

	add := func(requirement string) {
		name := NormalizePackageName(requirementName(requirement))
		if name == "" || seen[name] {
			return
		}

		seen[name] = true
		names = append(names, name)
	}

	for _, req := range m.Project.Dependencies {
		add(req)
	}

	if includeDev {
		for _, req := range m.Project.OptionalDependencies[DefaultDevExtra] {
			add(req)
		}
	}

	sort.Strings(names)

	return names
}

// Covers reports whether the lock pins a package with the given normalized
// name.
func (l *Lockfile) Covers(name string) bool {
	for _, pkg := range l.Packages {
		if NormalizePackageName(pkg.Name) == name {
			return true
		}
	}

	return false
}

// CheckLock verifies that the lock covers every dependency the manifest
// declares (base set plus dev extra when includeDev is set).
//
// This front-runs the synchronizer's own consistency check so a stale lock
// surfaces as a diagnosable error instead of a raw non-zero exit.
func CheckLock(m *Manifest, l *Lockfile, includeDev bool) error {
	var missing []string

	for _, name := range m.DeclaredDependencies(includeDev) {
		if !l.Covers(name) {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("bootstrap: %w: not pinned: %s", ErrLockInconsistent, strings.Join(missing, ", "))
	}

	return nil
}

var normalizeRun = regexp.MustCompile(`[-_.]+`)

// NormalizePackageName lowercases name and collapses runs of '-', '_' and
// '.' into single dashes, following the registry's canonical name rules so
// manifest and lock spellings compare equal.
func NormalizePackageName(name string) string {
	return normalizeRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// requirementName extracts the bare package name from a requirement string
// such as "requests[socks]>=2.31 ; python_version > '3.10'".
func requirementName(requirement string) string {
	s := strings.TrimSpace(requirement)

	if i := strings.IndexAny(s, "[<>=!~;(@ \t"); i >= 0 {
		return s[:i]
	}

	return s
}
