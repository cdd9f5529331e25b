// Package bootstrap computes and applies the environment contract for a
// containerized Python development project: the environment variable set
// (dependency link mode, isolated environment directory, interpreter and
// type-checker search paths, file-watch polling flag), the dependency
// synchronizer invocation, and the final control transfer to the project
// entrypoint script.
//
// The bootstrap package does not execute commands itself; instead it
// constructs unstarted *exec.Cmd values (see [Bootstrap.SyncCommand] and
// [Bootstrap.EntryCommand]) and leaves execution policy (stdio wiring,
// signal handling, exit-code mapping) to the caller. The one exception is
// [Bootstrap.Exec], which replaces the current process.
//
// # Planning vs Execution
//
// Bootstrap construction (New/NewWithEnvironment) validates caller input and
// resolves all project paths against the environment's working directory.
// The resulting Bootstrap is a snapshot: it does not observe later changes
// to the host filesystem or environment. Construction is cheap, so prefer
// constructing a Bootstrap close to where commands are executed.
package bootstrap

import (
	"fmt"
	"maps"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Bootstrap is a validated, path-resolved view of one project's environment
// contract.
//
// A Bootstrap is immutable after construction and safe for concurrent use.
type Bootstrap struct {
	v      *validated
	envSet EnvSet
	paths  Paths
}

// Paths holds the resolved absolute paths of a bootstrapped project.
type Paths struct {
	// Root is the project root (the environment working directory).
	Root string
	// Source is the application source directory (Root/<cfg.SourceDir>).
	Source string
	// Tests is the test directory (Root/<cfg.TestsDir>).
	Tests string
	// Venv is the isolated environment directory the synchronizer installs
	// into.
	Venv string
	// Entrypoint is the external entrypoint script.
	Entrypoint string
	// Manifest is the dependency manifest (pyproject.toml).
	Manifest string
	// Lockfile is the dependency lock file (uv.lock).
	Lockfile string
}

// New constructs a Bootstrap using an Environment derived from the current
// process (see [DefaultEnvironment]).
func New(cfg *Config) (*Bootstrap, error) {
	env, err := DefaultEnvironment()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: creating default environment: %w", err)
	}

	return NewWithEnvironment(cfg, env)
}

// NewWithEnvironment constructs a Bootstrap using an explicit environment.
//
// This is useful for testing, embedding, or when the bootstrap should behave
// as-if run from a different working directory or environment than the
// current process.
//
// cfg and env are deep-copied during construction, so subsequent
// modifications to the passed values do not affect the Bootstrap.
func NewWithEnvironment(cfg *Config, env Environment) (*Bootstrap, error) {
	clonedCfg := cloneConfig(cfg)
	clonedCfg.applyDefaults()

	env = cloneEnvironment(env)

	err := validateConfigAndEnv(&clonedCfg, env)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: validating: %w", err)
	}

	paths := resolvePaths(&clonedCfg, env)

	return &Bootstrap{
		v:      &validated{cfg: clonedCfg, env: env},
		envSet: computeEnvSet(paths),
		paths:  paths,
	}, nil
}

// Env returns the computed environment variable set.
func (b *Bootstrap) Env() EnvSet {
	return b.envSet.clone()
}

// Paths returns the resolved project paths.
func (b *Bootstrap) Paths() Paths {
	return b.paths
}

// Config returns a copy of the effective (defaulted) configuration.
func (b *Bootstrap) Config() Config {
	return cloneConfig(&b.v.cfg)
}

// Rebase returns the project paths and environment variable set as they
// appear when the project tree lives at root instead of the host working
// directory. Images always run Linux, so root and the returned paths use
// forward slashes regardless of the build host.
//
// Absolute config paths are rebased by their final path element; in
// practice image layouts only use the relative uv project conventions.
func (b *Bootstrap) Rebase(root string) (Paths, EnvSet) {
	rebaseOne := func(p string) string {
		if path.IsAbs(p) {
			p = path.Base(p)
		}

		return path.Join(root, filepath.ToSlash(p))
	}

	paths := Paths{
		Root:       path.Clean(root),
		Source:     rebaseOne(b.v.cfg.SourceDir),
		Tests:      rebaseOne(b.v.cfg.TestsDir),
		Venv:       rebaseOne(b.v.cfg.VenvDir),
		Entrypoint: rebaseOne(b.v.cfg.Entrypoint),
		Manifest:   rebaseOne(b.v.cfg.Manifest),
		Lockfile:   rebaseOne(b.v.cfg.Lockfile),
	}

	return paths, computeEnvSet(paths)
}

// DefaultEnvironment returns an Environment derived from the current process.
//
// WorkDir is resolved from os.Getwd(). HostEnv is populated from
// os.Environ(). Invalid KEY=VALUE entries are ignored.
func DefaultEnvironment() (Environment, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return Environment{}, fmt.Errorf("get working directory: %w", err)
	}

	hostEnv := make(map[string]string, len(os.Environ()))
	for _, kv := range os.Environ() {
		// Best-effort parse of KEY=VALUE. Invalid entries are ignored.
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}

		hostEnv[key] = value
	}

	return Environment{
		WorkDir: workDir,
		HostEnv: hostEnv,
	}, nil
}

type validated struct {
	cfg Config
	env Environment
}

// cloneEnvironment returns a deep copy of env.
func cloneEnvironment(env Environment) Environment {
	out := env

	if env.HostEnv == nil {
		out.HostEnv = map[string]string{}
	} else {
		out.HostEnv = make(map[string]string, len(env.HostEnv))
		maps.Copy(out.HostEnv, env.HostEnv)
	}

	return out
}
