package bootstrap

import "path/filepath"

// Default values applied by [Config.applyDefaults]. They mirror the layout
// of a uv-managed project with a src/ and tests/ split.
const (
	DefaultSourceDir  = "src"
	DefaultTestsDir   = "tests"
	DefaultVenvDir    = ".venv"
	DefaultEntrypoint = "docker/entrypoint.sh"
	DefaultManifest   = "pyproject.toml"
	DefaultLockfile   = "uv.lock"

	// DefaultSynchronizer is the external dependency synchronizer binary.
	DefaultSynchronizer = "uv"

	// DefaultDevExtra is the optional dependency group installed for
	// development environments.
	DefaultDevExtra = "dev"
)

// Config configures bootstrap behavior.
//
// Config is intentionally independent from any config-file loading or CLI
// flag parsing; callers are expected to produce a final Config before
// constructing a Bootstrap.
//
// The zero value is a usable default: all paths fall back to the uv project
// conventions above and the dev extra is installed.
type Config struct {
	// SourceDir is the application source directory, relative to the
	// project root (absolute paths are accepted and used as-is).
	SourceDir string

	// TestsDir is the test directory, relative to the project root.
	TestsDir string

	// VenvDir is the isolated environment directory the synchronizer
	// installs dependencies into, relative to the project root.
	VenvDir string

	// Entrypoint is the external entrypoint script invoked on control
	// transfer, relative to the project root.
	Entrypoint string

	// Manifest is the dependency manifest file, relative to the project
	// root.
	Manifest string

	// Lockfile is the dependency lock file, relative to the project root.
	Lockfile string

	// Synchronizer is the dependency synchronizer binary name or path.
	Synchronizer string

	// DevExtra controls whether the development dependency group is
	// synchronized in addition to the base set. If nil, it defaults to
	// true.
	DevExtra *bool
}

// applyDefaults fills zero-valued fields in place.
func (c *Config) applyDefaults() {
	if c.SourceDir == "" {
		c.SourceDir = DefaultSourceDir
	}

	if c.TestsDir == "" {
		c.TestsDir = DefaultTestsDir
	}

	if c.VenvDir == "" {
		c.VenvDir = DefaultVenvDir
	}

	if c.Entrypoint == "" {
		c.Entrypoint = DefaultEntrypoint
	}

	if c.Manifest == "" {
		c.Manifest = DefaultManifest
	}

	if c.Lockfile == "" {
		c.Lockfile = DefaultLockfile
	}

	if c.Synchronizer == "" {
		c.Synchronizer = DefaultSynchronizer
	}

	if c.DevExtra == nil {
		v := true
		c.DevExtra = &v
	}
}

// cloneConfig returns a deep copy of cfg.
func cloneConfig(cfg *Config) Config {
	out := *cfg

	if cfg.DevExtra != nil {
		v := *cfg.DevExtra
		out.DevExtra = &v
	}

	return out
}

// resolvePaths resolves all config paths against the environment working
// directory. Absolute config paths are kept as-is.
func resolvePaths(cfg *Config, env Environment) Paths {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}

		return filepath.Join(env.WorkDir, p)
	}

	return Paths{
		Root:       filepath.Clean(env.WorkDir),
		Source:     resolve(cfg.SourceDir),
		Tests:      resolve(cfg.TestsDir),
		Venv:       resolve(cfg.VenvDir),
		Entrypoint: resolve(cfg.Entrypoint),
		Manifest:   resolve(cfg.Manifest),
		Lockfile:   resolve(cfg.Lockfile),
	}
}
