package bootstrap

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// validateConfigAndEnv validates user-controlled configuration and
// environment.
//
// This function is the primary input boundary for the bootstrap package.
// The rest of the implementation assumes that validated fields satisfy their
// basic invariants (non-empty, absolute working directory, sane path
// values). Construction fails fast on violations; nothing downstream
// re-validates.
func validateConfigAndEnv(cfg *Config, env Environment) error {
	errs := make([]error, 0, 4)

	errs = append(errs, validateEnvironment(env)...)
	errs = append(errs, validateConfigPaths(cfg)...)

	return errors.Join(errs...)
}

func validateEnvironment(env Environment) []error {
	var errs []error

	if strings.TrimSpace(env.WorkDir) == "" {
		errs = append(errs, errors.New("environment WorkDir is empty"))
	} else if !filepath.IsAbs(env.WorkDir) {
		errs = append(errs, fmt.Errorf("environment WorkDir %q is not absolute", env.WorkDir))
	}

	for key := range env.HostEnv {
		if key == "" {
			errs = append(errs, errors.New("environment HostEnv contains an empty key"))

			break
		}
	}

	return errs
}

func validateConfigPaths(cfg *Config) []error {
	var errs []error

	// Defaults have been applied, so every field must be non-empty; an
	// empty value here means a caller passed explicit whitespace.
	fields := []struct {
		name  string
		value string
	}{
		{"SourceDir", cfg.SourceDir},
		{"TestsDir", cfg.TestsDir},
		{"VenvDir", cfg.VenvDir},
		{"Entrypoint", cfg.Entrypoint},
		{"Manifest", cfg.Manifest},
		{"Lockfile", cfg.Lockfile},
		{"Synchronizer", cfg.Synchronizer},
	}

	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Errorf("config %s is blank", f.name))
		}
	}

	if cfg.SourceDir == cfg.TestsDir {
		errs = append(errs, fmt.Errorf("config SourceDir and TestsDir are both %q; the search path needs two distinct entries", cfg.SourceDir))
	}

	return errs
}
