// Package image turns a bootstrap contract into a container image: either
// a rendered Dockerfile for an external builder, or a direct build through
// a dagger engine.
package image

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultBaseImage is the base image used when config does not override it.
const DefaultBaseImage = "python:3.13-slim"

// DefaultAppDir is the in-image application directory.
const DefaultAppDir = "/app"

// Spec describes one image to build. All paths are in-image paths.
type Spec struct {
	// BaseImage is the image the build starts from.
	BaseImage string
	// AppDir is the directory the project tree is copied to; it is also
	// the image working directory.
	AppDir string
	// Env is the baked-in environment variable set as sorted KEY=VALUE
	// entries. Order is part of the contract: a stable order gives
	// reproducible layers.
	Env []string
	// SyncArgv is the dependency synchronizer invocation run during the
	// build. A non-zero exit aborts the build; no image is produced.
	SyncArgv []string
	// Entrypoint is the script the image hands control to on start, with
	// no arguments.
	Entrypoint string
}

// Validate checks the spec before any rendering or building.
func (s *Spec) Validate() error {
	var errs []error

	if strings.TrimSpace(s.BaseImage) == "" {
		errs = append(errs, errors.New("image: base image is blank"))
	}

	if !strings.HasPrefix(s.AppDir, "/") {
		errs = append(errs, fmt.Errorf("image: app dir %q is not absolute", s.AppDir))
	}

	if len(s.SyncArgv) == 0 {
		errs = append(errs, errors.New("image: sync argv is empty"))
	}

	if !strings.HasPrefix(s.Entrypoint, "/") {
		errs = append(errs, fmt.Errorf("image: entrypoint %q is not absolute", s.Entrypoint))
	}

	for _, kv := range s.Env {
		if !strings.Contains(kv, "=") {
			errs = append(errs, fmt.Errorf("image: malformed env entry %q", kv))
		}
	}

	return errors.Join(errs...)
}
