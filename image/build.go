package image

import (
	"context"
	"fmt"
	"io"
	"strings"

	"dagger.io/dagger"
	"github.com/google/uuid"
)

// BuildOptions configures a dagger-backed build.
type BuildOptions struct {
	// ContextDir is the host project tree copied into the image. Every
	// file present is included verbatim; there is no ignore filtering.
	ContextDir string
	// ExportPath, when set, is the host path the built image is exported
	// to as an OCI tarball.
	ExportPath string
	// LogOutput receives engine progress output. Nil silences it.
	LogOutput io.Writer
}

// BuildResult describes a completed build.
type BuildResult struct {
	// ID is the unique identifier assigned to this build.
	ID string
	// ExportPath is the tarball location, empty when no export was
	// requested.
	ExportPath string
}

// Build constructs the image described by spec through a dagger engine.
//
// The build is strictly sequential: base image, env set, tree copy,
// dependency synchronization, entrypoint. If the synchronizer exits
// non-zero the engine surfaces its error and no image is produced; there is
// no partial or best-effort result.
func Build(ctx context.Context, spec *Spec, opts BuildOptions) (*BuildResult, error) {
	err := spec.Validate()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(opts.ContextDir) == "" {
		return nil, fmt.Errorf("image: context directory is blank")
	}

	var clientOpts []dagger.ClientOpt
	if opts.LogOutput != nil {
		clientOpts = append(clientOpts, dagger.WithLogOutput(opts.LogOutput))
	}

	client, err := dagger.Connect(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("image: connecting to build engine: %w", err)
	}
	defer func() { _ = client.Close() }()

	ctr := client.Container().From(spec.BaseImage)

	for _, kv := range spec.Env {
		key, value, _ := strings.Cut(kv, "=")
		ctr = ctr.WithEnvVariable(key, value)
	}

	tree := client.Host().Directory(opts.ContextDir)

	ctr = ctr.
		WithDirectory(spec.AppDir, tree).
		WithWorkdir(spec.AppDir).
		WithExec(spec.SyncArgv).
		WithEntrypoint([]string{spec.Entrypoint})

	result := &BuildResult{ID: uuid.NewString()}

	if opts.ExportPath != "" {
		_, err = ctr.Export(ctx, opts.ExportPath)
		if err != nil {
			return nil, fmt.Errorf("image: exporting image: %w", err)
		}

		result.ExportPath = opts.ExportPath

		return result, nil
	}

	// No export requested: force full evaluation so sync failures still
	// abort the build here.
	_, err = ctr.Sync(ctx)
	if err != nil {
		return nil, fmt.Errorf("image: building: %w", err)
	}

	return result, nil
}
