package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"pydev/bootstrap"
	"pydev/image"
)

// BuildCmd creates the build command, which assembles the project image:
// the full tree copied verbatim, the env set baked in, dependencies
// synchronized from the lock, and the entrypoint installed.
func BuildCmd(cfg *Config, env map[string]string) *Command {
	flags := flag.NewFlagSet("build", flag.ContinueOnError)
	flags.BoolP("help", "h", false, "Show help")
	flags.String("dockerfile", "", "Write a rendered Dockerfile to `path` ('-' for stdout) instead of building")
	flags.String("context", "", "Stage a verbatim copy of the project tree into `dir` and build from it")
	flags.Bool("engine", false, "Build through a dagger engine")
	flags.StringP("output", "o", "", "Export the built image as an OCI tarball to `path` (engine mode)")
	flags.String("base-image", "", "Override the base image")
	flags.Bool("no-dev", false, "Skip the dev dependency group")
	flags.Bool("debug", false, "Print bootstrap and engine details to stderr")

	return &Command{
		Flags: flags,
		Usage: "build [flags]",
		Short: "Build the development environment image",
		Long: "Build the project image: copy the full project tree verbatim, bake in\n" +
			"the environment variable set, run the frozen dependency sync, and set\n" +
			"the entrypoint. Renders a Dockerfile by default; --engine builds\n" +
			"directly through a dagger engine. A failed sync aborts the build and\n" +
			"produces no image.",
		Exec: func(ctx context.Context, _ io.Reader, stdout, stderr io.Writer, _ []string) error {
			debug := newCommandDebugLogger(flags, stderr)
			debugConfigLoading(debug, cfg)

			applySyncFlags(cfg, flags)

			if flags.Changed("base-image") {
				base, _ := flags.GetString("base-image")
				cfg.Image.Base = base
			}

			b, err := newBootstrap(cfg, env)
			if err != nil {
				return err
			}

			debugBootstrap(debug, b)

			// A stale lock would only fail mid-build inside the sync layer;
			// catch it before any image work starts.
			err = checkLockAgainstManifest(b)
			if err != nil {
				return err
			}

			spec := imageSpec(cfg, b)

			contextDir := cfg.EffectiveCwd

			if flags.Changed("context") {
				staged, _ := flags.GetString("context")
				if !filepath.IsAbs(staged) {
					staged = filepath.Join(cfg.EffectiveCwd, staged)
				}

				err = bootstrap.CopyTree(cfg.EffectiveCwd, staged)
				if err != nil {
					return err
				}

				contextDir = staged
			}

			engine, _ := flags.GetBool("engine")
			if !engine {
				return writeDockerfile(flags, stdout, spec)
			}

			var logOutput io.Writer
			if debug.Enabled() {
				logOutput = stderr
			}

			exportPath, _ := flags.GetString("output")

			result, err := image.Build(ctx, spec, image.BuildOptions{
				ContextDir: contextDir,
				ExportPath: exportPath,
				LogOutput:  logOutput,
			})
			if err != nil {
				return err
			}

			if result.ExportPath != "" {
				fprintf(stdout, "built %s -> %s\n", result.ID, result.ExportPath)
			} else {
				fprintf(stdout, "built %s\n", result.ID)
			}

			return nil
		},
	}
}

// imageSpec maps the bootstrap onto an image spec with in-image paths.
func imageSpec(cfg *Config, b *bootstrap.Bootstrap) *image.Spec {
	paths, envSet := b.Rebase(cfg.Image.AppDir)

	return &image.Spec{
		BaseImage:  cfg.Image.Base,
		AppDir:     cfg.Image.AppDir,
		Env:        envSet.Slice(),
		SyncArgv:   b.SyncArgs(),
		Entrypoint: paths.Entrypoint,
	}
}

func writeDockerfile(flags *flag.FlagSet, stdout io.Writer, spec *image.Spec) error {
	rendered, err := image.RenderDockerfile(spec)
	if err != nil {
		return err
	}

	path, _ := flags.GetString("dockerfile")
	if path == "" || path == "-" {
		_, err = io.WriteString(stdout, rendered)
		if err != nil {
			return fmt.Errorf("writing dockerfile: %w", err)
		}

		return nil
	}

	err = os.WriteFile(path, []byte(rendered), 0o644)
	if err != nil {
		return fmt.Errorf("writing dockerfile %s: %w", path, err)
	}

	return nil
}
