package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"pydev/bootstrap"
	"pydev/image"
)

// ErrDuplicateConfigFiles is returned when both .json and .jsonc config files exist.
var ErrDuplicateConfigFiles = errors.New("duplicate config files")

// Config holds the application configuration.
type Config struct {
	Source     string      `json:"source,omitempty"`
	Tests      string      `json:"tests,omitempty"`
	Venv       string      `json:"venv,omitempty"`
	Entrypoint string      `json:"entrypoint,omitempty"`
	Dev        *bool       `json:"dev,omitempty"`
	Image      ImageConfig `json:"image"`
	Watch      WatchConfig `json:"watch"`

	// Resolved (not serialized)
	EffectiveCwd      string            `json:"-"`
	LoadedConfigFiles map[string]string `json:"-"`
}

// ImageConfig holds image build settings.
type ImageConfig struct {
	Base   string `json:"base,omitempty"`
	AppDir string `json:"appDir,omitempty"`
}

// WatchConfig holds file-watch settings.
type WatchConfig struct {
	// Mode is "poll" (default) or "native".
	Mode string `json:"mode,omitempty"`
	// Interval is the poll interval as a Go duration string (e.g. "500ms").
	Interval string `json:"interval,omitempty"`
}

// Watch modes.
const (
	WatchModePoll   = "poll"
	WatchModeNative = "native"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Dev: boolPtr(true),
		Image: ImageConfig{
			Base:   image.DefaultBaseImage,
			AppDir: image.DefaultAppDir,
		},
		Watch: WatchConfig{
			Mode: WatchModePoll,
		},
	}
}

func boolPtr(b bool) *bool {
	return &b
}

// bootstrapConfig maps the application config onto the bootstrap library
// config. Empty fields stay empty; the library applies its own defaults.
func (c *Config) bootstrapConfig() bootstrap.Config {
	return bootstrap.Config{
		SourceDir:  c.Source,
		TestsDir:   c.Tests,
		VenvDir:    c.Venv,
		Entrypoint: c.Entrypoint,
		DevExtra:   c.Dev,
	}
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // --config flag value
	Env             map[string]string // Environment variables (for XDG_CONFIG_HOME)
}

// LoadConfig loads configuration with the following precedence (later overrides earlier):
//  1. Built-in defaults
//  2. Global config: $XDG_CONFIG_HOME/pydev/config.json or config.jsonc
//     (defaults to ~/.config/pydev/) - always loaded if exists
//  3. Project config OR --config path (not both):
//     - Without --config: .pydev.json or .pydev.jsonc in workDir
//     - With --config: uses that path instead of project config
//
// Both .json and .jsonc files support comments via tailscale/hujson.
// If both .json and .jsonc exist at the same location, it's an error.
func LoadConfig(input LoadConfigInput) (Config, error) {
	// Resolve effective working directory
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	// Make workDir absolute
	if !filepath.IsAbs(workDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}

		workDir = filepath.Join(cwd, workDir)
	}

	// Start with defaults
	cfg := DefaultConfig()
	cfg.LoadedConfigFiles = map[string]string{}

	// Load global config (always loaded if exists)
	globalConfigBasePath, err := getUserConfigBasePath(input.Env)
	if err != nil {
		return Config{}, err
	}

	if globalConfigBasePath != "" {
		globalConfigPath, findErr := findConfigFile(globalConfigBasePath)
		if findErr == nil {
			globalCfg, loadErr := loadConfigFile(globalConfigPath)
			if loadErr != nil {
				// File exists but is invalid - this is an error
				return Config{}, loadErr
			}

			cfg = mergeConfigs(&cfg, &globalCfg)
			cfg.LoadedConfigFiles["global"] = globalConfigPath
		} else if !errors.Is(findErr, os.ErrNotExist) {
			// Error finding config (e.g., both .json and .jsonc exist)
			return Config{}, findErr
		}
		// If os.ErrNotExist, silently skip: global config is optional
	}

	// Load project config OR --config path (not both)
	if input.ConfigPath != "" {
		// Explicit --config path replaces project config
		configPath := input.ConfigPath
		if !filepath.IsAbs(configPath) {
			configPath = filepath.Join(workDir, configPath)
		}

		explicitCfg, err := loadConfigFile(configPath)
		if err != nil {
			return Config{}, err
		}

		cfg = mergeConfigs(&cfg, &explicitCfg)
		cfg.LoadedConfigFiles["explicit"] = configPath
	} else {
		// Load project config
		projectConfigBasePath := filepath.Join(workDir, ".pydev")

		projectConfigPath, findErr := findConfigFile(projectConfigBasePath)
		if findErr == nil {
			projectCfg, loadErr := loadConfigFile(projectConfigPath)
			if loadErr != nil {
				// File exists but is invalid - this is an error
				return Config{}, loadErr
			}

			cfg = mergeConfigs(&cfg, &projectCfg)
			cfg.LoadedConfigFiles["project"] = projectConfigPath
		} else if !errors.Is(findErr, os.ErrNotExist) {
			// Error finding config (e.g., both .json and .jsonc exist)
			return Config{}, findErr
		}
		// If os.ErrNotExist, silently skip: project config is optional
	}

	cfg.EffectiveCwd = workDir

	return cfg, nil
}

// findConfigFile finds a config file at the given base path (directory +
// base name without extension). It checks for both .json and .jsonc
// extensions and returns an error if both exist.
func findConfigFile(basePath string) (string, error) {
	jsonPath := basePath + ".json"
	jsoncPath := basePath + ".jsonc"

	jsonExists, jsonErr := fileExists(jsonPath)
	jsoncExists, jsoncErr := fileExists(jsoncPath)

	// Return errors that aren't "not found"
	if jsonErr != nil && !errors.Is(jsonErr, os.ErrNotExist) {
		return "", fmt.Errorf("checking %s: %w", jsonPath, jsonErr)
	}

	if jsoncErr != nil && !errors.Is(jsoncErr, os.ErrNotExist) {
		return "", fmt.Errorf("checking %s: %w", jsoncPath, jsoncErr)
	}

	if jsonExists && jsoncExists {
		return "", fmt.Errorf("%w: both %s and %s exist; remove one", ErrDuplicateConfigFiles, jsonPath, jsoncPath)
	}

	if jsonExists {
		return jsonPath, nil
	}

	if jsoncExists {
		return jsoncPath, nil
	}

	return "", os.ErrNotExist
}

// fileExists checks if a file exists and is not a directory.
// Returns (true, nil) if file exists, (false, nil) if not found,
// or (false, error) for other errors (e.g., permission denied).
func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("checking file %s: %w", path, err)
	}

	if info.IsDir() {
		return false, nil
	}

	return true, nil
}

// loadConfigFile loads and parses a JSON/JSONC config file.
// Both .json and .jsonc files support comments via hujson.
func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	// Standardize JSONC to JSON (handles comments in both .json and .jsonc)
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// mergeConfigs merges override into base, with override taking precedence.
// Empty/zero values in override do not override base values.
func mergeConfigs(base, override *Config) Config {
	result := *base

	if override.Source != "" {
		result.Source = override.Source
	}

	if override.Tests != "" {
		result.Tests = override.Tests
	}

	if override.Venv != "" {
		result.Venv = override.Venv
	}

	if override.Entrypoint != "" {
		result.Entrypoint = override.Entrypoint
	}

	if override.Dev != nil {
		result.Dev = override.Dev
	}

	if override.Image.Base != "" {
		result.Image.Base = override.Image.Base
	}

	if override.Image.AppDir != "" {
		result.Image.AppDir = override.Image.AppDir
	}

	if override.Watch.Mode != "" {
		result.Watch.Mode = override.Watch.Mode
	}

	if override.Watch.Interval != "" {
		result.Watch.Interval = override.Watch.Interval
	}

	return result
}

// getUserConfigBasePath returns the user config base path (without extension).
// Uses env map for XDG_CONFIG_HOME instead of os.Getenv().
func getUserConfigBasePath(env map[string]string) (string, error) {
	if xdg, ok := env["XDG_CONFIG_HOME"]; ok && xdg != "" {
		return filepath.Join(xdg, "pydev", "config"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, ".config", "pydev", "config"), nil
}
