// Package config loads the taskdeck configuration: a YAML file in the
// taskdeck directory, overridable per-value through environment
// variables. A .env file next to the config is loaded first so desktop
// launchers can carry the upload credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for taskdeck.
type Config struct {
	// API is the task service settings.
	API APIConfig `yaml:"api"`
	// Upload is the Cloudinary settings. Both values must be present
	// for attachments to work; everything else functions without them.
	Upload UploadConfig `yaml:"upload"`
	// Theme is the startup theme name (nord, dracula, gruvbox, catppuccin).
	Theme string `yaml:"theme"`
}

// APIConfig holds the task service endpoint settings.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
}

// UploadConfig holds the Cloudinary upload settings.
type UploadConfig struct {
	CloudName    string `yaml:"cloud_name"`
	UploadPreset string `yaml:"upload_preset"`
}

// Path returns the root directory for taskdeck data. It uses
// $TASKDECK_PATH if set, otherwise defaults to ~/.taskdeck.
func Path() string {
	if v := os.Getenv("TASKDECK_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".taskdeck")
	}
	return filepath.Join(home, ".taskdeck")
}

// FilePath returns the path to the config file.
func FilePath() string {
	return filepath.Join(Path(), "config.yaml")
}

// DotenvPath returns the path to the .env file.
func DotenvPath() string {
	return filepath.Join(Path(), ".env")
}

// Load reads the YAML config file at path and applies environment
// overrides. A missing file is not an error; env vars alone are a valid
// configuration.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Fall through to env overrides.
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

// applyEnv lets environment variables override file values. The env
// names mirror the web client's NEXT_PUBLIC_* variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TASKDECK_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("TASKDECK_CLOUDINARY_CLOUD_NAME"); v != "" {
		cfg.Upload.CloudName = v
	}
	if v := os.Getenv("TASKDECK_CLOUDINARY_UPLOAD_PRESET"); v != "" {
		cfg.Upload.UploadPreset = v
	}
	if v := os.Getenv("TASKDECK_THEME"); v != "" {
		cfg.Theme = v
	}
}

// Validate checks the settings needed before the client can talk to the
// task service at all. Upload settings are checked lazily at upload time
// instead, since the app is usable without them.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is not set (config file %s or TASKDECK_API_URL)", FilePath())
	}
	return nil
}
