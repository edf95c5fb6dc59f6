package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// Backend selects metadata sources and request localization.
type Backend struct {
	// Primary names the backend tried first: innertube (the default)
	// or invidious. With invidious the web API joins the fallback tier.
	Primary string `toml:"primary"`

	// FallbackEnabled gates the fallback tier entirely. Disabling
	// it means failures surface instead of being retried elsewhere.
	FallbackEnabled bool   `toml:"fallback_enabled"`
	Language        string `toml:"language"`
	Region          string `toml:"region"`
}

// Instances names the fallback endpoints to rotate across.
type Instances struct {
	URLs []string `toml:"urls"`
}

// Resolver controls the resolution cache.
type Resolver struct {
	CacheEnabled bool `toml:"cache_enabled"`
}

// Feed controls subscription refresh behavior.
type Feed struct {
	Concurrency int `toml:"concurrency"`
}

// Probe controls the daemon's instance health checks.
type Probe struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// Retention controls background cleanup.
type Retention struct {
	HistoryDays int `toml:"history_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// SponsorBlock configures the skip-segment integration.
type SponsorBlock struct {
	Enabled    bool     `toml:"enabled"`
	BaseURL    string   `toml:"base_url"`
	Categories []string `toml:"categories"`
}

// DeArrow configures the replacement-branding integration.
type DeArrow struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

// Config encapsulates all configuration values.
//
// Configuration sections by subsystem:
//   - Paths: data, cache, and log directories
//   - Backend: primary/fallback selection and localization
//   - Instances: fallback endpoint list
//   - Resolver: resolution cache toggle
//   - Feed: subscription refresh concurrency
//   - Probe: daemon health check cadence
//   - Retention: history cleanup horizon
//   - Logging: log format and level
//   - SponsorBlock, DeArrow: optional crowd-sourced annotations
type Config struct {
	Paths        Paths        `toml:"paths"`
	Backend      Backend      `toml:"backend"`
	Instances    Instances    `toml:"instances"`
	Resolver     Resolver     `toml:"resolver"`
	Feed         Feed         `toml:"feed"`
	Probe        Probe        `toml:"probe"`
	Retention    Retention    `toml:"retention"`
	Logging      Logging      `toml:"logging"`
	SponsorBlock SponsorBlock `toml:"sponsorblock"`
	DeArrow      DeArrow      `toml:"dearrow"`
}

// DefaultConfigPath returns the absolute path to the default
// configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tubefeed/config.toml")
}

// Load locates, parses, and validates a configuration file. The
// returned config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tubefeed.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the application writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the profile database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "profiles.db")
}

// ResolveCachePath returns the resolution cache location.
func (c *Config) ResolveCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "resolve.db")
}

// LockPath returns the daemon's single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "daemon.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other
// packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified
// location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
