package testsupport

import (
	"path/filepath"
	"testing"

	"tubefeed/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in unique temp directories per
// test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Instances.URLs = []string{"https://instance.test"}

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure config directories: %v", err)
	}
	return &cfg
}

// WithInstances overrides the fallback instance list on the test config.
func WithInstances(urls ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Instances.URLs = urls
	}
}

// WithFallbackDisabled turns the fallback backend off.
func WithFallbackDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Backend.FallbackEnabled = false
	}
}
