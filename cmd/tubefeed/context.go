package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tubefeed/internal/backend"
	"tubefeed/internal/backend/innertube"
	"tubefeed/internal/backend/invidious"
	"tubefeed/internal/config"
	"tubefeed/internal/health"
	"tubefeed/internal/logging"
	"tubefeed/internal/resolve"
	"tubefeed/internal/store"
)

type commandContext struct {
	configFlag  *string
	profileFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, profileFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		profileFlag: profileFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// ensureLogger builds a file-only logger. CLI output goes to stdout;
// log lines would pollute tables and piped output.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		if cfg == nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "tubefeed.log")},
		})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) withStore(ctx context.Context, fn func(context.Context, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(ctx, st)
}

// currentProfile resolves the --profile flag, falling back to the
// default profile created on first open.
func (c *commandContext) currentProfile(ctx context.Context, st *store.Store) (*store.Profile, error) {
	name := store.DefaultProfileName
	if c.profileFlag != nil && strings.TrimSpace(*c.profileFlag) != "" {
		name = strings.TrimSpace(*c.profileFlag)
	}
	profile, err := st.GetProfileByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", name, err)
	}
	return profile, nil
}

// withResolver assembles the resolution stack: primary backend, ranked
// fallback adapters, persisted health state, and the on-disk cache.
// Monitor state is written back when fn returns so scores and circuit
// breakers accumulate across invocations.
func (c *commandContext) withResolver(ctx context.Context, st *store.Store, fn func(context.Context, *resolve.Orchestrator) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger := c.ensureLogger()

	primary, fallbacks, monitored := buildBackends(cfg, logger)

	monitor := health.NewMonitor(monitored)
	saved, err := st.LoadInstanceHealth(ctx)
	if err != nil {
		return err
	}
	monitor.Restore(saved)

	var cache *resolve.Cache
	if cfg.Resolver.CacheEnabled {
		cache, err = resolve.OpenCache(cfg.ResolveCachePath())
		if err != nil {
			return fmt.Errorf("open resolve cache: %w", err)
		}
		defer cache.Close()
	}

	orchestrator := resolve.New(primary, fallbacks, monitor, resolve.Options{
		FallbackEnabled: cfg.Backend.FallbackEnabled,
		Cache:           cache,
		Logger:          logger,
	})

	runErr := fn(ctx, orchestrator)

	if err := st.SaveInstanceHealth(ctx, monitor.Snapshot()); err != nil {
		logger.Warn("persist instance health", "error", err)
	}
	return runErr
}

// buildBackends assembles the primary adapter, the fallback tier, and
// the endpoints the health monitor tracks, honoring backend.primary.
// With invidious as primary, the first configured instance answers
// first and the web API joins the fallback tier behind the remaining
// instances.
func buildBackends(cfg *config.Config, logger *slog.Logger) (backend.Resolver, map[string]backend.Resolver, []string) {
	web := innertube.NewClient(cfg.Backend.Language, cfg.Backend.Region, logger)

	if cfg.Backend.Primary == config.BackendInvidious && len(cfg.Instances.URLs) > 0 {
		primary := invidious.NewClient(cfg.Instances.URLs[0], cfg.Backend.Region)
		rest := cfg.Instances.URLs[1:]
		fallbacks := make(map[string]backend.Resolver, len(rest)+1)
		monitored := make([]string, 0, len(rest)+1)
		for _, instanceURL := range rest {
			fallbacks[instanceURL] = invidious.NewClient(instanceURL, cfg.Backend.Region)
			monitored = append(monitored, instanceURL)
		}
		fallbacks[web.Endpoint()] = web
		monitored = append(monitored, web.Endpoint())
		return primary, fallbacks, monitored
	}

	fallbacks := make(map[string]backend.Resolver, len(cfg.Instances.URLs))
	for _, instanceURL := range cfg.Instances.URLs {
		fallbacks[instanceURL] = invidious.NewClient(instanceURL, cfg.Backend.Region)
	}
	return web, fallbacks, cfg.Instances.URLs
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
