package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateInstances(); err != nil {
		return err
	}
	if err := c.validateIntervals(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	switch c.Backend.Primary {
	case BackendInnerTube, BackendInvidious:
	default:
		return fmt.Errorf("backend.primary must be %s or %s, got %q", BackendInnerTube, BackendInvidious, c.Backend.Primary)
	}
	if c.Backend.Language == "" {
		return errors.New("backend.language must be set")
	}
	if len(c.Backend.Region) != 2 {
		return fmt.Errorf("backend.region must be a two-letter country code, got %q", c.Backend.Region)
	}
	return nil
}

func (c *Config) validateInstances() error {
	if c.Backend.FallbackEnabled && len(c.Instances.URLs) == 0 {
		return errors.New("instances.urls must name at least one endpoint when backend.fallback_enabled is true")
	}
	if c.Backend.Primary == BackendInvidious && len(c.Instances.URLs) == 0 {
		return errors.New("instances.urls must name at least one endpoint when backend.primary is invidious")
	}
	for _, raw := range c.Instances.URLs {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("instances.urls entry %q is not a valid http(s) URL", raw)
		}
	}
	return nil
}

func (c *Config) validateIntervals() error {
	if c.Feed.Concurrency <= 0 {
		return errors.New("feed.concurrency must be positive")
	}
	if c.Probe.IntervalSeconds <= 0 {
		return errors.New("probe.interval_seconds must be positive")
	}
	if c.Retention.HistoryDays < 0 {
		return errors.New("retention.history_days must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if strings.TrimSpace(c.SponsorBlock.BaseURL) == "" && c.SponsorBlock.Enabled {
		return errors.New("sponsorblock.base_url must be set when sponsorblock.enabled is true")
	}
	return nil
}
