package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizeInstances()
	c.normalizeAnnotations()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBackend() {
	c.Backend.Primary = strings.ToLower(strings.TrimSpace(c.Backend.Primary))
	if c.Backend.Primary == "" {
		c.Backend.Primary = BackendInnerTube
	}
	c.Backend.Language = strings.TrimSpace(c.Backend.Language)
	if c.Backend.Language == "" {
		c.Backend.Language = defaultLanguage
	}
	c.Backend.Region = strings.ToUpper(strings.TrimSpace(c.Backend.Region))
	if c.Backend.Region == "" {
		c.Backend.Region = defaultRegion
	}
}

func (c *Config) normalizeInstances() {
	urls := make([]string, 0, len(c.Instances.URLs))
	seen := make(map[string]bool, len(c.Instances.URLs))
	for _, raw := range c.Instances.URLs {
		url := strings.TrimRight(strings.TrimSpace(raw), "/")
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		urls = append(urls, url)
	}
	if len(urls) == 0 {
		urls = append(urls, defaultInstances...)
	}
	c.Instances.URLs = urls
}

func (c *Config) normalizeAnnotations() {
	c.SponsorBlock.BaseURL = strings.TrimRight(strings.TrimSpace(c.SponsorBlock.BaseURL), "/")
	if c.SponsorBlock.BaseURL == "" {
		c.SponsorBlock.BaseURL = defaultAnnotationServer
	}
	c.DeArrow.BaseURL = strings.TrimRight(strings.TrimSpace(c.DeArrow.BaseURL), "/")
	if c.DeArrow.BaseURL == "" {
		c.DeArrow.BaseURL = defaultAnnotationServer
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
