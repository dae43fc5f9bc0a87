package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateWorkspace(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q: %w", c.Server.Bind, err)
	}
	if len(c.Server.AllowedHosts) == 0 {
		return errors.New("server.allowed_hosts must list at least one host")
	}
	if c.Server.MaxConcurrentDownloads < 0 {
		return errors.New("server.max_concurrent_downloads must be >= 0")
	}
	if c.Server.AdmissionWaitSeconds < 0 {
		return errors.New("server.admission_wait_seconds must be >= 0")
	}
	if c.Server.RateLimitPerMinute < 0 {
		return errors.New("server.rate_limit_per_minute must be >= 0")
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return errors.New("server.shutdown_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.ProbeTimeoutSecs <= 0 {
		return errors.New("engine.probe_timeout_seconds must be positive")
	}
	if c.Engine.FetchTimeoutSecs <= 0 {
		return errors.New("engine.fetch_timeout_seconds must be positive")
	}
	if c.Engine.InfoTimeoutSecs <= 0 {
		return errors.New("engine.info_timeout_seconds must be positive")
	}
	if c.Engine.MaxMetadataBytes <= 0 {
		return errors.New("engine.max_metadata_bytes must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case CacheBackendNone, CacheBackendMemory:
	case CacheBackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr must be set when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend: unsupported value %q", c.Cache.Backend)
	}
	if c.Cache.Backend != CacheBackendNone && c.Cache.TTLSeconds <= 0 {
		return errors.New("cache.ttl_seconds must be positive when caching is enabled")
	}
	if c.Cache.MaxEntries < 0 {
		return errors.New("cache.max_entries must be >= 0")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	return nil
}

func (c *Config) validateWorkspace() error {
	if c.Workspace.SweepIntervalSeconds < 0 {
		return errors.New("workspace.sweep_interval_seconds must be >= 0")
	}
	if c.Workspace.SweepIntervalSeconds > 0 && c.Workspace.MaxAgeSeconds <= 0 {
		return errors.New("workspace.max_age_seconds must be positive when sweeping is enabled")
	}
	if c.Workspace.MaxAgeSeconds > 0 && c.Workspace.MaxAgeSeconds < c.Engine.FetchTimeoutSecs {
		return fmt.Errorf("workspace.max_age_seconds (%d) must not be shorter than engine.fetch_timeout_seconds (%d)",
			c.Workspace.MaxAgeSeconds, c.Engine.FetchTimeoutSecs)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
