package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	if err := c.normalizeEngine(); err != nil {
		return err
	}
	c.normalizeMetadata()
	c.normalizeCache()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = os.TempDir()
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	if value, ok := os.LookupEnv("WAVEPIPE_BIND"); ok && strings.TrimSpace(value) != "" {
		c.Server.Bind = value
	}
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if value, ok := os.LookupEnv("WAVEPIPE_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Server.APIToken = value
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	c.Server.AllowedHosts = normalizeHosts(c.Server.AllowedHosts)
	c.Server.AllowedOrigins = trimList(c.Server.AllowedOrigins)
}

func (c *Config) normalizeEngine() error {
	var err error
	c.Engine.Binary = strings.TrimSpace(c.Engine.Binary)
	if c.Engine.Binary != "" && strings.ContainsAny(c.Engine.Binary, `/\~`) {
		if c.Engine.Binary, err = expandPath(c.Engine.Binary); err != nil {
			return fmt.Errorf("engine.binary: %w", err)
		}
	}
	c.Engine.CookiesFile = strings.TrimSpace(c.Engine.CookiesFile)
	if c.Engine.CookiesFile == "" {
		c.Engine.CookiesFile = filepath.Join(c.Paths.WorkDir, "cookies.txt")
	}
	if c.Engine.CookiesFile, err = expandPath(c.Engine.CookiesFile); err != nil {
		return fmt.Errorf("engine.cookies_file: %w", err)
	}
	c.Engine.UserAgent = strings.TrimSpace(c.Engine.UserAgent)
	if c.Engine.UserAgent == "" {
		c.Engine.UserAgent = defaultUserAgent
	}
	c.Engine.FFmpegBinary = strings.TrimSpace(c.Engine.FFmpegBinary)
	if c.Engine.FFmpegBinary == "" {
		c.Engine.FFmpegBinary = defaultFFmpegBinary
	}
	if c.Engine.StderrSummaryLines <= 0 {
		c.Engine.StderrSummaryLines = defaultStderrSummaryLines
	}
	return nil
}

func (c *Config) normalizeMetadata() {
	c.Metadata.DefaultAuthor = strings.TrimSpace(c.Metadata.DefaultAuthor)
	if c.Metadata.DefaultAuthor == "" {
		c.Metadata.DefaultAuthor = defaultAuthor
	}
	c.Metadata.PlaceholderThumbnail = strings.TrimSpace(c.Metadata.PlaceholderThumbnail)
}

func (c *Config) normalizeCache() {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = defaultCacheBackend
	}
	c.Cache.RedisAddr = strings.TrimSpace(c.Cache.RedisAddr)
	if value, ok := os.LookupEnv("WAVEPIPE_REDIS_PASSWORD"); ok && value != "" {
		c.Cache.RedisPassword = value
	}
	if strings.TrimSpace(c.Cache.RedisPrefix) == "" {
		c.Cache.RedisPrefix = defaultRedisPrefix
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

func normalizeHosts(hosts []string) []string {
	seen := make(map[string]struct{}, len(hosts))
	out := make([]string, 0, len(hosts))
	for _, host := range hosts {
		host = strings.ToLower(strings.TrimSpace(host))
		host = strings.TrimPrefix(host, "www.")
		host = strings.Trim(host, ".")
		if host == "" {
			continue
		}
		if _, ok := seen[host]; ok {
			continue
		}
		seen[host] = struct{}{}
		out = append(out, host)
	}
	return out
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}
