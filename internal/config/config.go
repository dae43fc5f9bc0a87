package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains directory configuration.
type Paths struct {
	// WorkDir is the base for the bundled engine (bin/yt-dlp) and cookies.txt.
	WorkDir      string `toml:"work_dir"`
	WorkspaceDir string `toml:"workspace_dir"`
	LogDir       string `toml:"log_dir"`
	DataDir      string `toml:"data_dir"`
}

// Server contains HTTP listener and admission settings.
type Server struct {
	Bind                   string   `toml:"bind"`
	APIToken               string   `toml:"api_token"`
	AllowedHosts           []string `toml:"allowed_hosts"`
	AllowedOrigins         []string `toml:"allowed_origins"`
	MaxConcurrentDownloads int      `toml:"max_concurrent_downloads"`
	AdmissionWaitSeconds   int      `toml:"admission_wait_seconds"`
	RateLimitPerMinute     int      `toml:"rate_limit_per_minute"`
	ShutdownTimeoutSeconds int      `toml:"shutdown_timeout_seconds"`
}

// Engine contains settings for the external extraction engine.
type Engine struct {
	Binary             string `toml:"binary"`
	CookiesFile        string `toml:"cookies_file"`
	UserAgent          string `toml:"user_agent"`
	ProbeTimeoutSecs   int    `toml:"probe_timeout_seconds"`
	FetchTimeoutSecs   int    `toml:"fetch_timeout_seconds"`
	InfoTimeoutSecs    int    `toml:"info_timeout_seconds"`
	MaxMetadataBytes   int64  `toml:"max_metadata_bytes"`
	FFmpegBinary       string `toml:"ffmpeg_binary"`
	StderrSummaryLines int    `toml:"stderr_summary_lines"`
}

// Metadata contains normalization defaults.
type Metadata struct {
	DefaultAuthor        string `toml:"default_author"`
	PlaceholderThumbnail string `toml:"placeholder_thumbnail"`
}

// Cache contains info-response cache settings.
type Cache struct {
	Backend       string `toml:"backend"`
	TTLSeconds    int    `toml:"ttl_seconds"`
	MaxEntries    int    `toml:"max_entries"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisPrefix   string `toml:"redis_prefix"`
}

// History contains request ledger settings.
type History struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

// Workspace contains temp-file janitor settings.
type Workspace struct {
	SweepIntervalSeconds int `toml:"sweep_interval_seconds"`
	MaxAgeSeconds        int `toml:"max_age_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for wavepipe.
//
// Configuration sections by subsystem:
//   - Paths: engine base directory, workspace, logs and data
//   - Server: listener, auth, allow-lists, admission and rate limits
//   - Engine: yt-dlp binary, credentials, user agent and timeouts
//   - Metadata: normalization fallbacks
//   - Cache: info response caching (none, memory, redis)
//   - History: SQLite request ledger
//   - Workspace: stale temp-file sweeping
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Server    Server    `toml:"server"`
	Engine    Engine    `toml:"engine"`
	Metadata  Metadata  `toml:"metadata"`
	Cache     Cache     `toml:"cache"`
	History   History   `toml:"history"`
	Workspace Workspace `toml:"workspace"`
	Logging   Logging   `toml:"logging"`
}

// EnsureDirectories creates the workspace, log and data directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkspaceDir, c.Paths.LogDir, c.Paths.DataDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the SQLite ledger location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.DataDir, "history.db")
}

// ProbeTimeout returns the title probe ceiling.
func (c *Config) ProbeTimeout() time.Duration {
	return seconds(c.Engine.ProbeTimeoutSecs)
}

// FetchTimeout returns the fetch/transcode ceiling.
func (c *Config) FetchTimeout() time.Duration {
	return seconds(c.Engine.FetchTimeoutSecs)
}

// InfoTimeout returns the metadata dump ceiling.
func (c *Config) InfoTimeout() time.Duration {
	return seconds(c.Engine.InfoTimeoutSecs)
}

// AdmissionWait returns how long a download waits for a free slot.
func (c *Config) AdmissionWait() time.Duration {
	return seconds(c.Server.AdmissionWaitSeconds)
}

// ShutdownTimeout returns the graceful HTTP shutdown window.
func (c *Config) ShutdownTimeout() time.Duration {
	return seconds(c.Server.ShutdownTimeoutSeconds)
}

// CacheTTL returns the info cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return seconds(c.Cache.TTLSeconds)
}

// SweepInterval returns the janitor period.
func (c *Config) SweepInterval() time.Duration {
	return seconds(c.Workspace.SweepIntervalSeconds)
}

// WorkspaceMaxAge returns the age after which a leftover workspace file is removed.
func (c *Config) WorkspaceMaxAge() time.Duration {
	return seconds(c.Workspace.MaxAgeSeconds)
}

func seconds(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}
