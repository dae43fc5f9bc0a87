// Package testsupport builds configs and fake engines for tests that drive
// the proxy end to end.
package testsupport

import (
	"path/filepath"
	"testing"

	"wavepipe/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in a per-test temp directory, with
// caching, rate limiting and admission waits disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = base
	cfg.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Engine.CookiesFile = filepath.Join(base, "cookies.txt")
	cfg.Server.Bind = "127.0.0.1:0"
	cfg.Server.RateLimitPerMinute = 0
	cfg.Server.AdmissionWaitSeconds = 0
	cfg.Cache.Backend = config.CacheBackendNone
	cfg.Logging.Level = "error"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithEngine points the config at an engine binary, typically from WriteFakeEngine.
func WithEngine(path string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.Binary = path
		cfg.Engine.FFmpegBinary = path
	}
}

// WithHistory enables the request ledger.
func WithHistory() ConfigOption {
	return func(cfg *config.Config) {
		cfg.History.Enabled = true
	}
}
