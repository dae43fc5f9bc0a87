package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"

	"wavepipe/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "wavepipe", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Paths.WorkspaceDir != filepath.Clean(os.TempDir()) {
		t.Fatalf("expected workspace dir to default to temp dir, got %q", cfg.Paths.WorkspaceDir)
	}
	if cfg.Engine.CookiesFile != filepath.Join(cfg.Paths.WorkDir, "cookies.txt") {
		t.Fatalf("expected cookies under work dir, got %q", cfg.Engine.CookiesFile)
	}
	if cfg.Server.Bind != "127.0.0.1:3000" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if diff := cmp.Diff([]string{"youtube.com", "youtu.be"}, cfg.Server.AllowedHosts); diff != "" {
		t.Fatalf("allowed hosts mismatch (-want +got):\n%s", diff)
	}
	if cfg.Metadata.DefaultAuthor != "YouTube" {
		t.Fatalf("unexpected default author: %q", cfg.Metadata.DefaultAuthor)
	}
	if cfg.Engine.MaxMetadataBytes != 10*1024*1024 {
		t.Fatalf("unexpected metadata cap: %d", cfg.Engine.MaxMetadataBytes)
	}
	if cfg.FetchTimeout() != 30*time.Minute {
		t.Fatalf("unexpected fetch timeout: %s", cfg.FetchTimeout())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.DataDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "wavepipe.toml")

	type payload struct {
		Paths struct {
			WorkDir      string `toml:"work_dir"`
			WorkspaceDir string `toml:"workspace_dir"`
		} `toml:"paths"`
		Server struct {
			Bind         string   `toml:"bind"`
			AllowedHosts []string `toml:"allowed_hosts"`
		} `toml:"server"`
		Engine struct {
			FetchTimeoutSecs int `toml:"fetch_timeout_seconds"`
		} `toml:"engine"`
		Cache struct {
			Backend string `toml:"backend"`
		} `toml:"cache"`
	}
	custom := payload{}
	custom.Paths.WorkDir = filepath.Join(tempDir, "engine")
	custom.Paths.WorkspaceDir = filepath.Join(tempDir, "work")
	custom.Server.Bind = "0.0.0.0:8080"
	custom.Server.AllowedHosts = []string{" WWW.YouTube.com ", "youtu.be", "youtube.com", ""}
	custom.Engine.FetchTimeoutSecs = 600
	custom.Cache.Backend = "NONE"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Server.Bind != "0.0.0.0:8080" {
		t.Fatalf("expected bind override, got %q", cfg.Server.Bind)
	}
	if diff := cmp.Diff([]string{"youtube.com", "youtu.be"}, cfg.Server.AllowedHosts); diff != "" {
		t.Fatalf("allowed hosts mismatch (-want +got):\n%s", diff)
	}
	if cfg.Engine.CookiesFile != filepath.Join(tempDir, "engine", "cookies.txt") {
		t.Fatalf("unexpected cookies path: %q", cfg.Engine.CookiesFile)
	}
	if cfg.Paths.WorkspaceDir != filepath.Join(tempDir, "work") {
		t.Fatalf("unexpected workspace dir: %q", cfg.Paths.WorkspaceDir)
	}
	if cfg.Cache.Backend != config.CacheBackendNone {
		t.Fatalf("expected cache backend none, got %q", cfg.Cache.Backend)
	}
}

func TestEnvVarOverridesConfigFileSecrets(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "wavepipe.toml")
	contents := `
[server]
api_token = "file-token"

[cache]
backend = "redis"
redis_addr = "127.0.0.1:6379"
redis_password = "file-pass"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WAVEPIPE_API_TOKEN", "env-token")
	t.Setenv("WAVEPIPE_REDIS_PASSWORD", "env-pass")
	t.Setenv("WAVEPIPE_BIND", "127.0.0.1:9999")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.APIToken != "env-token" {
		t.Errorf("expected api token from env, got %q", cfg.Server.APIToken)
	}
	if cfg.Cache.RedisPassword != "env-pass" {
		t.Errorf("expected redis password from env, got %q", cfg.Cache.RedisPassword)
	}
	if cfg.Server.Bind != "127.0.0.1:9999" {
		t.Errorf("expected bind from env, got %q", cfg.Server.Bind)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "allowed_hosts") {
		t.Fatalf("sample config missing allowed_hosts: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Engine.MaxMetadataBytes != 10485760 {
		t.Fatalf("unexpected sample metadata cap: %d", cfg.Engine.MaxMetadataBytes)
	}
	if !strings.Contains(cfg.Paths.WorkDir, "wavepipe") {
		t.Fatalf("expected work dir to contain wavepipe, got %q", cfg.Paths.WorkDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"bind":           func(c *config.Config) { c.Server.Bind = "nope" },
		"hosts":          func(c *config.Config) { c.Server.AllowedHosts = nil },
		"concurrency":    func(c *config.Config) { c.Server.MaxConcurrentDownloads = -1 },
		"fetch timeout":  func(c *config.Config) { c.Engine.FetchTimeoutSecs = 0 },
		"metadata cap":   func(c *config.Config) { c.Engine.MaxMetadataBytes = 0 },
		"cache backend":  func(c *config.Config) { c.Cache.Backend = "memcached" },
		"redis addr":     func(c *config.Config) { c.Cache.Backend = config.CacheBackendRedis },
		"sweep max age":  func(c *config.Config) { c.Workspace.MaxAgeSeconds = 0 },
		"max age < kill": func(c *config.Config) { c.Workspace.MaxAgeSeconds = 60 },
		"log format":     func(c *config.Config) { c.Logging.Format = "xml" },
		"log level":      func(c *config.Config) { c.Logging.Level = "trace" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadReportsParseErrorPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[server]\nbind = \n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), path+":2:") {
		t.Fatalf("expected file and line in error, got %v", err)
	}
}

func TestLoadRejectsDirectory(t *testing.T) {
	if _, _, _, err := config.Load(t.TempDir()); err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
}
