// Package infocache caches normalized metadata so repeated info lookups for
// the same page skip the engine.
package infocache

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"wavepipe/internal/config"
	"wavepipe/internal/metadata"
)

// Cache stores normalized metadata by page key.
type Cache interface {
	// Get returns the cached result; misses and backend errors both report false.
	Get(ctx context.Context, key string) (metadata.Result, bool)
	// Set stores value for the configured TTL. Failures are logged, not returned.
	Set(ctx context.Context, key string, value metadata.Result)
	// Stats reports hit and miss counters.
	Stats() Stats
	// Close releases background resources.
	Close() error
}

// Stats holds cache counters.
type Stats struct {
	Backend   string `json:"backend"`
	Hits      int64  `json:"hits"`
	Misses    int64  `json:"misses"`
	Sets      int64  `json:"sets"`
	Evictions int64  `json:"evictions"`
	Size      int    `json:"size"`
}

// New builds the backend selected by cache.backend.
func New(cfg *config.Config, logger *slog.Logger) (Cache, error) {
	ttl := cfg.CacheTTL()
	switch cfg.Cache.Backend {
	case config.CacheBackendNone, "":
		return Nop{}, nil
	case config.CacheBackendMemory:
		return NewMemory(ttl, cfg.Cache.MaxEntries, time.Minute), nil
	case config.CacheBackendRedis:
		return NewRedis(RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   cfg.Cache.RedisPrefix,
			TTL:      ttl,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Key canonicalizes a page URL so trivially different spellings share an
// entry: scheme and host are lowercased, www. and m. are dropped, the
// fragment is removed and query parameters are sorted.
func Key(raw string) string {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	if port := parsed.Port(); port != "" {
		host += ":" + port
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = host
	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.RawQuery = parsed.Query().Encode()
	return parsed.String()
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (metadata.Result, bool) { return metadata.Result{}, false }
func (Nop) Set(context.Context, string, metadata.Result)       {}
func (Nop) Stats() Stats                                        { return Stats{Backend: config.CacheBackendNone} }
func (Nop) Close() error                                        { return nil }
