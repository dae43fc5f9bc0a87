package infocache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"

	"wavepipe/internal/config"
	"wavepipe/internal/infocache"
	"wavepipe/internal/metadata"
)

func sampleCollection() metadata.Result {
	return metadata.Result{Collection: &metadata.Collection{
		Title:           "Mix",
		Author:          "Curator",
		TotalCount:      2,
		DurationSeconds: 90,
		Duration:        "1:30",
		Tracks: []metadata.Track{
			{ID: "a", Title: "A", DurationSeconds: 30, Duration: "0:30"},
			{ID: "b", Title: "B", DurationSeconds: 60, Duration: "1:00"},
		},
	}}
}

func TestKeyCanonicalizesEquivalentURLs(t *testing.T) {
	want := infocache.Key("https://youtube.com/watch?list=PL1&v=abc")
	for _, raw := range []string{
		"https://www.youtube.com/watch?v=abc&list=PL1",
		"HTTPS://WWW.YOUTUBE.COM/watch?v=abc&list=PL1#t=30",
		"https://m.youtube.com/watch?list=PL1&v=abc",
	} {
		if got := infocache.Key(raw); got != want {
			t.Fatalf("Key(%q) = %q, want %q", raw, got, want)
		}
	}
	if infocache.Key("https://youtube.com/watch?v=abc") == infocache.Key("https://youtube.com/watch?v=xyz") {
		t.Fatal("different videos must not share a key")
	}
}

func TestRedisRoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	cache, err := infocache.NewRedis(infocache.RedisConfig{Addr: mr.Addr(), Prefix: "wp:", TTL: time.Minute}, nil)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer cache.Close()
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatal("expected miss on empty cache")
	}
	cache.Set(ctx, "k", sampleCollection())
	if !mr.Exists("wp:k") {
		t.Fatal("expected prefixed key in redis")
	}
	got, ok := cache.Get(ctx, "k")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if diff := cmp.Diff(sampleCollection(), got); diff != "" {
		t.Fatalf("cached value mismatch (-want +got):\n%s", diff)
	}

	mr.FastForward(2 * time.Minute)
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatal("expected entry to expire in redis")
	}
	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 2 || stats.Sets != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRedisCorruptValueIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	cache, err := infocache.NewRedis(infocache.RedisConfig{Addr: mr.Addr(), TTL: time.Minute}, nil)
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer cache.Close()
	if err := mr.Set("bad", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok := cache.Get(context.Background(), "bad"); ok {
		t.Fatal("expected corrupt value to be a miss")
	}
}

func TestRedisUnavailableFailsConstruction(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	if _, err := infocache.NewRedis(infocache.RedisConfig{Addr: addr}, nil); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestNewSelectsBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cases := map[string]string{
		config.CacheBackendNone:   config.CacheBackendNone,
		config.CacheBackendMemory: config.CacheBackendMemory,
		config.CacheBackendRedis:  config.CacheBackendRedis,
	}
	for backend, want := range cases {
		cfg := config.Default()
		cfg.Cache.Backend = backend
		cfg.Cache.RedisAddr = mr.Addr()
		cache, err := infocache.New(&cfg, nil)
		if err != nil {
			t.Fatalf("New(%s): %v", backend, err)
		}
		if got := cache.Stats().Backend; got != want {
			t.Fatalf("New(%s) backend = %q", backend, got)
		}
		_ = cache.Close()
	}

	cfg := config.Default()
	cfg.Cache.Backend = "memcached"
	if _, err := infocache.New(&cfg, nil); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
