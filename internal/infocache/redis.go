package infocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"wavepipe/internal/config"
	"wavepipe/internal/logging"
	"wavepipe/internal/metadata"
)

const redisOpTimeout = 2 * time.Second

// RedisConfig holds connection settings for the shared cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Redis shares cached metadata between instances. Values are the JSON form
// of metadata.Result.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// NewRedis connects and pings the server.
func NewRedis(cfg RedisConfig, logger *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "infocache")
	logger.Info("connected to redis cache", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return newRedisWithClient(client, cfg.Prefix, cfg.TTL, logger), nil
}

func newRedisWithClient(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) (metadata.Result, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis get failed", logging.String("key", key), logging.Error(err))
		}
		r.misses.Add(1)
		return metadata.Result{}, false
	}
	var result metadata.Result
	if err := json.Unmarshal(data, &result); err != nil {
		r.logger.Warn("cached metadata is corrupt", logging.String("key", key), logging.Error(err))
		r.misses.Add(1)
		return metadata.Result{}, false
	}
	r.hits.Add(1)
	return result, true
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, value metadata.Result) {
	if r.ttl <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("metadata marshal failed", logging.String("key", key), logging.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", logging.String("key", key), logging.Error(err))
		return
	}
	r.sets.Add(1)
}

// Stats implements Cache. Size is not tracked for the shared backend.
func (r *Redis) Stats() Stats {
	return Stats{
		Backend: config.CacheBackendRedis,
		Hits:    r.hits.Load(),
		Misses:  r.misses.Load(),
		Sets:    r.sets.Load(),
	}
}

// Ping checks the connection, for health reporting.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close implements Cache.
func (r *Redis) Close() error {
	return r.client.Close()
}
