package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix          = "mangiee:cache:"
	defaultDialTimeout = 5 * time.Second
)

// RedisConfig captures the settings for a shared cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Connect initialises a Redis client and validates connectivity with a ping.
func Connect(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisStore shares cached lists between machines or terminals. Expiry is
// delegated to Redis.
type RedisStore struct {
	client *redis.Client
	scope  Scope
	ttl    time.Duration
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client, scope Scope, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, scope: scope, ttl: ttl}
}

func (s *RedisStore) key(key string) string {
	return keyPrefix + sanitizeKey(key) + ":" + s.scope.suffix()
}

func (s *RedisStore) Get(ctx context.Context, key string, dst any) bool {
	if disabled() {
		return false
	}
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Debug("cache read failed", "key", key, "error", err)
		}
		return false
	}
	return decodeEntry(data, 0, dst)
}

func (s *RedisStore) Put(ctx context.Context, key string, v any) {
	if disabled() {
		return
	}
	data, err := encodeEntry(v, time.Now())
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		slog.Debug("cache write failed", "key", key, "error", err)
	}
}

func (s *RedisStore) Clear(ctx context.Context, key string) {
	_ = s.client.Del(ctx, s.key(key)).Err()
}

// ClearAll deletes every cache key, for any scope.
func (s *RedisStore) ClearAll(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}
