package orderwatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessedStore remembers which orders have been handled.
type ProcessedStore interface {
	Processed(ctx context.Context, ids []string) (map[string]struct{}, error)
	Mark(ctx context.Context, ids []string) error
}

// MemoryStore keeps processed ids for the life of the process.
type MemoryStore struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(map[string]struct{})}
}

func (m *MemoryStore) Processed(_ context.Context, ids []string) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := m.ids[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (m *MemoryStore) Mark(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.ids[id] = struct{}{}
	}
	return nil
}

// DefaultProcessedTTL bounds how long a processed mark survives in Redis.
const DefaultProcessedTTL = 7 * 24 * time.Hour

// RedisStore shares processed marks between terminals.
// Key format: orders:processed:<restaurant>:<order id>
type RedisStore struct {
	client     *redis.Client
	restaurant string
	ttl        time.Duration
}

// NewRedisStore scopes marks to one restaurant.
func NewRedisStore(client *redis.Client, restaurant string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultProcessedTTL
	}
	return &RedisStore{client: client, restaurant: restaurant, ttl: ttl}
}

func (r *RedisStore) key(id string) string {
	return fmt.Sprintf("orders:processed:%s:%s", r.restaurant, id)
}

func (r *RedisStore) Processed(ctx context.Context, ids []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	if len(ids) == 0 {
		return out, nil
	}
	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Exists(ctx, r.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("processed check: %w", err)
	}
	for i, c := range cmds {
		if c.Val() > 0 {
			out[ids[i]] = struct{}{}
		}
	}
	return out, nil
}

func (r *RedisStore) Mark(ctx context.Context, ids []string) error {
	pipe := r.client.Pipeline()
	for _, id := range ids {
		pipe.Set(ctx, r.key(id), "1", r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("processed mark: %w", err)
	}
	return nil
}
