package deals

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/revant7/trezora-frontend-sub000/internal/api"
)

// Cached is a deals snapshot with a soft expiry. Past ExpiresAt the value is
// stale but still servable; it is never evicted on expiry alone.
type Cached struct {
	Value     []api.Deal `json:"value"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Fresh reports whether the snapshot is within its soft TTL.
func (c Cached) Fresh(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// Cache stores the single deals snapshot.
type Cache interface {
	Get(ctx context.Context) (Cached, bool, error)
	Set(ctx context.Context, cached Cached) error
}

// MemoryCache is the in-process cache used when no Redis is configured.
type MemoryCache struct {
	mu     sync.RWMutex
	cached Cached
	set    bool
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (m *MemoryCache) Get(_ context.Context) (Cached, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cached, m.set, nil
}

func (m *MemoryCache) Set(_ context.Context, cached Cached) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = cached
	m.set = true
	return nil
}

const redisDealsKey = "storefront:deals:daily"

// RedisCache persists the snapshot across restarts. The Redis TTL is a
// garbage-collection horizon well past the soft expiry, so a stale snapshot
// survives long enough to be served while a refresh is attempted.
type RedisCache struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisCache creates a Redis-backed cache. retention bounds how long a
// snapshot is kept at all; zero means keep indefinitely.
func NewRedisCache(client *redis.Client, retention time.Duration) *RedisCache {
	return &RedisCache{client: client, retention: retention}
}

func (r *RedisCache) Get(ctx context.Context) (Cached, bool, error) {
	data, err := r.client.Get(ctx, redisDealsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Cached{}, false, nil
	}
	if err != nil {
		return Cached{}, false, err
	}
	var cached Cached
	if err := json.Unmarshal(data, &cached); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set.
		return Cached{}, false, nil
	}
	return cached, true, nil
}

func (r *RedisCache) Set(ctx context.Context, cached Cached) error {
	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisDealsKey, data, r.retention).Err()
}
