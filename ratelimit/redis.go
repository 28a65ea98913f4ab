package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a distributed Store backed by a shared Redis counter.
// Every application instance increments the same key, so limits hold
// globally across a multi-instance deployment. Keys expire with the
// window, so idle identities cost nothing.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix (default "ratelimit:").
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTimeout caps the duration of each Redis round trip (default 2s).
// A hung store must not stall admission longer than this; the limiter
// fails open on the resulting error.
func WithTimeout(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.timeout = d
	}
}

// NewRedisStore creates a Redis-backed fixed-window store.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:  client,
		prefix:  "ratelimit:",
		timeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Increment atomically bumps the counter for key and returns the new
// count. INCR and the expiry are pipelined in one transaction; the expiry
// is only set when the key has none (first increment of a window), so the
// window start is anchored at the first request.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, s.prefix+key)
	pipe.ExpireNX(ctx, s.prefix+key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
