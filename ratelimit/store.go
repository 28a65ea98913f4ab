package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	ErrInvalidLimit  = errors.New("ratelimit: limit must be > 0")
	ErrInvalidWindow = errors.New("ratelimit: window must be > 0")
)

// Store records request counts per key within a fixed window.
//
// Increment atomically increments and returns the post-increment count
// for the key's current window, creating the window on first use and
// resetting it in place once the window duration has elapsed since the
// window started. Implementations must be safe for concurrent callers on
// the same key: increment-and-read is one operation, never a read
// followed by a write.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// window is one fixed counting window for a key.
type window struct {
	count int64
	start time.Time
}
