package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store backed by a mutex-guarded map.
// Windows are created lazily on first increment and recycled in place
// when they expire; nothing is ever explicitly destroyed.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	nowFunc func() time.Time // for testing
}

// NewMemoryStore creates an in-memory fixed-window store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		nowFunc: time.Now,
	}
}

// Increment atomically bumps the count for key's current window and
// returns the new count. An expired window resets to count=1 with the
// window restarting now.
func (s *MemoryStore) Increment(_ context.Context, key string, windowDur time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()

	w, exists := s.windows[key]
	if !exists {
		s.windows[key] = &window{count: 1, start: now}
		return 1, nil
	}

	if now.Sub(w.start) >= windowDur {
		w.count = 1
		w.start = now
		return 1, nil
	}

	w.count++
	return w.count, nil
}

// Len returns the number of tracked keys. For tests and introspection.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
