package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_Increment(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		count, err := s.Increment(ctx, "user-1:quiz.submit", time.Minute)
		if err != nil {
			t.Fatalf("Increment() failed: %v", err)
		}
		if count != i {
			t.Errorf("Increment() = %d, want %d", count, i)
		}
	}
}

func TestMemoryStore_IndependentKeys(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.Increment(ctx, "user-1:quiz.submit", time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Increment(ctx, "user-1:quiz.submit", time.Minute); err != nil {
		t.Fatal(err)
	}

	// Different action, same identity: separate counter.
	count, err := s.Increment(ctx, "user-1:flashcard.review", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count for separate action = %d, want 1", count)
	}

	// Different identity, same action: separate counter.
	count, err = s.Increment(ctx, "user-2:quiz.submit", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count for separate identity = %d, want 1", count)
	}

	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestMemoryStore_WindowReset(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, err := s.Increment(ctx, "user-1:quiz.submit", time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	// One nanosecond short of expiry: still the same window.
	now = now.Add(time.Minute - time.Nanosecond)
	count, err := s.Increment(ctx, "user-1:quiz.submit", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Errorf("count just before expiry = %d, want 4", count)
	}

	// At exactly the window boundary the counter resets.
	now = now.Add(time.Nanosecond)
	count, err = s.Increment(ctx, "user-1:quiz.submit", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count after expiry = %d, want 1", count)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const goroutines = 20
	const perGoroutine = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				if _, err := s.Increment(ctx, "shared:action", time.Hour); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	count, err := s.Increment(ctx, "shared:action", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if want := int64(goroutines*perGoroutine + 1); count != want {
		t.Errorf("final count = %d, want %d", count, want)
	}
}
