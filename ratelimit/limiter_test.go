package ratelimit

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/mindloop/resilience/logging"
)

// failingStore simulates an unreachable backend.
type failingStore struct {
	err error
}

func (f *failingStore) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, f.err
}

func quietLimiterLogger() *logging.Logger {
	l := logging.New()
	l.SetOutput(&bytes.Buffer{})
	return l
}

func TestAdmit_AllowsWithinBudget(t *testing.T) {
	lim := NewLimiter(NewMemoryStore(), WithLogger(quietLimiterLogger()))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := lim.Admit(ctx, "user-1", "quiz.submit", 5, time.Minute)
		if err != nil {
			t.Fatalf("Admit() failed: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
		if want := int64(4 - i); d.Remaining != want {
			t.Errorf("request %d Remaining = %d, want %d", i+1, d.Remaining, want)
		}
	}

	// Sixth request in the same window is denied, not an error.
	d, err := lim.Admit(ctx, "user-1", "quiz.submit", 5, time.Minute)
	if err != nil {
		t.Fatalf("Admit() failed: %v", err)
	}
	if d.Allowed {
		t.Error("sixth request should be denied")
	}
	if d.Reason == "" {
		t.Error("denied decision should carry a reason")
	}
	if !strings.Contains(d.Reason, "quiz.submit") {
		t.Errorf("reason should name the action, got %q", d.Reason)
	}
}

func TestAdmit_IndependentBudgets(t *testing.T) {
	lim := NewLimiter(NewMemoryStore(), WithLogger(quietLimiterLogger()))
	ctx := context.Background()

	// Exhaust user-1's quiz budget.
	for i := 0; i < 3; i++ {
		if _, err := lim.Admit(ctx, "user-1", "quiz.submit", 2, time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	// user-2 performing the same action is unaffected.
	d, err := lim.Admit(ctx, "user-2", "quiz.submit", 2, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed {
		t.Error("user-2 should have a fresh budget")
	}

	// user-1 performing a different action is unaffected.
	d, err = lim.Admit(ctx, "user-1", "flashcard.review", 2, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed {
		t.Error("a different action should have a fresh budget")
	}
}

func TestAdmit_WindowReset(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.nowFunc = func() time.Time { return now }

	lim := NewLimiter(store, WithLogger(quietLimiterLogger()))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := lim.Admit(ctx, "user-1", "quiz.submit", 2, time.Minute); err != nil {
			t.Fatal(err)
		}
	}
	d, _ := lim.Admit(ctx, "user-1", "quiz.submit", 2, time.Minute)
	if d.Allowed {
		t.Fatal("budget should be exhausted")
	}

	// After the window elapses the budget is whole again.
	now = now.Add(time.Minute)
	d, err := lim.Admit(ctx, "user-1", "quiz.submit", 2, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Allowed {
		t.Error("new window should admit")
	}
	if d.Remaining != 1 {
		t.Errorf("Remaining = %d, want 1", d.Remaining)
	}
}

func TestAdmit_FailOpen(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New().WithComponent("ratelimit")
	logger.SetOutput(&buf)

	lim := NewLimiter(&failingStore{err: stderrors.New("redis: connection refused")}, WithLogger(logger))

	d, err := lim.Admit(context.Background(), "user-1", "quiz.submit", 5, time.Minute)
	if err != nil {
		t.Fatalf("store failure must not surface as an error, got: %v", err)
	}
	if !d.Allowed {
		t.Error("store failure should admit the request")
	}
	// The count is unknown when the store is down; Remaining is zero even
	// though the request is admitted.
	if d.Remaining != 0 {
		t.Errorf("Remaining = %d on fail-open, want 0", d.Remaining)
	}

	output := buf.String()
	for _, want := range []string{"WARN", "rate_limit_fail_open", "identity=user-1", "connection refused"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in log output, got:\n%s", want, output)
		}
	}
}

func TestAdmit_InvalidRules(t *testing.T) {
	lim := NewLimiter(NewMemoryStore(), WithLogger(quietLimiterLogger()))
	ctx := context.Background()

	if _, err := lim.Admit(ctx, "user-1", "quiz.submit", 0, time.Minute); !stderrors.Is(err, ErrInvalidLimit) {
		t.Errorf("zero budget: err = %v, want ErrInvalidLimit", err)
	}
	if _, err := lim.Admit(ctx, "user-1", "quiz.submit", -1, time.Minute); !stderrors.Is(err, ErrInvalidLimit) {
		t.Errorf("negative budget: err = %v, want ErrInvalidLimit", err)
	}
	if _, err := lim.Admit(ctx, "user-1", "quiz.submit", 5, 0); !stderrors.Is(err, ErrInvalidWindow) {
		t.Errorf("zero window: err = %v, want ErrInvalidWindow", err)
	}
	if _, err := lim.Admit(ctx, "user-1", "quiz.submit", 5, -time.Second); !stderrors.Is(err, ErrInvalidWindow) {
		t.Errorf("negative window: err = %v, want ErrInvalidWindow", err)
	}
}

func TestKey(t *testing.T) {
	if got := Key("user-7", "quiz.submit"); got != "user-7:quiz.submit" {
		t.Errorf("Key() = %q", got)
	}
}
