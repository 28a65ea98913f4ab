package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/mindloop/resilience/logging"
)

// Decision is the outcome of an admission check. Over-limit is an
// expected outcome communicated here, never an error.
type Decision struct {
	// Allowed reports whether the request is admitted.
	Allowed bool

	// Reason is set when denied; suitable for a throttling response body.
	Reason string

	// Remaining is the number of requests left in the current window
	// after this one. Zero when denied, and also zero on a fail-open
	// admission where the count is unknown; check Allowed, not Remaining.
	Remaining int64
}

// Limiter admits or denies requests against per-(identity, action)
// budgets recorded in a Store. Admit never suspends; it is one counter
// round trip and a comparison.
type Limiter struct {
	store  Store
	logger *logging.Logger
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithLogger sets the structured logger for admission events.
func WithLogger(l *logging.Logger) LimiterOption {
	return func(lim *Limiter) {
		lim.logger = l
	}
}

// NewLimiter creates a Limiter over the given store.
func NewLimiter(store Store, opts ...LimiterOption) *Limiter {
	lim := &Limiter{store: store}
	for _, opt := range opts {
		opt(lim)
	}
	if lim.logger == nil {
		lim.logger = logging.New().WithComponent("ratelimit")
	}
	return lim
}

// Key builds the composite counter key for an identity performing an
// action.
func Key(identity, action string) string {
	return identity + ":" + action
}

// Admit checks whether identity may perform action given a budget of
// maxRequests per window. The (identity, action) counter is incremented
// first and the post-increment count compared against the budget, so
// denied requests still consume nothing beyond their own increment.
//
// Fail-open: if the store is unreachable the request is ADMITTED and a
// warning logged. Availability of the protected service beats strict
// throttling during a store outage; callers needing the opposite
// tradeoff should not reach for this limiter.
func (lim *Limiter) Admit(ctx context.Context, identity, action string, maxRequests int64, window time.Duration) (Decision, error) {
	if maxRequests <= 0 {
		return Decision{}, ErrInvalidLimit
	}
	if window <= 0 {
		return Decision{}, ErrInvalidWindow
	}

	count, err := lim.store.Increment(ctx, Key(identity, action), window)
	if err != nil {
		// Named fail-open branch: store down, admit and warn.
		lim.logger.FailOpen(identity, action, err)
		return Decision{Allowed: true, Remaining: 0}, nil
	}

	if count <= maxRequests {
		return Decision{Allowed: true, Remaining: maxRequests - count}, nil
	}

	lim.logger.RateLimited(identity, action, count, maxRequests)
	return Decision{
		Allowed: false,
		Reason:  fmt.Sprintf("rate limit exceeded: %d requests per %s for %s", maxRequests, window, action),
	}, nil
}
