package retry

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mindloop/resilience/errors"
)

// ConfigError describes an invalid Policy. It is raised at construction
// time, before any operation is attempted, and is never the result of a
// failed retry.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("retry: invalid policy: %s %s", e.Field, e.Reason)
}

// Policy is an immutable description of retry behavior. Construct one with
// NewPolicy; the zero value is not usable. A Policy carries no mutable
// state and may be shared freely across concurrent executions.
type Policy struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	base         float64
	jitter       bool
	retryOn      map[errors.Kind]struct{} // nil means retry on any failure

	randFloat func() float64 // uniform [0, 1), injectable for tests
}

// PolicyOption is a functional option for configuring a Policy.
type PolicyOption func(*Policy)

// WithMaxRetries sets the number of retry attempts after the first try.
func WithMaxRetries(n int) PolicyOption {
	return func(p *Policy) {
		p.maxRetries = n
	}
}

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) PolicyOption {
	return func(p *Policy) {
		p.initialDelay = d
	}
}

// WithMaxDelay caps the delay between retries.
func WithMaxDelay(d time.Duration) PolicyOption {
	return func(p *Policy) {
		p.maxDelay = d
	}
}

// WithBase sets the exponential multiplier applied per attempt.
func WithBase(base float64) PolicyOption {
	return func(p *Policy) {
		p.base = base
	}
}

// WithJitter enables or disables delay randomization.
func WithJitter(jitter bool) PolicyOption {
	return func(p *Policy) {
		p.jitter = jitter
	}
}

// WithRetryOn restricts retries to the given failure kinds. Failures of
// any other kind are fatal and propagate immediately. Production call
// sites are expected to always pass an explicit set; omitting it retries
// on any failure, which is appropriate only for idempotent, clearly
// transient operations.
func WithRetryOn(kinds ...errors.Kind) PolicyOption {
	return func(p *Policy) {
		if len(kinds) == 0 {
			p.retryOn = nil
			return
		}
		p.retryOn = make(map[errors.Kind]struct{}, len(kinds))
		for _, k := range kinds {
			p.retryOn[k] = struct{}{}
		}
	}
}

// WithRandom sets the random source used for jitter. Tests pin this to a
// deterministic function.
func WithRandom(f func() float64) PolicyOption {
	return func(p *Policy) {
		p.randFloat = f
	}
}

// NewPolicy builds a validated Policy. Defaults: 3 retries, 1s initial
// delay, 30s max delay, base 2.0, jitter on, retry on any failure.
// Violated invariants return a *ConfigError.
func NewPolicy(opts ...PolicyOption) (Policy, error) {
	p := Policy{
		maxRetries:   3,
		initialDelay: time.Second,
		maxDelay:     30 * time.Second,
		base:         2.0,
		jitter:       true,
	}
	for _, opt := range opts {
		opt(&p)
	}
	if err := p.validate(); err != nil {
		return Policy{}, err
	}
	if p.randFloat == nil {
		p.randFloat = rand.Float64
	}
	return p, nil
}

// MustPolicy is NewPolicy that panics on invalid configuration. For
// package-level policy variables wired at startup.
func MustPolicy(opts ...PolicyOption) Policy {
	p, err := NewPolicy(opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Policy) validate() error {
	if p.maxRetries < 0 {
		return &ConfigError{Field: "max_retries", Reason: fmt.Sprintf("must be >= 0, got %d", p.maxRetries)}
	}
	if p.initialDelay < 0 {
		return &ConfigError{Field: "initial_delay", Reason: fmt.Sprintf("must be >= 0, got %v", p.initialDelay)}
	}
	if p.maxDelay < 0 {
		return &ConfigError{Field: "max_delay", Reason: fmt.Sprintf("must be >= 0, got %v", p.maxDelay)}
	}
	if p.maxDelay < p.initialDelay {
		return &ConfigError{Field: "max_delay", Reason: fmt.Sprintf("must be >= initial_delay (%v), got %v", p.initialDelay, p.maxDelay)}
	}
	if p.base <= 0 {
		return &ConfigError{Field: "base", Reason: fmt.Sprintf("must be > 0, got %v", p.base)}
	}
	for k := range p.retryOn {
		if !k.Valid() {
			return &ConfigError{Field: "retry_on", Reason: fmt.Sprintf("unknown failure kind %q", k)}
		}
	}
	return nil
}

// MaxRetries returns the retry budget after the first try.
func (p Policy) MaxRetries() int {
	return p.maxRetries
}

// InitialDelay returns the delay before the first retry.
func (p Policy) InitialDelay() time.Duration {
	return p.initialDelay
}

// MaxDelay returns the delay cap.
func (p Policy) MaxDelay() time.Duration {
	return p.maxDelay
}

// Base returns the exponential multiplier.
func (p Policy) Base() float64 {
	return p.base
}

// Jitter returns whether delays are randomized.
func (p Policy) Jitter() bool {
	return p.jitter
}

// RetryOn returns the restricted set of retryable kinds, or nil when the
// policy retries on any failure.
func (p Policy) RetryOn() []errors.Kind {
	if p.retryOn == nil {
		return nil
	}
	out := make([]errors.Kind, 0, len(p.retryOn))
	for k := range p.retryOn {
		out = append(out, k)
	}
	return out
}

// Retryable reports whether a failure triggers a retry under this policy.
// With no restriction every failure is retryable; otherwise the failure's
// kind must be in the set. Untagged failures never match a restricted set.
func (p Policy) Retryable(err error) bool {
	if err == nil {
		return false
	}
	if p.retryOn == nil {
		return true
	}
	_, ok := p.retryOn[errors.KindOf(err)]
	return ok
}
