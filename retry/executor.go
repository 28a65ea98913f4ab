package retry

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/mindloop/resilience/errors"
	"github.com/mindloop/resilience/logging"
)

// ErrExhaustedNoCause is returned if the executor reaches exhaustion
// without ever recording a failure. That path is unreachable with a
// correct decision core; returning a distinct error instead of a nil
// dereference keeps the defect diagnosable if it ever appears.
var ErrExhaustedNoCause = stderrors.New("retry: exhausted with no recorded cause")

// SuspendFunc performs the backoff suspension for the async executor. It
// returns early with ctx.Err() if the context ends before the delay
// elapses. Production binds this to a timer; tests bind a recorder.
type SuspendFunc func(ctx context.Context, d time.Duration) error

// Executor drives repeated invocation of an operation under a Policy.
// Executors are immutable after construction and safe for concurrent use;
// each Execute call is an independent attempt sequence.
type Executor struct {
	name    string
	policy  Policy
	logger  *logging.Logger
	suspend SuspendFunc         // async variant suspension
	sleep   func(time.Duration) // sync variant suspension
}

// ExecutorOption is a functional option for configuring an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the structured logger for retry events.
func WithLogger(l *logging.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = l
	}
}

// WithSuspend replaces the async suspension primitive.
func WithSuspend(f SuspendFunc) ExecutorOption {
	return func(e *Executor) {
		e.suspend = f
	}
}

// WithSleep replaces the sync suspension primitive.
func WithSleep(f func(time.Duration)) ExecutorOption {
	return func(e *Executor) {
		e.sleep = f
	}
}

// NewExecutor creates an executor for the named operation family. The
// name appears in every retry log entry.
func NewExecutor(name string, policy Policy, opts ...ExecutorOption) *Executor {
	e := &Executor{
		name:    name,
		policy:  policy,
		suspend: suspendTimer,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.New().WithComponent("retry")
	}
	return e
}

// Policy returns the executor's policy.
func (e *Executor) Policy() Policy {
	return e.policy
}

// suspendTimer waits for d or until the context ends, whichever is first.
func suspendTimer(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute runs op until it succeeds, fails fatally, or the retry budget is
// exhausted. The original failure is re-raised unwrapped so callers can
// keep matching on it. Cancellation observed during a backoff delay aborts
// immediately with ctx.Err(); no retry begins after cancellation.
func (e *Executor) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	invocation := uuid.NewString()

	var lastErr error
	for attemptsMade := 0; ; attemptsMade++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)

		st := nextStep(e.policy, attemptsMade, lastErr)
		switch st.kind {
		case stepReturn:
			return nil

		case stepFatal:
			return lastErr

		case stepExhaust:
			if lastErr == nil {
				return ErrExhaustedNoCause
			}
			e.logger.RetryExhausted(e.name, e.policy.maxRetries, errors.KindOf(lastErr).String(), lastErr.Error())
			return lastErr

		case stepSuspend:
			e.logger.RetryAttempt(e.name, attemptsMade+1, e.policy.maxRetries,
				errors.KindOf(lastErr).String(), lastErr.Error(), st.delay)
			e.logger.Debug("retry_suspend", map[string]interface{}{
				"operation":  e.name,
				"invocation": invocation,
				"delay":      st.delay.String(),
			})
			if err := e.suspend(ctx, st.delay); err != nil {
				return err
			}
		}
	}
}

// ExecuteSync is the blocking variant of Execute for call sites without a
// context. Suspension is a plain sleep; classification, backoff, and
// exhaustion semantics are identical to Execute because both interpret
// nextStep.
func (e *Executor) ExecuteSync(op func() error) error {
	var lastErr error
	for attemptsMade := 0; ; attemptsMade++ {
		lastErr = op()

		st := nextStep(e.policy, attemptsMade, lastErr)
		switch st.kind {
		case stepReturn:
			return nil

		case stepFatal:
			return lastErr

		case stepExhaust:
			if lastErr == nil {
				return ErrExhaustedNoCause
			}
			e.logger.RetryExhausted(e.name, e.policy.maxRetries, errors.KindOf(lastErr).String(), lastErr.Error())
			return lastErr

		case stepSuspend:
			e.logger.RetryAttempt(e.name, attemptsMade+1, e.policy.maxRetries,
				errors.KindOf(lastErr).String(), lastErr.Error(), st.delay)
			e.sleep(st.delay)
		}
	}
}

// Do runs an operation that returns a value through the executor. On
// failure the zero value is returned alongside the error.
func Do[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
