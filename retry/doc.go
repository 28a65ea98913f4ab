// Package retry provides retry-with-exponential-backoff execution for
// operations against unreliable dependencies (document database writes,
// hosted LLM API calls).
//
// A Policy describes retry behavior and is validated at construction,
// never at call time:
//
//	policy, err := retry.NewPolicy(
//	    retry.WithMaxRetries(3),
//	    retry.WithInitialDelay(time.Second),
//	    retry.WithMaxDelay(10*time.Second),
//	    retry.WithRetryOn(errors.KindServiceUnavailable, errors.KindConnectionReset),
//	)
//
// An Executor drives repeated invocation of an operation under a policy:
//
//	ex := retry.NewExecutor("flashcard.save", policy)
//	err := ex.Execute(ctx, func(ctx context.Context) error {
//	    return store.Save(ctx, card)
//	})
//
// Failures are classified by their failure kind (see the errors package)
// against the policy's retryable set. Non-retryable failures propagate
// immediately; retryable failures back off exponentially (with optional
// half-jitter) until the retry budget is exhausted, then the last failure
// is re-raised unwrapped. The executor always fails closed: no failure is
// ever swallowed.
//
// # Async and sync variants
//
// Execute suspends on a context-aware timer and aborts the delay the
// moment the context is canceled. ExecuteSync is the blocking-sleep
// variant for call sites without a context. Both interpret the same pure
// decision core, so classification, backoff, and exhaustion semantics
// cannot drift apart.
//
// # Deterministic tests
//
// The suspension primitive is injectable (WithSuspend / WithSleep), so
// tests assert on the sequence of requested durations instead of
// wall-clock time. The jitter random source is injectable on the policy.
package retry
