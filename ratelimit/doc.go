// Package ratelimit provides fixed-window request limiting for
// throughput-sensitive entry points (public write endpoints, LLM call
// fan-out).
//
// Counts are tracked per (identity, action) key in a Store. Two stores
// ship with the package:
//
//   - MemoryStore: a mutex-guarded in-process map. Fine for a
//     single-process deployment; state is lost on restart, which is
//     acceptable because windows are short-lived.
//   - RedisStore: an atomically incremented shared counter with per-key
//     expiry. Required for multi-instance deployments so limits hold
//     globally instead of per replica.
//
// The Limiter consults the store and admits or denies:
//
//	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
//	dec, err := limiter.Admit(ctx, userID, "quiz.submit", 5, time.Minute)
//	if err != nil {
//	    return err // invalid budget or window
//	}
//	if !dec.Allowed {
//	    // respond 429 with dec.Reason
//	}
//
// # Failure policy
//
// When the store is unreachable the Limiter fails open: the request is
// admitted and a warning is logged. Availability of the protected
// service is judged more valuable than strict throttling during a
// backend outage. This is a deliberate, named branch — and deliberately
// the opposite of the retry executor, which always fails closed because
// it guards data-integrity-sensitive writes.
package ratelimit
