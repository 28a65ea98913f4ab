package retry

import (
	"math"
	"time"
)

// Delay computes the backoff before retry number attempt (0-based: attempt
// 0 is the delay after the first failure, so the first exponent applied is
// base^0 and the first retry waits InitialDelay).
//
// The raw delay initialDelay * base^attempt is capped at MaxDelay. With
// jitter enabled the result is capped * uniform(0.5, 1.0) — half-jitter:
// never above the capped delay, never below half of it. That spreads
// concurrent retriers apart without making the worst case any slower.
func (p Policy) Delay(attempt int) time.Duration {
	raw := float64(p.initialDelay) * math.Pow(p.base, float64(attempt))

	capped := raw
	if capped > float64(p.maxDelay) || math.IsInf(capped, 1) {
		capped = float64(p.maxDelay)
	}

	if p.jitter {
		capped *= 0.5 + 0.5*p.randFloat()
	}

	return time.Duration(capped)
}
