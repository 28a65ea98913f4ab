package retry

import "time"

// stepKind tags the executor's next action after an attempt.
type stepKind int

const (
	stepReturn  stepKind = iota // attempt succeeded, return the result
	stepSuspend                 // retryable failure, wait delay then retry
	stepFatal                   // non-retryable failure, re-raise immediately
	stepExhaust                 // retryable failure but budget spent, re-raise
)

// step is the decision for one attempt outcome.
type step struct {
	kind  stepKind
	delay time.Duration // set only for stepSuspend
}

// nextStep is the single decision function shared by the async and sync
// executors. attemptsMade counts retries already performed (0 after the
// first try). Keeping classification, backoff, and exhaustion in one pure
// function is what stops the two executor variants from drifting apart.
func nextStep(p Policy, attemptsMade int, err error) step {
	if err == nil {
		return step{kind: stepReturn}
	}
	if !p.Retryable(err) {
		return step{kind: stepFatal}
	}
	if attemptsMade >= p.maxRetries {
		return step{kind: stepExhaust}
	}
	return step{kind: stepSuspend, delay: p.Delay(attemptsMade)}
}
