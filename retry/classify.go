package retry

import (
	"context"
	stderrors "errors"
	"net"
	"strings"
	"syscall"

	"github.com/mindloop/resilience/errors"
)

// Classify tags a raw dependency error with a failure kind so a policy's
// retryable set can match it. Errors already carrying a kind pass through
// unchanged; unrecognizable errors come back untagged (and therefore never
// match a restricted retryable set). The original error stays in the
// chain either way.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var kerr *errors.Error
	if stderrors.As(err, &kerr) {
		return err
	}
	if kind := classifyKind(err); kind != "" {
		return errors.WrapWithKind(err, kind, kind.Description())
	}
	return err
}

// classifyKind maps context, network, and well-known message patterns to
// failure kinds.
func classifyKind(err error) errors.Kind {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.KindDeadlineExceeded
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.KindCanceled
	}

	if kind := classifyNetwork(err); kind != "" {
		return kind
	}

	return classifyMessage(err.Error())
}

// classifyNetwork recognizes transport-level failures.
func classifyNetwork(err error) errors.Kind {
	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		if dnsErr.Timeout() {
			return errors.KindDeadlineExceeded
		}
		return errors.KindNetwork
	}

	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		if opErr.Timeout() {
			return errors.KindDeadlineExceeded
		}
		if opErr.Err != nil {
			if stderrors.Is(opErr.Err, syscall.ECONNRESET) || stderrors.Is(opErr.Err, syscall.EPIPE) {
				return errors.KindConnectionReset
			}
			if stderrors.Is(opErr.Err, syscall.ECONNREFUSED) ||
				stderrors.Is(opErr.Err, syscall.ENETUNREACH) ||
				stderrors.Is(opErr.Err, syscall.EHOSTUNREACH) {
				return errors.KindNetwork
			}
		}
		return errors.KindNetwork
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.KindDeadlineExceeded
	}

	return ""
}

// classifyMessage falls back to message patterns for errors that arrive
// stringly-typed from SDKs and drivers.
func classifyMessage(msg string) errors.Kind {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "connection reset"),
		strings.Contains(lower, "broken pipe"),
		strings.Contains(lower, "server closed the connection"),
		strings.Contains(lower, "unexpected eof"):
		return errors.KindConnectionReset

	case strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "too many requests"),
		strings.Contains(lower, "429"),
		strings.Contains(lower, "overloaded"):
		return errors.KindRateLimited

	case strings.Contains(lower, "billing"),
		strings.Contains(lower, "payment"),
		strings.Contains(lower, "quota exceeded"),
		strings.Contains(lower, "insufficient credits"):
		return errors.KindBilling

	case strings.Contains(lower, "service unavailable"),
		strings.Contains(lower, "bad gateway"),
		strings.Contains(lower, "gateway timeout"),
		strings.Contains(lower, "temporarily unavailable"),
		strings.Contains(lower, "502"),
		strings.Contains(lower, "503"),
		strings.Contains(lower, "504"):
		return errors.KindServiceUnavailable

	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "network is unreachable"):
		return errors.KindNetwork

	case strings.Contains(lower, "i/o timeout"),
		strings.Contains(lower, "deadline exceeded"),
		strings.Contains(lower, "timed out"):
		return errors.KindDeadlineExceeded

	case strings.Contains(lower, "pool exhausted"),
		strings.Contains(lower, "too many connections"):
		return errors.KindResourceExhausted
	}

	return ""
}

// KindOfHTTPStatus maps an HTTP status code from a dependency response to
// a failure kind. Unmapped statuses return the empty kind.
func KindOfHTTPStatus(status int) errors.Kind {
	switch status {
	case 400, 422:
		return errors.KindInvalidInput
	case 401:
		return errors.KindUnauthorized
	case 402:
		return errors.KindBilling
	case 403:
		return errors.KindForbidden
	case 404:
		return errors.KindNotFound
	case 408:
		return errors.KindDeadlineExceeded
	case 409:
		return errors.KindConflict
	case 429:
		return errors.KindRateLimited
	case 500, 502, 503, 529:
		return errors.KindServiceUnavailable
	case 504:
		return errors.KindDeadlineExceeded
	}
	if status >= 500 {
		return errors.KindServiceUnavailable
	}
	return ""
}

// TransientKinds is the conventional retryable set for idempotent calls
// to remote APIs. Call sites narrow it when the operation is not
// idempotent.
func TransientKinds() []errors.Kind {
	return []errors.Kind{
		errors.KindConnectionReset,
		errors.KindDeadlineExceeded,
		errors.KindServiceUnavailable,
		errors.KindNetwork,
		errors.KindRateLimited,
		errors.KindResourceExhausted,
	}
}
