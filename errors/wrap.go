package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context while preserving the chain.
// If err is nil, Wrap returns nil.
// If err is already an *Error, the wrapper keeps its kind, category, and
// retryability so classification survives wrapping.
// Context errors map to their corresponding kinds; anything else becomes
// an internal error wrapping the original.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}

	var kerr *Error
	if errors.As(err, &kerr) {
		wrapped := &Error{
			kind:      kerr.kind,
			category:  kerr.category,
			message:   message,
			cause:     err,
			metadata:  kerr.Metadata(),
			retryable: kerr.retryable,
			timestamp: kerr.timestamp,
		}
		for _, opt := range opts {
			opt(wrapped)
		}
		return wrapped
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindDeadlineExceeded, message, append(opts, WithCause(err))...)
	}
	if errors.Is(err, context.Canceled) {
		return New(KindCanceled, message, append(opts, WithCause(err))...)
	}

	return New(KindInternal, message, append(opts, WithCause(err))...)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithKind wraps an error under a specific kind, overriding whatever
// classification the chain already carries.
func WrapWithKind(err error, kind Kind, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(kind, message, opts...)
}

// KindOf extracts the failure kind from an error chain.
// Context errors classify even without an *Error in the chain.
// Returns the empty kind for untagged errors.
func KindOf(err error) Kind {
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindDeadlineExceeded
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	return ""
}

// CategoryOf extracts the failure category from an error chain.
// Returns the empty category for untagged errors.
func CategoryOf(err error) Category {
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.category
	}
	return ""
}

// Is checks if any error in the chain carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRetryable checks if the error is retryable. Untagged errors are not
// retryable by default.
func IsRetryable(err error) bool {
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.Retryable()
	}
	return false
}

// IsTransient checks if the error is transient.
func IsTransient(err error) bool {
	return CategoryOf(err) == CategoryTransient
}

// IsPermanent checks if the error is permanent.
func IsPermanent(err error) bool {
	return CategoryOf(err) == CategoryPermanent
}

// Cause returns the root cause of the error chain.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		inner := unwrapper.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}
