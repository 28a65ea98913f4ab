package errors

import (
	"encoding/json"
	"fmt"
	"time"
)

// Error is a failure tagged with a Kind and Category. It implements the
// standard error interface and unwraps to its cause, so classification
// composes with errors.Is / errors.As.
type Error struct {
	kind      Kind
	category  Category
	message   string
	cause     error
	metadata  map[string]string
	retryable *bool // nil means use the category default
	timestamp time.Time
}

// Ensure Error round-trips through JSON for structured log shipping.
var (
	_ error            = (*Error)(nil)
	_ json.Marshaler   = (*Error)(nil)
	_ json.Unmarshaler = (*Error)(nil)
)

// Error returns the error message.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Kind returns the failure kind.
func (e *Error) Kind() Kind {
	return e.kind
}

// Category returns the failure category.
func (e *Error) Category() Category {
	return e.category
}

// Retryable returns whether this failure is retryable.
func (e *Error) Retryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	return e.category.IsRetryable()
}

// Metadata returns a copy of the error metadata.
func (e *Error) Metadata() map[string]string {
	result := make(map[string]string, len(e.metadata))
	for k, v := range e.metadata {
		result[k] = v
	}
	return result
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Timestamp returns when the error occurred.
func (e *Error) Timestamp() time.Time {
	return e.timestamp
}

// errorJSON is the JSON representation of an Error.
type errorJSON struct {
	Kind      Kind              `json:"kind"`
	Category  Category          `json:"category"`
	Message   string            `json:"message"`
	Cause     string            `json:"cause,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Retryable bool              `json:"retryable"`
	Timestamp string            `json:"timestamp,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	j := errorJSON{
		Kind:      e.kind,
		Category:  e.category,
		Message:   e.message,
		Metadata:  e.metadata,
		Retryable: e.Retryable(),
	}
	if e.cause != nil {
		j.Cause = e.cause.Error()
	}
	if !e.timestamp.IsZero() {
		j.Timestamp = e.timestamp.Format(time.RFC3339Nano)
	}
	return json.Marshal(j)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Error) UnmarshalJSON(data []byte) error {
	var j errorJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	e.kind = j.Kind
	e.category = j.Category
	e.message = j.Message
	e.metadata = j.Metadata
	r := j.Retryable
	e.retryable = &r
	if j.Cause != "" {
		e.cause = fmt.Errorf("%s", j.Cause)
	}
	if j.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339Nano, j.Timestamp); err == nil {
			e.timestamp = t
		}
	}
	return nil
}

// Option is a functional option for configuring an Error.
type Option func(*Error)

// WithCategory overrides the kind's default category.
func WithCategory(cat Category) Option {
	return func(e *Error) {
		e.category = cat
	}
}

// WithRetryable explicitly sets whether the error is retryable, overriding
// the category default.
func WithRetryable(retryable bool) Option {
	return func(e *Error) {
		e.retryable = &retryable
	}
}

// WithMetadata adds a metadata key-value pair.
func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.metadata == nil {
			e.metadata = make(map[string]string)
		}
		e.metadata[key] = value
	}
}

// WithTimestamp sets a custom timestamp.
func WithTimestamp(t time.Time) Option {
	return func(e *Error) {
		e.timestamp = t
	}
}

// WithCause sets the underlying cause.
func WithCause(cause error) Option {
	return func(e *Error) {
		e.cause = cause
	}
}

// New creates a new Error with the given kind and message.
func New(kind Kind, message string, opts ...Option) *Error {
	e := &Error{
		kind:      kind,
		category:  kind.DefaultCategory(),
		message:   message,
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Newf creates a new Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// FromKind creates an error with the default description for the kind.
func FromKind(kind Kind, opts ...Option) *Error {
	return New(kind, kind.Description(), opts...)
}

// ConnectionReset creates a connection reset error.
func ConnectionReset(message string, opts ...Option) *Error {
	return New(KindConnectionReset, message, opts...)
}

// DeadlineExceeded creates a deadline exceeded error.
func DeadlineExceeded(message string, opts ...Option) *Error {
	return New(KindDeadlineExceeded, message, opts...)
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(message string, opts ...Option) *Error {
	return New(KindServiceUnavailable, message, opts...)
}

// Network creates a network failure error.
func Network(message string, opts ...Option) *Error {
	return New(KindNetwork, message, opts...)
}

// RateLimited creates a rate limited error.
func RateLimited(message string, opts ...Option) *Error {
	return New(KindRateLimited, message, opts...)
}

// ResourceExhausted creates a resource exhausted error.
func ResourceExhausted(message string, opts ...Option) *Error {
	return New(KindResourceExhausted, message, opts...)
}

// InvalidInput creates an invalid input error.
func InvalidInput(message string, opts ...Option) *Error {
	return New(KindInvalidInput, message, opts...)
}

// Unauthorized creates an unauthorized error.
func Unauthorized(message string, opts ...Option) *Error {
	return New(KindUnauthorized, message, opts...)
}

// NotFound creates a not found error.
func NotFound(message string, opts ...Option) *Error {
	return New(KindNotFound, message, opts...)
}

// Billing creates a billing/payment error. Always fatal for retry purposes.
func Billing(message string, opts ...Option) *Error {
	return New(KindBilling, message, opts...)
}

// Internal creates an internal error.
func Internal(message string, opts ...Option) *Error {
	return New(KindInternal, message, opts...)
}
