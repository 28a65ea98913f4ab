package errors

// Category classifies failure kinds by their retry semantics.
type Category string

const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	// Examples: connection resets, temporary service unavailability.
	CategoryTransient Category = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	// Examples: invalid input, missing resources, rejected credentials.
	CategoryPermanent Category = "permanent"

	// CategoryResource indicates exhaustion or quota issues. These usually
	// clear after backing off, so they are retryable by default.
	CategoryResource Category = "resource"

	// CategoryInternal indicates bugs or unexpected system failures.
	CategoryInternal Category = "internal"
)

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// IsRetryable returns true if failures in this category may succeed on retry.
func (c Category) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryResource:
		return true
	default:
		return false
	}
}

// Kind tags a specific failure mode. Kinds form a closed set: retry
// policies enumerate the kinds they retry on, and anything outside the
// declared set is rejected at configuration time.
type Kind string

// Failure kinds for dependencies this layer guards.
const (
	// Transient failures
	KindConnectionReset    Kind = "connection_reset"     // Peer dropped the connection
	KindDeadlineExceeded   Kind = "deadline_exceeded"    // Operation ran past its deadline
	KindServiceUnavailable Kind = "service_unavailable"  // Backend temporarily unavailable (503 and friends)
	KindNetwork            Kind = "network"              // Network-level connectivity failure

	// Resource failures
	KindRateLimited       Kind = "rate_limited"       // Backend asked us to slow down (429)
	KindResourceExhausted Kind = "resource_exhausted" // Pool/quota/capacity exhausted

	// Permanent failures
	KindInvalidInput Kind = "invalid_input" // Malformed or rejected input
	KindUnauthorized Kind = "unauthorized"  // Authentication failed
	KindForbidden    Kind = "forbidden"     // Authorization denied
	KindNotFound     Kind = "not_found"     // Resource does not exist
	KindConflict     Kind = "conflict"      // Conflicting write or state
	KindBilling      Kind = "billing"       // Billing/payment/quota account problem
	KindCanceled     Kind = "canceled"      // Caller canceled the operation
	KindUnsupported  Kind = "unsupported"   // Operation not supported

	// Internal failures
	KindInternal   Kind = "internal"   // Unexpected internal error
	KindCorruption Kind = "corruption" // Data corruption detected
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// DefaultCategory returns the category a kind belongs to.
func (k Kind) DefaultCategory() Category {
	switch k {
	case KindConnectionReset, KindDeadlineExceeded, KindServiceUnavailable, KindNetwork:
		return CategoryTransient
	case KindRateLimited, KindResourceExhausted:
		return CategoryResource
	case KindInvalidInput, KindUnauthorized, KindForbidden, KindNotFound,
		KindConflict, KindBilling, KindCanceled, KindUnsupported:
		return CategoryPermanent
	case KindInternal, KindCorruption:
		return CategoryInternal
	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this kind is typically retryable.
func (k Kind) DefaultRetryable() bool {
	return k.DefaultCategory().IsRetryable()
}

// kindDescriptions provides human-readable descriptions for kinds. The map
// doubles as the registry of legitimate kinds for Valid.
var kindDescriptions = map[Kind]string{
	KindConnectionReset:    "connection reset by peer",
	KindDeadlineExceeded:   "operation deadline exceeded",
	KindServiceUnavailable: "service temporarily unavailable",
	KindNetwork:            "network connectivity failure",
	KindRateLimited:        "rate limit exceeded",
	KindResourceExhausted:  "resource exhausted",
	KindInvalidInput:       "invalid input provided",
	KindUnauthorized:       "authentication required",
	KindForbidden:          "access denied",
	KindNotFound:           "resource not found",
	KindConflict:           "conflicting operation",
	KindBilling:            "billing or payment problem",
	KindCanceled:           "operation canceled",
	KindUnsupported:        "operation not supported",
	KindInternal:           "internal error",
	KindCorruption:         "data corruption detected",
}

// Valid reports whether k is one of the declared failure kinds.
func (k Kind) Valid() bool {
	_, ok := kindDescriptions[k]
	return ok
}

// Description returns a human-readable description for the kind.
func (k Kind) Description() string {
	if desc, ok := kindDescriptions[k]; ok {
		return desc
	}
	return "unknown failure"
}

// Kinds returns all declared failure kinds. Order is unspecified.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindDescriptions))
	for k := range kindDescriptions {
		out = append(out, k)
	}
	return out
}
