// Package errors provides the failure-kind taxonomy used to classify
// errors raised by unreliable dependencies (the document database and
// hosted LLM APIs).
//
// Every failure is tagged with a Kind, and kinds roll up into a Category
// that carries default retry semantics:
//
//	err := errors.ServiceUnavailable("llm backend returned 503")
//	errors.IsRetryable(err) // true
//
// The retry executor classifies failures by Kind against a policy's
// retryable set; the set of legitimate kinds is closed, and
// Kind.Valid() lets policy validation reject arbitrary tags up front.
//
// Wrapping preserves the original failure in the chain, so callers can
// keep pattern-matching with the standard errors.Is / errors.As:
//
//	if kerr := errors.Wrap(err, "flashcard save failed"); kerr != nil {
//	    log.Warn("save failed", map[string]interface{}{"kind": kerr.Kind()})
//	}
package errors
