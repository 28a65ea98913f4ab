package llm

import (
	stderrors "errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/api/googleapi"

	"github.com/mindloop/resilience/errors"
	"github.com/mindloop/resilience/retry"
)

// classifyAPIError tags an SDK error with a failure kind so the retry
// policy can classify it. Vendor SDK errors carry an HTTP status; errors
// without one fall through to transport-level classification.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}

	var aerr *anthropic.Error
	if stderrors.As(err, &aerr) {
		return tagStatus(err, aerr.StatusCode)
	}

	var oerr *openai.Error
	if stderrors.As(err, &oerr) {
		return tagStatus(err, oerr.StatusCode)
	}

	var gerr *googleapi.Error
	if stderrors.As(err, &gerr) {
		return tagStatus(err, gerr.Code)
	}

	return retry.Classify(err)
}

func tagStatus(err error, status int) error {
	if kind := retry.KindOfHTTPStatus(status); kind != "" {
		return errors.WrapWithKind(err, kind, kind.Description())
	}
	return retry.Classify(err)
}
