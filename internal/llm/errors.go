package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the llm package
var (
	// ErrRetryable marks transient failures: timeouts, connection errors,
	// rate-limit responses, server errors and empty responses.
	ErrRetryable = errors.New("retryable LLM request error")

	// ErrNonRetryable marks failures that will not succeed on retry, such as
	// authentication or malformed-request errors.
	ErrNonRetryable = errors.New("non-retryable LLM request error")

	// ErrValidation is returned when generated text is empty or matches a
	// configured failure signature. It is treated as a failed call.
	ErrValidation = errors.New("LLM output failed validation")

	// ErrNoProvider is returned when a call targets an unconfigured role.
	ErrNoProvider = errors.New("no provider configured for role")
)

// classifyStatus maps an HTTP response status to the retry taxonomy.
// Rate limiting and server-side failures are worth retrying; any other
// client error is a terminal misuse of the API.
func classifyStatus(status int, detail string) error {
	switch {
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout:
		return fmt.Errorf("%w: status %d: %s", ErrRetryable, status, detail)
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrRetryable, status, detail)
	case status >= 400:
		return fmt.Errorf("%w: status %d: %s", ErrNonRetryable, status, detail)
	default:
		return fmt.Errorf("%w: unexpected status %d: %s", ErrRetryable, status, detail)
	}
}
