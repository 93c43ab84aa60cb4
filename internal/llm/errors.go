package llm

import (
	"fmt"
	"net/http"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the service returned content that does not
// conform to the requested schema, or no content at all.
type ErrInvalidResponse struct {
	Content string
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrUnexpectedStatus is a non-success HTTP status from the service.
type ErrUnexpectedStatus struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ErrUnexpectedStatus) Error() string {
	body := e.Body
	if body == "" && e.Err != nil {
		body = e.Err.Error()
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, body)
}

func (e *ErrUnexpectedStatus) Unwrap() error { return e.Err }

// statusError classifies a call that failed with an HTTP status. 429 is a
// rate limit; everything else leaves the provider unavailable for this run.
// The status stays reachable through errors.As.
func statusError(status int, body string, cause error) error {
	statusErr := &ErrUnexpectedStatus{StatusCode: status, Body: body, Err: cause}
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: statusErr}
	}
	return &ErrProviderUnavailable{Err: statusErr}
}
