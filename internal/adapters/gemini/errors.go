package gemini

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel kinds for client errors.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrEmptyResponse     = errors.New("empty response")
)

// DefaultRetryAfter is the wait reported to callers when the service rate
// limits a request without naming its own retry window.
const DefaultRetryAfter = 60 * time.Second

// RateLimitError signals that the caller must wait before retrying. It is
// never retried internally.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited; retry after %s: %v", e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// AuthenticationError signals that the supplied credential was rejected and
// must be re-entered by the user.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("invalid API key: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }
