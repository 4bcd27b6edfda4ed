package genai

import (
	"fmt"
	"net/http"
)

// Error is a failed model call. Retryable errors are transient (network,
// 408, 429, 5xx).
type Error struct {
	StatusCode int // 0 for network errors
	Body       string
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("gemini: HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("gemini: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func statusError(status int, body string) *Error {
	retry := status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500
	return &Error{StatusCode: status, Body: body, Retryable: retry}
}
