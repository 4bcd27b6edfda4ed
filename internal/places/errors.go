package places

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a provider failure. Retryable errors are transient (network, 408,
// 429, 5xx); everything else fails immediately.
type Error struct {
	Op         string
	StatusCode int // 0 for network errors
	Body       string
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("places %s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("places %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound
}

func httpError(op string, status int, body string) *Error {
	retry := false
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		retry = true
	case status >= 500:
		retry = true
	}
	return &Error{Op: op, StatusCode: status, Body: body, Retryable: retry}
}

func networkError(op string, err error) *Error {
	return &Error{Op: op, Retryable: true, Err: err}
}
