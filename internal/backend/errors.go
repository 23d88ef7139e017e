package backend

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedResponse = errors.New("malformed backend response")
	ErrUnreachable       = errors.New("store backend unreachable")
)

// RejectedError is a well-formed refusal from the backend: success=false or a non-2xx status.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend rejected request with statusCode=%d", e.StatusCode)
	}
	return fmt.Sprintf("backend rejected request with statusCode=%d message=%s", e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected) && rejected.StatusCode == 404
}

// StatusCode maps a backend error onto the status the storefront answers with.
func StatusCode(err error) int {
	var rejected *RejectedError
	switch {
	case errors.As(err, &rejected):
		if rejected.StatusCode >= 400 && rejected.StatusCode < 500 {
			return rejected.StatusCode
		}
		if rejected.StatusCode < 400 {
			return 422
		}
		return 502
	case errors.Is(err, ErrUnreachable):
		return 503
	case errors.Is(err, ErrMalformedResponse):
		return 502
	default:
		return 500
	}
}

// Message prefers the backend's own wording of a rejection.
func Message(err error) string {
	var rejected *RejectedError
	if errors.As(err, &rejected) && rejected.Message != "" {
		return rejected.Message
	}
	return err.Error()
}
