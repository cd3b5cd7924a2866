package client

import (
	"errors"
	"fmt"
)

// ErrBanned is returned by any request whose response reported the account banned.
// By the time it is returned the session has already been terminated.
var ErrBanned = errors.New("account banned")

var errNoEmail = errors.New("no signed-in email")

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	var rejErr *RejectedError
	if errors.As(err, &rejErr) {
		return rejErr.StatusCode == code
	}
	return false
}

// RejectedError is a business failure reported by the server as
// {success: false, error: "..."}. Reason is shown to the user verbatim.
type RejectedError struct {
	StatusCode int
	Reason     string
}

func (e *RejectedError) Error() string {
	return e.Reason
}

// Rejection returns the server-supplied reason if err is a RejectedError.
func Rejection(err error) (string, bool) {
	var rejErr *RejectedError
	if errors.As(err, &rejErr) {
		return rejErr.Reason, true
	}
	return "", false
}

func rejected(reason, fallback string) error {
	if reason == "" {
		reason = fallback
	}
	return &RejectedError{StatusCode: 200, Reason: reason}
}

// IsRejected reports whether err is a server-reported business failure.
func IsRejected(err error) bool {
	_, ok := Rejection(err)
	return ok
}
