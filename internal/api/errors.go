package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSessionExpired is returned when the token pair could not be refreshed.
	// The session has been cleared; the user must log in again.
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidCredentials is returned by Login when the backend rejects the credentials.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// StatusError is a non-2xx backend answer.
type StatusError struct {
	StatusCode int
	// Message is the envelope's msg field, if the body carried one.
	Message string
	Body    []byte
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// TransportError means no usable response was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 answer.
func IsUnauthorized(err error) bool {
	return statusCode(err) == http.StatusUnauthorized
}

// IsValidation reports whether the backend rejected the request for a reason
// other than authorization (a 4xx other than 401).
func IsValidation(err error) bool {
	code := statusCode(err)
	return code >= 400 && code < 500 && code != http.StatusUnauthorized
}

func statusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
