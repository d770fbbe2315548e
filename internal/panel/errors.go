package panel

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the server answered 401; the session has already been cleared.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotAuthenticated means no credential is held, so no request was sent.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidCredentials means a login attempt was rejected.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// StatusError is a non-2xx answer other than 401.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// TransportError is a failure to reach the server or read its answer.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportFailure reports errors that leave state intact and only warrant a notification.
func IsTransportFailure(err error) bool {
	var statusErr *StatusError
	var transportErr *TransportError
	return errors.As(err, &statusErr) || errors.As(err, &transportErr)
}
