package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when the backend rejects the session
	// cookie with a 401. It routes the user back to login and is not fatal.
	ErrUnauthenticated = errors.New("not logged in")

	// ErrUnexpectedResponse marks a 2xx response whose payload is missing the
	// expected success flag.
	ErrUnexpectedResponse = errors.New("unexpected response from server")

	// ErrSessionNotFound is returned by the session store when no profile has
	// been saved yet.
	ErrSessionNotFound = errors.New("no saved session")
)

// TransportError is a network failure or non-2xx status from the gateway.
// Status is zero when the failure happened before a response arrived.
type TransportError struct {
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Status != 0:
		return fmt.Sprintf("request failed (%d)", e.Status)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "request failed"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError is a local precondition failure. It blocks the action
// before any network round-trip.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
