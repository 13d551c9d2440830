// Package apperrors defines the error taxonomy shared by the client layers.
//
// Four conditions reach callers:
//
//   - ErrSessionExpired: the refresh protocol was exhausted; the session has
//     already been cleared by the time the caller sees it.
//   - *RequestFailed: the request never produced an HTTP response.
//   - *ValidationError: input was rejected locally, before any network call.
//   - *ServerRejected: the server answered with a non-2xx status.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionExpired is returned when an unauthorized response could not be
	// recovered by a token refresh.
	ErrSessionExpired = errors.New("session expired")

	// ErrNotLoggedIn is returned when an operation needs a session and none is stored.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNoReport is returned when the server has no weekly report yet.
	ErrNoReport = errors.New("no report yet")
)

// RequestFailed reports a transport-level failure (DNS, refused connection,
// timeout, unreadable body).
type RequestFailed struct {
	Op  string
	Err error
}

func (e *RequestFailed) Error() string {
	return fmt.Sprintf("request failed: %s: %v", e.Op, e.Err)
}

func (e *RequestFailed) Unwrap() error { return e.Err }

// ValidationError reports input rejected before contacting the server.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ServerRejected reports a non-2xx response. Detail carries the server's
// explanation verbatim when one was provided.
type ServerRejected struct {
	Status int
	Detail string
}

func (e *ServerRejected) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server rejected request (status %d)", e.Status)
	}
	return e.Detail
}

// IsStatus reports whether err is a ServerRejected with the given status.
func IsStatus(err error, status int) bool {
	var sr *ServerRejected
	return errors.As(err, &sr) && sr.Status == status
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRequestFailed reports whether err is a RequestFailed.
func IsRequestFailed(err error) bool {
	var rf *RequestFailed
	return errors.As(err, &rf)
}

// Message returns the text shown to the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var (
		ve *ValidationError
		sr *ServerRejected
		rf *RequestFailed
	)
	switch {
	case errors.Is(err, ErrSessionExpired):
		return "Session expired. Please log in again."
	case errors.Is(err, ErrNotLoggedIn):
		return "Not logged in."
	case errors.As(err, &ve):
		return ve.Reason
	case errors.As(err, &sr):
		return sr.Error()
	case errors.As(err, &rf):
		return "Could not reach the server. Check your connection."
	}
	msg := err.Error()
	if msg == "" {
		return "Something went wrong."
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
