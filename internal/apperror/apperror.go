package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an operational failure: anticipated, explicitly raised, and
// carrying a message that is safe to show to the end user. Anything that is
// not an *Error is treated as an unclassified (programming) error by the
// normalizer middleware and never shown verbatim in production.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an operational error with an explicit status code
func New(statusCode int, message string) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

// Wrap attaches an underlying cause to an operational error
func Wrap(statusCode int, message string, err error) *Error {
	return &Error{StatusCode: statusCode, Message: message, Err: err}
}

// BadRequest marks a validation failure (400)
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unauthenticated marks a missing or rejected credential (401)
func Unauthenticated(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// Forbidden marks an authenticated identity lacking permission (403)
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

// NotFound marks an absent resource (404)
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Conflict marks a uniqueness violation. Reported as 400, matching the
// platform's duplicate-field behavior.
func Conflict(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Internal marks a failure the caller chose to surface with a safe message
func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// As extracts an operational *Error from an error chain
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsOperational reports whether err is an anticipated, user-presentable failure
func IsOperational(err error) bool {
	_, ok := As(err)
	return ok
}
