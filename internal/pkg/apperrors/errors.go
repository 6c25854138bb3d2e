// internal/pkg/apperrors/errors.go
package apperrors

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindExternal
	KindIntegrity
)

// Error is a domain error carrying a classification and a user-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given kind and message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error with the given kind, message and cause
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Constructors for the common kinds

func Validation(message string) *Error     { return New(KindValidation, message) }
func Authentication(message string) *Error { return New(KindAuthentication, message) }
func Authorization(message string) *Error  { return New(KindAuthorization, message) }
func NotFound(message string) *Error       { return New(KindNotFound, message) }
func Conflict(message string) *Error       { return New(KindConflict, message) }
func Integrity(message string) *Error      { return New(KindIntegrity, message) }

// External wraps a failure from an external collaborator (payment processor)
func External(message string, err error) *Error {
	return Wrap(KindExternal, message, err)
}

// KindOf returns the classification of err, KindInternal for unknown errors
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the response status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict, KindIntegrity:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
