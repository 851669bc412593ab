// Package apperr defines the error variants the HTTP error handler
// dispatches on. Handlers and collaborators construct one of these at the
// point of failure; anything else that reaches the error handler is treated
// as an unclassified internal error.
package apperr

import "net/http"

// Error is a classified, client-facing error carrying an explicit HTTP
// status. Message may be a translation key or literal text; Detail is an
// optional internal note that never reaches the client in production.
type Error struct {
	Status  int
	Message string
	Detail  string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates a classified error with the given status and message.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// WithDetail attaches an internal detail string and returns the error.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

// NotFound creates a 404 error.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Conflict creates a 409 error.
func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// ValidationError carries the per-field messages produced by request
// validation. Each message is translated independently by the error
// handler; order is preserved.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "validation failed"
	}
	return e.Messages[0]
}

// Validation creates a validation error from field messages.
func Validation(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}
