// Package apperr defines the error taxonomy shared by all API handlers.
// Services return these errors; the response layer maps them onto HTTP
// statuses and the uniform error envelope.
package apperr

import (
	"fmt"
	"net/http"
)

// Kind classifies an API error.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal"
)

// FieldError carries a per-field validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the structured application error. Message is safe to show to
// API callers; Err holds the underlying cause for server-side logs.
type Error struct {
	Kind    Kind
	Message string
	Details []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error kind. Conflicts are
// reported as 400 validation failures, matching the API contract for
// duplicate emails and duplicate assignment links.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Validation returns a 400 validation error with a caller-facing message.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// ValidationFields returns a 400 "Validation error" carrying per-field details.
func ValidationFields(details ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "Validation error", Details: details}
}

// NotFound returns a 404 error. Scope misses use this too, so callers
// cannot distinguish "absent" from "not yours".
func NotFound() *Error {
	return &Error{Kind: KindNotFound, Message: "Resource not found"}
}

// NotFoundMsg returns a 404 error with a specific message.
func NotFoundMsg(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Unauthorized returns a 401 error.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Forbidden returns a 403 error.
func Forbidden() *Error {
	return &Error{Kind: KindForbidden, Message: "Permission denied"}
}

// Conflict returns a duplicate-resource error, surfaced as 400.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Internal wraps an unexpected error. The wrapped cause is logged but
// never exposed to the caller.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}
