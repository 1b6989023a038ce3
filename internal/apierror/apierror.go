// Package apierror provides standardized error response structures for the API
// and the typed failures raised by the transactional engines.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// Kind classifies an engine failure.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindConflict             Kind = "conflict"
	KindInvalidState         Kind = "invalid_state"
	KindInsufficientResource Kind = "insufficient_resource"
	KindValidation           Kind = "validation"
)

// Error is a typed business failure. Detail is safe to show to the user.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

func Conflict(format string, args ...any) *Error { return newf(KindConflict, format, args...) }

func InvalidState(format string, args ...any) *Error {
	return newf(KindInvalidState, format, args...)
}

func Insufficient(format string, args ...any) *Error {
	return newf(KindInsufficientResource, format, args...)
}

func Invalid(format string, args ...any) *Error { return newf(KindValidation, format, args...) }

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err is not a typed business failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }
