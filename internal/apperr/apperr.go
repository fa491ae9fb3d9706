// Package apperr implements the error taxonomy every engine and the
// HTTP layer classify failures into: Validation, NotFound, Conflict,
// Transient, ParseError, Fatal. Handlers map a Kind to an HTTP status
// with Status(); callers identify a Kind with errors.As.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Validation Kind = "VALIDATION"
	NotFound   Kind = "NOT_FOUND"
	Conflict   Kind = "CONFLICT"
	Transient  Kind = "TRANSIENT"
	ParseError Kind = "PARSE_ERROR"
	Fatal      Kind = "FATAL"
)

// Error is a taxonomy-classified, wrappable error.
type Error struct {
	Kind    Kind
	Code    string // e.g. "PROVIDER_BAD_DATA", "AI_PARSE_ERROR"
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// Status maps an error's Kind to an HTTP status code, falling back to
// 500 for errors that aren't an *Error.
func Status(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case Validation, ParseError:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Transient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err (or something it wraps) is an *Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
