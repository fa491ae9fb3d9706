package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation maps to bad request", New(Validation, "X", "bad"), http.StatusBadRequest},
		{"parse error maps to bad request", New(ParseError, "X", "bad"), http.StatusBadRequest},
		{"not found maps to 404", New(NotFound, "X", "missing"), http.StatusNotFound},
		{"conflict maps to 409", New(Conflict, "X", "conflict"), http.StatusConflict},
		{"transient maps to 503", New(Transient, "X", "retry"), http.StatusServiceUnavailable},
		{"fatal maps to 500", New(Fatal, "X", "boom"), http.StatusInternalServerError},
		{"plain error maps to 500", errors.New("plain"), http.StatusInternalServerError},
		{"wrapped error is unwrapped via errors.As", Wrap(Conflict, "X", "wrapped", errors.New("inner")), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(Validation, "BAD_INPUT", "ticker required")
	if !Is(err, Validation) {
		t.Error("Is() = false for matching kind, want true")
	}
	if Is(err, NotFound) {
		t.Error("Is() = true for mismatched kind, want false")
	}
	if Is(errors.New("plain"), Validation) {
		t.Error("Is() = true for a non-apperr error, want false")
	}

	wrapped := Wrap(NotFound, "MISSING", "not there", errors.New("pg: no rows"))
	if !Is(wrapped, NotFound) {
		t.Error("Is() = false for wrapped error matching kind, want true")
	}
}

func TestErrorString(t *testing.T) {
	e := New(Validation, "BAD", "ticker required")
	if got := e.Error(); got != "VALIDATION: ticker required" {
		t.Errorf("Error() = %q, want %q", got, "VALIDATION: ticker required")
	}

	inner := errors.New("connection refused")
	wrapped := Wrap(Transient, "DB_DOWN", "database unavailable", inner)
	got := wrapped.Error()
	want := "TRANSIENT: database unavailable: connection refused"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if errors.Unwrap(wrapped) != inner {
		t.Error("Unwrap() did not return the wrapped error")
	}
}
