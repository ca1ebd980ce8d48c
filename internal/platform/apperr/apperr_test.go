package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{ValidationFields(FieldError{Field: "age", Message: "Age must be between 0 and 150."}), http.StatusBadRequest},
		{Conflict("duplicate"), http.StatusBadRequest},
		{NotFound(), http.StatusNotFound},
		{NotFoundMsg("Doctor not found"), http.StatusNotFound},
		{Unauthorized("nope"), http.StatusUnauthorized},
		{Forbidden(), http.StatusForbidden},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.err.Status(); got != tc.want {
			t.Errorf("%s: expected status %d, got %d", tc.err.Kind, tc.want, got)
		}
	}
}

func TestDefaultMessages(t *testing.T) {
	if NotFound().Message != "Resource not found" {
		t.Errorf("unexpected not found message %q", NotFound().Message)
	}
	if Forbidden().Message != "Permission denied" {
		t.Errorf("unexpected forbidden message %q", Forbidden().Message)
	}
	if ValidationFields().Message != "Validation error" {
		t.Errorf("unexpected validation message %q", ValidationFields().Message)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}

	var appErr *Error
	wrapped := fmt.Errorf("handler: %w", err)
	if !errors.As(wrapped, &appErr) {
		t.Fatal("expected errors.As to find apperr.Error through wrapping")
	}
	if appErr.Kind != KindInternal {
		t.Fatalf("unexpected kind %s", appErr.Kind)
	}
}

func TestErrorString(t *testing.T) {
	err := Validation("bad input")
	if err.Error() != "validation: bad input" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
	withCause := Internal(errors.New("boom"))
	if withCause.Error() != "internal: Internal server error: boom" {
		t.Fatalf("unexpected error string %q", withCause.Error())
	}
}
