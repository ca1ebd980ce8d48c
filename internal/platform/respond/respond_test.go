package respond

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/platform/apperr"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(zerolog.New(io.Discard))
	return e
}

func do(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestOKEnvelope(t *testing.T) {
	e := newEcho()
	e.GET("/ok", func(c echo.Context) error {
		return OK(c, "all good", map[string]string{"k": "v"})
	})

	rec := do(e, http.MethodGet, "/ok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != true || body["message"] != "all good" {
		t.Fatalf("unexpected envelope %v", body)
	}
	if body["data"].(map[string]interface{})["k"] != "v" {
		t.Fatalf("unexpected data %v", body["data"])
	}
}

func TestValidationErrorEnvelope(t *testing.T) {
	e := newEcho()
	e.GET("/bad", func(c echo.Context) error {
		return apperr.ValidationFields(apperr.FieldError{Field: "age", Message: "Age must be between 0 and 150."})
	})

	rec := do(e, http.MethodGet, "/bad")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != false {
		t.Fatalf("expected failure envelope, got %v", body)
	}
	errBody := body["error"].(map[string]interface{})
	if errBody["code"] != float64(http.StatusBadRequest) {
		t.Fatalf("unexpected code %v", errBody["code"])
	}
	if errBody["message"] != "Validation error" {
		t.Fatalf("unexpected message %v", errBody["message"])
	}
	details := errBody["details"].([]interface{})
	if len(details) != 1 {
		t.Fatalf("expected 1 detail, got %v", details)
	}
	detail := details[0].(map[string]interface{})
	if detail["field"] != "age" {
		t.Fatalf("unexpected detail %v", detail)
	}
}

func TestNotFoundRouteUsesUniformMessage(t *testing.T) {
	e := newEcho()

	rec := do(e, http.MethodGet, "/no-such-route")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	body := decode(t, rec)
	errBody := body["error"].(map[string]interface{})
	if errBody["message"] != "Resource not found" {
		t.Fatalf("unexpected message %v", errBody["message"])
	}
	if _, ok := errBody["details"].([]interface{}); !ok {
		t.Fatalf("details must always be an array, got %v", errBody["details"])
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	e := newEcho()
	e.GET("/boom", func(c echo.Context) error {
		return apperr.Internal(io.ErrUnexpectedEOF)
	})

	rec := do(e, http.MethodGet, "/boom")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decode(t, rec)
	errBody := body["error"].(map[string]interface{})
	if errBody["message"] != "Internal server error" {
		t.Fatalf("internal cause leaked: %v", errBody["message"])
	}
}

func TestUnknownErrorIs500(t *testing.T) {
	e := newEcho()
	e.GET("/oops", func(c echo.Context) error {
		return io.ErrClosedPipe
	})

	rec := do(e, http.MethodGet, "/oops")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != false {
		t.Fatalf("expected failure envelope, got %v", body)
	}
}

func TestConflictMapsToBadRequest(t *testing.T) {
	e := newEcho()
	e.GET("/dup", func(c echo.Context) error {
		return apperr.Conflict("A doctor with this email already exists.")
	})

	rec := do(e, http.MethodGet, "/dup")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
