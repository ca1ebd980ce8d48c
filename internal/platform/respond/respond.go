// Package respond normalizes every API response into the uniform
// success/error envelope and maps application errors to HTTP statuses.
package respond

import (
	"errors"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/platform/apperr"
)

// Envelope is the uniform success wrapper.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the uniform error wrapper.
type ErrorBody struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the mapped status code, a caller-safe message and
// optional per-field validation details.
type ErrorDetail struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Details []apperr.FieldError `json:"details"`
}

// OK writes a 200 success envelope.
func OK(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 success envelope.
func Created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// HTTPErrorHandler returns an echo error handler that converts every
// error into the envelope format. apperr errors map by kind; echo errors
// pass their status through; anything else is a 500 with a generic
// message. Every mapped error is logged, internal ones with a stack.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		detail := ErrorDetail{Message: "Internal server error"}

		var appErr *apperr.Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = appErr.Status()
			detail.Message = appErr.Message
			detail.Details = appErr.Details
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				detail.Message = msg
			}
			if status == http.StatusNotFound {
				detail.Message = "Resource not found"
			}
		}
		detail.Code = status
		if detail.Details == nil {
			detail.Details = []apperr.FieldError{}
		}

		evt := logger.Error().Err(err).
			Int("status", status).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path)
		if status >= http.StatusInternalServerError {
			var stack [4096]byte
			n := runtime.Stack(stack[:], false)
			evt = evt.Str("stack", string(stack[:n]))
		}
		evt.Msg("api error")

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, ErrorBody{Success: false, Error: detail})
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}
