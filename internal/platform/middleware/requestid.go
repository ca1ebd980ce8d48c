package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// requestIDKey is the echo context key the request ID is stored under.
// Logger and Recovery read it back through RequestIDFromContext.
const requestIDKey = "request_id"

// RequestID attaches a request ID to each request, honoring an inbound
// X-Request-ID header so IDs propagate across services.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set(requestIDKey, rid)
			c.Response().Header().Set("X-Request-ID", rid)
			return next(c)
		}
	}
}

// RequestIDFromContext returns the request ID set by RequestID, or ""
// when the middleware is not installed.
func RequestIDFromContext(c echo.Context) string {
	rid, _ := c.Get(requestIDKey).(string)
	return rid
}
