package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that bypass authentication: infrastructure
// endpoints and the credential-issuing endpoints themselves.
var publicPaths = map[string]bool{
	"/health":                    true,
	"/health/db":                 true,
	"/metrics":                   true,
	"/api/v1/auth/register":      true,
	"/api/v1/auth/login":         true,
	"/api/v1/auth/token/refresh": true,
}

// Skipper returns true for requests whose path should skip bearer
// authentication.
func Skipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given path bypasses authentication.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
