package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

// RequireRole enforces that the authenticated principal holds role. It must
// run after Auth.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, _ := c.Get(KeyPrincipal).(*domain.Principal)
			if !domain.Authorize(principal, role) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
