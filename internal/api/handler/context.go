package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/api/middleware"
	"github.com/eventsphere/eventsphere/internal/core/domain"
)

// ctxPrincipal extracts the principal injected by the Auth middleware. Its
// absence means the route was mounted without Auth.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p, _ := c.Get(middleware.KeyPrincipal).(*domain.Principal)
	if p == nil || p.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return p, nil
}

// ctxToken returns the id and expiry of the bearer token for this request.
func ctxToken(c echo.Context) (string, time.Time) {
	id, _ := c.Get(middleware.KeyTokenID).(string)
	exp, _ := c.Get(middleware.KeyTokenExpiry).(time.Time)
	return id, exp
}

// bindAndValidate decodes the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
