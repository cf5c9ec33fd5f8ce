package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/internal/core/ports"
	"github.com/eventsphere/eventsphere/internal/core/service"
)

// Context keys populated by Auth.
const (
	KeyPrincipal   = "principal"
	KeyTokenID     = "token_id"
	KeyTokenExpiry = "token_exp"
)

// Auth validates the JWT, rejects revoked token ids and injects the principal
// into context. revoker may be nil, in which case revocation is not checked.
func Auth(jwtSecret string, revoker ports.TokenRevoker, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			}, jwt.WithExpirationRequired())
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			principal := principalFromClaims(claims)
			if principal.UserID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			tokenID, _ := claims[service.ClaimTokenID].(string)
			if revoker != nil && tokenID != "" {
				revoked, err := revoker.IsRevoked(c.Request().Context(), tokenID)
				if err != nil {
					log.Error().Err(err).Str("token_id", tokenID).Msg("revocation lookup failed")
					return echo.NewHTTPError(http.StatusServiceUnavailable, "token check unavailable")
				}
				if revoked {
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				}
			}

			var expiry time.Time
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				expiry = exp.Time
			}

			c.Set(KeyPrincipal, principal)
			c.Set(KeyTokenID, tokenID)
			c.Set(KeyTokenExpiry, expiry)

			return next(c)
		}
	}
}

func principalFromClaims(claims jwt.MapClaims) *domain.Principal {
	p := &domain.Principal{}
	p.UserID, _ = claims[service.ClaimSubject].(string)
	p.Email, _ = claims[service.ClaimEmail].(string)
	p.Username, _ = claims[service.ClaimUsername].(string)

	// JSON arrays decode as []interface{}.
	if raw, ok := claims[service.ClaimAuthorities].([]interface{}); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok {
				p.Authorities = append(p.Authorities, s)
			}
		}
	}
	return p
}
