package ports

import (
	"context"
	"time"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

// Authenticator verifies credentials and produces a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*domain.Principal, error)
}

// AuthService issues and revokes access tokens on top of Authenticator.
type AuthService interface {
	Authenticator
	Login(ctx context.Context, email, password string) (string, *domain.Principal, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// TokenRevoker stores ids of tokens that must no longer be accepted.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
