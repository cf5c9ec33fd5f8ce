package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/internal/core/ports"
	"github.com/eventsphere/eventsphere/pkg/idx"
)

// JWT claim keys shared with the auth middleware.
const (
	ClaimSubject     = "sub"
	ClaimEmail       = "email"
	ClaimUsername    = "username"
	ClaimAuthorities = "authorities"
	ClaimTokenID     = "jti"
	ClaimIssuedAt    = "iat"
	ClaimExpiresAt   = "exp"
)

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// timingHash is compared against when the email is unknown so both failure
// paths pay for one bcrypt comparison.
func timingHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("eventsphere-timing-guard"), bcrypt.DefaultCost)
	})
	return dummyHash
}

// AuthService verifies credentials and issues access tokens.
type AuthService struct {
	users     ports.UserRepository
	revoker   ports.TokenRevoker
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService wires the authenticator. A nil revoker disables server-side
// logout.
func NewAuthService(users ports.UserRepository, revoker ports.TokenRevoker, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		revoker:   revoker,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Authenticate resolves email and password into a principal. Unknown email and
// wrong password both yield domain.ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.Principal, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrResourceNotFound) {
			_ = bcrypt.CompareHashAndPassword(timingHash(), []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	roles, err := s.users.FindRolesByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("authenticate: load roles: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return domain.NewPrincipal(user, roles), nil
}

// Login authenticates and signs an access token for the principal.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Principal, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	principal, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(principal)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("user_id", principal.UserID).Msg("user logged in")
	return token, principal, nil
}

// Logout revokes the token id until the token would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.revoker == nil || tokenID == "" {
		return nil
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, tokenID, ttl); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *AuthService) generateToken(p *domain.Principal) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		ClaimSubject:     p.UserID,
		ClaimEmail:       p.Email,
		ClaimUsername:    p.Username,
		ClaimAuthorities: p.Authorities,
		ClaimTokenID:     idx.New(),
		ClaimIssuedAt:    now.Unix(),
		ClaimExpiresAt:   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
