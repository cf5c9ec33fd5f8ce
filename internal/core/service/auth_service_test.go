package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

func seedUser(t *testing.T, s *memStore, id, email, password string, roleNames ...string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &domain.User{ID: id, Username: id, Email: email, PasswordHash: string(hash)}
	for _, name := range roleNames {
		role, _ := s.Roles().Ensure(context.Background(), name)
		u.Roles = append(u.Roles, *role)
	}
	if err := s.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestAuthService_Authenticate_Success(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "u1", "alice@example.com", "s3cret!", domain.RoleUser, domain.RoleAdmin)
	svc := NewAuthService(store.Users(), nil, "secret", time.Hour, zerolog.Nop())

	p, err := svc.Authenticate(context.Background(), "alice@example.com", "s3cret!")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.UserID != "u1" || p.Email != "alice@example.com" {
		t.Fatalf("unexpected principal: %+v", p)
	}
	if !domain.Authorize(p, domain.RoleUser) || !domain.Authorize(p, domain.RoleAdmin) {
		t.Fatalf("expected both authorities, got %v", p.Authorities)
	}
}

func TestAuthService_Authenticate_FailuresAreIndistinguishable(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "u1", "bob@example.com", "goodpass", domain.RoleUser)
	svc := NewAuthService(store.Users(), nil, "secret", time.Hour, zerolog.Nop())

	_, errUnknown := svc.Authenticate(context.Background(), "ghost@example.com", "goodpass")
	_, errWrong := svc.Authenticate(context.Background(), "bob@example.com", "badpass")

	if !errors.Is(errUnknown, domain.ErrInvalidCredentials) || !errors.Is(errWrong, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials twice, got %v / %v", errUnknown, errWrong)
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Fatalf("messages differ: %q vs %q", errUnknown, errWrong)
	}
}

func TestAuthService_Authenticate_RepositoryErrorNotMasked(t *testing.T) {
	store := newMemStore()
	boom := errors.New("connection refused")
	store.findErr = boom
	svc := NewAuthService(store.Users(), nil, "secret", time.Hour, zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), "alice@example.com", "x")
	if !errors.Is(err, boom) {
		t.Fatalf("expected repository error, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("repository failure must not look like bad credentials")
	}
}

func TestAuthService_Login_IssuesToken(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "u1", "carol@example.com", "s3cret!", domain.RoleUser)
	svc := NewAuthService(store.Users(), nil, "secret", time.Hour, zerolog.Nop())

	token, p, err := svc.Login(context.Background(), "carol@example.com", "s3cret!")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || p == nil {
		t.Fatalf("expected token and principal")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims[ClaimSubject] != "u1" || claims[ClaimEmail] != "carol@example.com" {
		t.Fatalf("unexpected identity claims: %v", claims)
	}
	if jti, _ := claims[ClaimTokenID].(string); jti == "" {
		t.Fatalf("expected token id")
	}
	auths, _ := claims[ClaimAuthorities].([]interface{})
	if len(auths) != 1 || auths[0] != "ROLE_USER" {
		t.Fatalf("unexpected authorities claim: %v", claims[ClaimAuthorities])
	}
}

func TestAuthService_Login_EmptyInput(t *testing.T) {
	svc := NewAuthService(newMemStore().Users(), nil, "secret", time.Hour, zerolog.Nop())
	if _, _, err := svc.Login(context.Background(), "", ""); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	revoker := &stubRevoker{}
	svc := NewAuthService(newMemStore().Users(), revoker, "secret", time.Hour, zerolog.Nop())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if err := svc.Logout(context.Background(), "tok-1", now.Add(30*time.Minute)); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ttl := revoker.revoked["tok-1"]; ttl != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %v", ttl)
	}

	// already expired tokens need no entry
	if err := svc.Logout(context.Background(), "tok-2", now.Add(-time.Minute)); err != nil {
		t.Fatalf("logout expired: %v", err)
	}
	if _, ok := revoker.revoked["tok-2"]; ok {
		t.Fatalf("expired token should not be stored")
	}

	revoker.err = errors.New("redis down")
	if err := svc.Logout(context.Background(), "tok-3", now.Add(time.Hour)); err == nil {
		t.Fatalf("expected revoker error to surface")
	}
}
