package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/internal/core/ports"
)

func newUserSvc(store *memStore, q ports.MailQueue) ports.UserService {
	return NewUserService(store.Users(), store.Roles(), store.Events(), q, zerolog.Nop())
}

func TestUserService_CreateUser(t *testing.T) {
	store := newMemStore()
	q := &recordingQueue{}
	svc := newUserSvc(store, q)

	created, err := svc.CreateUser(context.Background(), ports.CreateUserInput{
		Username: "alice", Email: "alice@example.com", Password: "Tr0ub4dor",
	})
	if err != nil || !created {
		t.Fatalf("expected creation, got %v / %v", created, err)
	}

	u, err := store.Users().FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if u.PasswordHash == "Tr0ub4dor" {
		t.Fatalf("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("Tr0ub4dor")); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}

	roles, _ := store.Users().FindRolesByUserID(context.Background(), u.ID)
	if len(roles) != 1 || roles[0].Name != domain.RoleUser {
		t.Fatalf("expected default USER role, got %v", roles)
	}

	if got := q.recipients(); len(got) != 1 || got[0] != "alice@example.com" {
		t.Fatalf("expected welcome mail, got %v", got)
	}
}

func TestUserService_CreateUser_DuplicateEmail(t *testing.T) {
	store := newMemStore()
	q := &recordingQueue{}
	svc := newUserSvc(store, q)
	in := ports.CreateUserInput{Username: "bob", Email: "bob@example.com", Password: "pass1"}

	if ok, _ := svc.CreateUser(context.Background(), in); !ok {
		t.Fatalf("first registration should succeed")
	}
	ok, err := svc.CreateUser(context.Background(), in)
	if err != nil {
		t.Fatalf("duplicate should not error: %v", err)
	}
	if ok {
		t.Fatalf("duplicate email must report false")
	}
	if len(q.recipients()) != 1 {
		t.Fatalf("duplicate must not send mail")
	}
}

func TestUserService_FetchUser(t *testing.T) {
	store := newMemStore()
	svc := newUserSvc(store, nil)
	seedUser(t, store, "u1", "carol@example.com", "x", domain.RoleUser, domain.RoleAdmin)

	view, err := svc.FetchUser(context.Background(), "carol@example.com")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if view.ID != "u1" || len(view.Roles) != 2 {
		t.Fatalf("unexpected view: %+v", view)
	}

	_, err = svc.FetchUser(context.Background(), "ghost@example.com")
	if !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestUserService_ReadUser(t *testing.T) {
	store := newMemStore()
	svc := newUserSvc(store, nil)
	seedUser(t, store, "u1", "dave@example.com", "x")

	if _, found, err := svc.ReadUser(context.Background(), "dave@example.com"); err != nil || !found {
		t.Fatalf("expected found, got %v / %v", found, err)
	}
	u, found, err := svc.ReadUser(context.Background(), "ghost@example.com")
	if err != nil || found || u != nil {
		t.Fatalf("expected (nil, false, nil), got (%v, %v, %v)", u, found, err)
	}
}

func TestUserService_UpdateUser_CopiesFieldsVerbatim(t *testing.T) {
	store := newMemStore()
	svc := newUserSvc(store, nil)
	seedUser(t, store, "u1", "erin@example.com", "old")

	err := svc.UpdateUser(context.Background(), ports.UpdateUserInput{
		Username: "erin2", Email: "erin@example.com", Password: "newpass",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	u, _ := store.Users().FindByID(context.Background(), "u1")
	if u.Username != "erin2" {
		t.Fatalf("username not updated: %s", u.Username)
	}
	if u.PasswordHash != "newpass" {
		t.Fatalf("expected password copied as given, got %q", u.PasswordHash)
	}

	err = svc.UpdateUser(context.Background(), ports.UpdateUserInput{Email: "ghost@example.com"})
	if !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestUserService_DeleteUser_Cascades(t *testing.T) {
	store := newMemStore()
	svc := newUserSvc(store, nil)
	seedUser(t, store, "u1", "frank@example.com", "x", domain.RoleUser)
	store.events["e1"] = &domain.Event{ID: "e1", Name: "Own", OrganizerID: "u1", Date: time.Now()}
	store.events["e2"] = &domain.Event{ID: "e2", Name: "Other", OrganizerID: "u9", Date: time.Now()}
	_ = store.Events().AddParticipant(context.Background(), "e2", "u1")
	store.notifications["n1"] = &domain.Notification{ID: "n1", UserID: "u1", EventID: "e2"}

	if err := svc.DeleteUser(context.Background(), "frank@example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := store.users["u1"]; ok {
		t.Fatalf("user still present")
	}
	if _, ok := store.events["e1"]; ok {
		t.Fatalf("organized event should cascade")
	}
	if store.participants["e2"]["u1"] {
		t.Fatalf("participation should cascade")
	}
	if _, ok := store.notifications["n1"]; ok {
		t.Fatalf("authored notification should cascade")
	}

	if err := svc.DeleteUser(context.Background(), "frank@example.com"); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestUserService_IsAdmin(t *testing.T) {
	store := newMemStore()
	svc := newUserSvc(store, nil)
	seedUser(t, store, "admin", "admin@example.com", "x", domain.RoleUser, domain.RoleAdmin)
	seedUser(t, store, "user", "user@example.com", "x", domain.RoleUser)

	tests := []struct {
		name string
		p    *domain.Principal
		want bool
	}{
		{"admin", &domain.Principal{UserID: "admin"}, true},
		{"plain user", &domain.Principal{UserID: "user"}, false},
		// stored roles win over what the token claims
		{"forged authority", &domain.Principal{UserID: "user", Authorities: []string{"ROLE_ADMIN"}}, false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.IsAdmin(context.Background(), tt.p)
			if err != nil {
				t.Fatalf("is admin: %v", err)
			}
			if got != tt.want {
				t.Fatalf("IsAdmin = %v, want %v", got, tt.want)
			}
		})
	}
}
