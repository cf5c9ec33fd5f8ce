package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/internal/core/ports"
	"github.com/eventsphere/eventsphere/pkg/idx"
	"github.com/eventsphere/eventsphere/pkg/sanitize"
)

type userService struct {
	users  ports.UserRepository
	roles  ports.RoleRepository
	events ports.EventRepository
	mail   ports.MailQueue
	log    zerolog.Logger
}

// NewUserService returns a UserService implementation. mail may be nil.
func NewUserService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	events ports.EventRepository,
	mail ports.MailQueue,
	log zerolog.Logger,
) ports.UserService {
	return &userService{users: users, roles: roles, events: events, mail: mail, log: log}
}

// CreateUser registers a new account with the USER role. It reports false,
// without error, when the email is already taken.
func (s *userService) CreateUser(ctx context.Context, in ports.CreateUserInput) (bool, error) {
	_, err := s.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, domain.ErrResourceNotFound):
		return false, fmt.Errorf("create user: %w", err)
	}

	role, err := s.roles.Ensure(ctx, domain.RoleUser)
	if err != nil {
		return false, fmt.Errorf("create user: resolve role: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("create user: hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           idx.New(),
		Username:     sanitize.Text(in.Username),
		Email:        in.Email,
		PasswordHash: string(hash),
		Roles:        []domain.Role{*role},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// lost a race against a concurrent registration
		if errors.Is(err, domain.ErrDataAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	enqueueMail(s.mail, s.log, user.Email, "Welcome to EventSphere", "welcome", user)
	return true, nil
}

func (s *userService) FetchUser(ctx context.Context, email string) (*ports.UserView, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}

	roles, err := s.users.FindRolesByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch user: load roles: %w", err)
	}

	view := &ports.UserView{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Roles:    make([]string, 0, len(roles)),
	}
	for _, r := range roles {
		view.Roles = append(view.Roles, r.Name)
	}
	return view, nil
}

// ReadUser is the non-failing lookup: a missing user is reported through
// found rather than an error.
func (s *userService) ReadUser(ctx context.Context, email string) (*domain.User, bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrResourceNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read user: %w", err)
	}
	return user, true, nil
}

// UpdateUser copies the given fields onto the user stored under in.Email.
// The password is stored as given, without hashing.
func (s *userService) UpdateUser(ctx context.Context, in ports.UpdateUserInput) error {
	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	user.Username = sanitize.Text(in.Username)
	user.Email = in.Email
	// TODO: bcrypt this like CreateUser does; login fails until it is.
	user.PasswordHash = in.Password
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *userService) DeleteUser(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("user deleted")
	return nil
}

// IsAdmin reloads the principal's roles from storage instead of trusting the
// token's authorities.
func (s *userService) IsAdmin(ctx context.Context, principal *domain.Principal) (bool, error) {
	if principal == nil {
		return false, nil
	}
	roles, err := s.users.FindRolesByUserID(ctx, principal.UserID)
	if err != nil {
		return false, fmt.Errorf("is admin: %w", err)
	}
	user := domain.User{ID: principal.UserID, Roles: roles}
	return user.HasRole(domain.RoleAdmin), nil
}

func (s *userService) FindEventsByUserID(ctx context.Context, userID string) ([]domain.Event, error) {
	events, err := s.events.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find events by user: %w", err)
	}
	return events, nil
}
