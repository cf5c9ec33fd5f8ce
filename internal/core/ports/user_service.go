package ports

import (
	"context"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

// CreateUserInput is the registration DTO passed from the transport layer.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
}

// UpdateUserInput carries the profile fields copied onto the stored user.
// The user is located by Email.
type UpdateUserInput struct {
	Username string
	Email    string
	Password string
}

// UserView is the outward representation of a user.
type UserView struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// UserService defines use-case operations for users.
type UserService interface {
	CreateUser(ctx context.Context, in CreateUserInput) (bool, error)
	FetchUser(ctx context.Context, email string) (*UserView, error)
	ReadUser(ctx context.Context, email string) (*domain.User, bool, error)
	UpdateUser(ctx context.Context, in UpdateUserInput) error
	DeleteUser(ctx context.Context, email string) error
	IsAdmin(ctx context.Context, principal *domain.Principal) (bool, error)
	FindEventsByUserID(ctx context.Context, userID string) ([]domain.Event, error)
}
