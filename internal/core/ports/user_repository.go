package ports

import (
	"context"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

// UserRepository defines persistence operations for users and their role set.
// Lookups return domain.ErrResourceNotFound when nothing matches.
type UserRepository interface {
	// Create persists the user together with its role memberships. A duplicate
	// email yields domain.ErrDataAlreadyExists.
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindRolesByUserID(ctx context.Context, userID string) ([]domain.Role, error)
	// AddRole grants an additional role; granting an owned role is a no-op.
	AddRole(ctx context.Context, userID, roleID string) error
	// Update saves username, email and password hash as given.
	Update(ctx context.Context, user *domain.User) error
	// Delete removes the user and everything that references it: role and
	// participant rows, authored notifications, and organized events.
	Delete(ctx context.Context, id string) error
}

// RoleRepository looks roles up by their stable name.
type RoleRepository interface {
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	// Ensure returns the named role, creating it first when missing.
	Ensure(ctx context.Context, name string) (*domain.Role, error)
}
