package ports

import "context"

// Store bundles the repositories of one storage driver.
type Store interface {
	Users() UserRepository
	Roles() RoleRepository
	Events() EventRepository
	Notifications() NotificationRepository
	Ping(ctx context.Context) error
	Close() error
}
