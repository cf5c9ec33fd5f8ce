package ports

import (
	"context"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// Update saves content and read state of an existing notification.
	Update(ctx context.Context, n *domain.Notification) error
	FindByID(ctx context.Context, id string) (*domain.Notification, error)
	FindByContentUserEvent(ctx context.Context, content, userID, eventID string) (*domain.Notification, error)
	ListAll(ctx context.Context) ([]domain.Notification, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Notification, error)
	ListByEventID(ctx context.Context, eventID string) ([]domain.Notification, error)
	Delete(ctx context.Context, id string) error
	// CountUnreadByEventForParticipant groups unread notifications per event,
	// restricted to events the user participates in.
	CountUnreadByEventForParticipant(ctx context.Context, userID string) ([]domain.EventUnreadCount, error)
}
