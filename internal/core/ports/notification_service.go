package ports

import (
	"context"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

// NotificationInput is the DTO for creating a notification.
type NotificationInput struct {
	Content string
	UserID  string
	EventID string
}

// NotificationService defines use-case operations for notifications.
type NotificationService interface {
	CreateNotification(ctx context.Context, in NotificationInput) (*domain.Notification, error)
	FetchAll(ctx context.Context) ([]domain.Notification, error)
	FetchByUserID(ctx context.Context, userID string) ([]domain.Notification, error)
	FetchByEventID(ctx context.Context, eventID string) ([]domain.Notification, error)
	MarkRead(ctx context.Context, notificationID string, principal *domain.Principal) error
	DeleteNotification(ctx context.Context, notificationID string) error
	FindEventIDsWithUnreadNotificationCounts(ctx context.Context, userID string) ([]domain.EventUnreadCount, error)
}
