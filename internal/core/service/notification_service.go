package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/internal/core/ports"
	"github.com/eventsphere/eventsphere/pkg/idx"
	"github.com/eventsphere/eventsphere/pkg/sanitize"
)

type notificationService struct {
	notifications ports.NotificationRepository
	users         ports.UserRepository
	events        ports.EventRepository
	mail          ports.MailQueue
	log           zerolog.Logger
}

// NewNotificationService returns a NotificationService implementation. mail
// may be nil.
func NewNotificationService(
	notifications ports.NotificationRepository,
	users ports.UserRepository,
	events ports.EventRepository,
	mail ports.MailQueue,
	log zerolog.Logger,
) ports.NotificationService {
	return &notificationService{
		notifications: notifications,
		users:         users,
		events:        events,
		mail:          mail,
		log:           log,
	}
}

type notificationMail struct {
	EventName string
	EventDate string
	Location  string
	Content   string
}

// CreateNotification stores an unread notification. Re-posting the same
// content for the same user and event reuses the existing row and marks it
// unread again.
func (s *notificationService) CreateNotification(ctx context.Context, in ports.NotificationInput) (*domain.Notification, error) {
	if _, err := s.users.FindByID(ctx, in.UserID); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	event, err := s.events.FindByID(ctx, in.EventID)
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	content := sanitize.Text(in.Content)
	now := time.Now().UTC()

	n, err := s.notifications.FindByContentUserEvent(ctx, content, in.UserID, in.EventID)
	switch {
	case err == nil:
		if err := s.resetUnread(ctx, n, now); err != nil {
			return nil, fmt.Errorf("create notification: %w", err)
		}
	case errors.Is(err, domain.ErrResourceNotFound):
		n = &domain.Notification{
			ID:        idx.New(),
			Content:   content,
			Read:      false,
			UserID:    in.UserID,
			EventID:   in.EventID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := s.notifications.Create(ctx, n)
		if errors.Is(err, domain.ErrDataAlreadyExists) {
			// a concurrent post created the row first; collapse into it
			n, err = s.notifications.FindByContentUserEvent(ctx, content, in.UserID, in.EventID)
			if err == nil {
				err = s.resetUnread(ctx, n, now)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("create notification: %w", err)
		}
	default:
		return nil, fmt.Errorf("create notification: %w", err)
	}

	s.log.Info().Str("notification_id", n.ID).Str("event_id", event.ID).Msg("notification posted")
	s.mailParticipants(ctx, event, content)
	return n, nil
}

func (s *notificationService) resetUnread(ctx context.Context, n *domain.Notification, now time.Time) error {
	n.Read = false
	n.UpdatedAt = now
	return s.notifications.Update(ctx, n)
}

func (s *notificationService) mailParticipants(ctx context.Context, event *domain.Event, content string) {
	if s.mail == nil {
		return
	}
	participants, err := s.events.ListParticipants(ctx, event.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("event_id", event.ID).Msg("could not load participants for mail")
		return
	}

	data := notificationMail{
		EventName: event.Name,
		EventDate: domain.FormatDate(event.Date),
		Location:  event.Location,
		Content:   content,
	}
	subject := "New notification for " + event.Name
	for _, p := range participants {
		enqueueMail(s.mail, s.log, p.Email, subject, "notification", data)
	}
}

func (s *notificationService) FetchAll(ctx context.Context) ([]domain.Notification, error) {
	list, err := s.notifications.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch notifications: %w", err)
	}
	return list, nil
}

func (s *notificationService) FetchByUserID(ctx context.Context, userID string) ([]domain.Notification, error) {
	list, err := s.notifications.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch notifications by user: %w", err)
	}
	return list, nil
}

func (s *notificationService) FetchByEventID(ctx context.Context, eventID string) ([]domain.Notification, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("fetch notifications by event: %w", err)
	}
	list, err := s.notifications.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("fetch notifications by event: %w", err)
	}
	return list, nil
}

// MarkRead flips a notification to read. Admins, the author and participants
// of the event may do so.
func (s *notificationService) MarkRead(ctx context.Context, notificationID string, principal *domain.Principal) error {
	if principal == nil {
		return domain.ErrForbidden
	}

	n, err := s.notifications.FindByID(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	allowed := domain.Authorize(principal, domain.RoleAdmin) || n.UserID == principal.UserID
	if !allowed {
		allowed, err = s.events.IsParticipant(ctx, n.EventID, principal.UserID)
		if err != nil {
			return fmt.Errorf("mark read: %w", err)
		}
	}
	if !allowed {
		return domain.ErrForbidden
	}

	if n.Read {
		return nil
	}
	n.Read = true
	n.UpdatedAt = time.Now().UTC()
	if err := s.notifications.Update(ctx, n); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *notificationService) DeleteNotification(ctx context.Context, notificationID string) error {
	if _, err := s.notifications.FindByID(ctx, notificationID); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if err := s.notifications.Delete(ctx, notificationID); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// FindEventIDsWithUnreadNotificationCounts returns, per event the user takes
// part in, how many of its notifications are unread.
func (s *notificationService) FindEventIDsWithUnreadNotificationCounts(ctx context.Context, userID string) ([]domain.EventUnreadCount, error) {
	counts, err := s.notifications.CountUnreadByEventForParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("unread counts: %w", err)
	}
	return counts, nil
}
