package ports

import (
	"context"
	"time"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

// EventInput is the DTO for creating or updating an event.
type EventInput struct {
	Name     string
	Date     time.Time
	Location string
}

// EventService defines use-case operations for events and participants.
type EventService interface {
	CreateEvent(ctx context.Context, in EventInput, organizerID string) (*domain.Event, error)
	UpdateEvent(ctx context.Context, eventID string, in EventInput) (*domain.Event, error)
	FetchEvent(ctx context.Context, eventID string) (*domain.Event, error)
	FetchAllSortedDesc(ctx context.Context) ([]domain.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error

	AddParticipant(ctx context.Context, eventID, email string) error
	RemoveParticipant(ctx context.Context, eventID, email string) error
	FetchParticipants(ctx context.Context, eventID string) ([]domain.User, error)

	FindEventsByUserID(ctx context.Context, userID string) ([]domain.Event, error)
	FindEventsByUserIDSortedByDate(ctx context.Context, userID string) ([]domain.Event, error)
	FindEventsByOrganizerID(ctx context.Context, organizerID string) ([]domain.Event, error)
	FindEventsWithParticipantCountByOrganizerID(ctx context.Context, organizerID string) ([]domain.EventParticipantCount, error)
}
