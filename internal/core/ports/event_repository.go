package ports

import (
	"context"
	"time"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

// EventRepository handles events and the participant join table.
type EventRepository interface {
	// Create persists a new event. A duplicate (name, date, location) triple
	// yields domain.ErrDataAlreadyExists.
	Create(ctx context.Context, event *domain.Event) error
	FindByID(ctx context.Context, id string) (*domain.Event, error)
	FindByNaturalKey(ctx context.Context, name string, date time.Time, location string) (*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
	// Delete removes the event with its participant rows and notifications.
	Delete(ctx context.Context, id string) error
	// ListSortedByNameDesc returns every event ordered by name, descending.
	ListSortedByNameDesc(ctx context.Context) ([]domain.Event, error)

	// AddParticipant writes the join row and touches the event in one
	// transaction. Adding an existing participant is a no-op.
	AddParticipant(ctx context.Context, eventID, userID string) error
	// RemoveParticipant deletes the join row and touches the event in one
	// transaction.
	RemoveParticipant(ctx context.Context, eventID, userID string) error
	ListParticipants(ctx context.Context, eventID string) ([]domain.User, error)
	IsParticipant(ctx context.Context, eventID, userID string) (bool, error)

	ListByParticipant(ctx context.Context, userID string) ([]domain.Event, error)
	ListByParticipantSortedByDate(ctx context.Context, userID string) ([]domain.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]domain.Event, error)
	ListWithParticipantCountByOrganizer(ctx context.Context, organizerID string) ([]domain.EventParticipantCount, error)
}
