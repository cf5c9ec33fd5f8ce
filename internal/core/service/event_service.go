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

type eventService struct {
	events ports.EventRepository
	users  ports.UserRepository
	log    zerolog.Logger
}

// NewEventService returns an EventService implementation.
func NewEventService(events ports.EventRepository, users ports.UserRepository, log zerolog.Logger) ports.EventService {
	return &eventService{events: events, users: users, log: log}
}

func duplicateEvent(name string, date time.Time, location string) error {
	return domain.AlreadyExists("Event already exists with given infos %s : %s : %s", name, domain.FormatDate(date), location)
}

// CreateEvent persists a new event organized by organizerID. The
// (name, date, location) triple must be unused.
func (s *eventService) CreateEvent(ctx context.Context, in ports.EventInput, organizerID string) (*domain.Event, error) {
	name := sanitize.Text(in.Name)
	location := sanitize.Text(in.Location)

	if _, err := s.users.FindByID(ctx, organizerID); err != nil {
		return nil, fmt.Errorf("create event: organizer: %w", err)
	}

	if err := s.ensureUniqueTriple(ctx, "", name, in.Date, location); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	now := time.Now().UTC()
	event := &domain.Event{
		ID:          idx.New(),
		Name:        name,
		Date:        in.Date,
		Location:    location,
		OrganizerID: organizerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.events.Create(ctx, event); err != nil {
		if errors.Is(err, domain.ErrDataAlreadyExists) {
			return nil, fmt.Errorf("create event: %w", duplicateEvent(name, in.Date, location))
		}
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.log.Info().Str("event_id", event.ID).Str("organizer_id", organizerID).Msg("event created")
	return event, nil
}

// UpdateEvent replaces name, date and location. The new triple may not belong
// to another event.
func (s *eventService) UpdateEvent(ctx context.Context, eventID string, in ports.EventInput) (*domain.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	name := sanitize.Text(in.Name)
	location := sanitize.Text(in.Location)
	if err := s.ensureUniqueTriple(ctx, event.ID, name, in.Date, location); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	event.Name = name
	event.Date = in.Date
	event.Location = location
	event.UpdatedAt = time.Now().UTC()

	if err := s.events.Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrDataAlreadyExists) {
			return nil, fmt.Errorf("update event: %w", duplicateEvent(name, in.Date, location))
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (s *eventService) ensureUniqueTriple(ctx context.Context, selfID, name string, date time.Time, location string) error {
	existing, err := s.events.FindByNaturalKey(ctx, name, date, location)
	switch {
	case errors.Is(err, domain.ErrResourceNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == selfID:
		return nil
	default:
		return duplicateEvent(name, date, location)
	}
}

func (s *eventService) FetchEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("fetch event: %w", err)
	}
	return event, nil
}

// FetchAllSortedDesc lists every event by name, descending.
func (s *eventService) FetchAllSortedDesc(ctx context.Context) ([]domain.Event, error) {
	events, err := s.events.ListSortedByNameDesc(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	return events, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID string) error {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if err := s.events.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	s.log.Info().Str("event_id", eventID).Msg("event deleted")
	return nil
}

// AddParticipant links the user registered under email to the event.
func (s *eventService) AddParticipant(ctx context.Context, eventID, email string) error {
	user, err := s.resolveMembership(ctx, eventID, email)
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	if err := s.events.AddParticipant(ctx, eventID, user.ID); err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	s.log.Info().Str("event_id", eventID).Str("user_id", user.ID).Msg("participant added")
	return nil
}

func (s *eventService) RemoveParticipant(ctx context.Context, eventID, email string) error {
	user, err := s.resolveMembership(ctx, eventID, email)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	if err := s.events.RemoveParticipant(ctx, eventID, user.ID); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	s.log.Info().Str("event_id", eventID).Str("user_id", user.ID).Msg("participant removed")
	return nil
}

func (s *eventService) resolveMembership(ctx context.Context, eventID, email string) (*domain.User, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.users.FindByEmail(ctx, email)
}

func (s *eventService) FetchParticipants(ctx context.Context, eventID string) ([]domain.User, error) {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("fetch participants: %w", err)
	}
	users, err := s.events.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("fetch participants: %w", err)
	}
	return users, nil
}

func (s *eventService) FindEventsByUserID(ctx context.Context, userID string) ([]domain.Event, error) {
	events, err := s.events.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find events by user: %w", err)
	}
	return events, nil
}

func (s *eventService) FindEventsByUserIDSortedByDate(ctx context.Context, userID string) ([]domain.Event, error) {
	events, err := s.events.ListByParticipantSortedByDate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find events by user: %w", err)
	}
	return events, nil
}

func (s *eventService) FindEventsByOrganizerID(ctx context.Context, organizerID string) ([]domain.Event, error) {
	events, err := s.events.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("find events by organizer: %w", err)
	}
	return events, nil
}

func (s *eventService) FindEventsWithParticipantCountByOrganizerID(ctx context.Context, organizerID string) ([]domain.EventParticipantCount, error) {
	counts, err := s.events.ListWithParticipantCountByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("find events by organizer: %w", err)
	}
	return counts, nil
}
