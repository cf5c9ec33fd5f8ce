package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

type eventRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	EventDate   string `db:"event_date"`
	Location    string `db:"location"`
	OrganizerID string `db:"organizer_id"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r eventRow) toDomain() (domain.Event, error) {
	date, err := domain.ParseDate(r.EventDate)
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %s: bad date %q: %w", r.ID, r.EventDate, err)
	}
	return domain.Event{
		ID:          r.ID,
		Name:        r.Name,
		Date:        date,
		Location:    r.Location,
		OrganizerID: r.OrganizerID,
		CreatedAt:   unixToTime(r.CreatedAt),
		UpdatedAt:   unixToTime(r.UpdatedAt),
	}, nil
}

type eventCountRow struct {
	eventRow
	Participants int64 `db:"participants"`
}

const eventColumns = `e.id, e.name, e.event_date, e.location, e.organizer_id, e.created_at, e.updated_at`

type eventRepo struct {
	s *Store
}

func (r *eventRepo) Create(ctx context.Context, e *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.s.db.ExecContext(ctx,
		`INSERT INTO events (id, name, event_date, location, organizer_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, domain.FormatDate(e.Date), e.Location, e.OrganizerID, e.CreatedAt.Unix(), e.UpdatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDataAlreadyExists
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *eventRepo) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.getOne(ctx, domain.NotFound("Event", "id", id),
		`SELECT `+eventColumns+` FROM events e WHERE e.id = ?`, id)
}

func (r *eventRepo) FindByNaturalKey(ctx context.Context, name string, date time.Time, location string) (*domain.Event, error) {
	return r.getOne(ctx, domain.NotFound("Event", "name", name),
		`SELECT `+eventColumns+` FROM events e WHERE e.name = ? AND e.event_date = ? AND e.location = ?`,
		name, domain.FormatDate(date), location)
}

func (r *eventRepo) getOne(ctx context.Context, notFound error, query string, args ...any) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var row eventRow
	if err := sqlx.GetContext(ctx, r.s.db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	e, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepo) Update(ctx context.Context, e *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.s.db.ExecContext(ctx,
		`UPDATE events SET name = ?, event_date = ?, location = ?, updated_at = ? WHERE id = ?`,
		e.Name, domain.FormatDate(e.Date), e.Location, e.UpdatedAt.Unix(), e.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDataAlreadyExists
		}
		return fmt.Errorf("update event: %w", err)
	}
	return requireAffected(res, "Event", e.ID)
}

func (r *eventRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireAffected(res, "Event", id)
}

func (r *eventRepo) ListSortedByNameDesc(ctx context.Context) ([]domain.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events e ORDER BY e.name DESC, e.id`)
}

func (r *eventRepo) AddParticipant(ctx context.Context, eventID, userID string) error {
	return r.changeParticipant(ctx, eventID,
		`INSERT OR IGNORE INTO event_participants (event_id, user_id, joined_at) VALUES (?, ?, ?)`,
		eventID, userID, time.Now().UTC().Unix())
}

func (r *eventRepo) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	return r.changeParticipant(ctx, eventID,
		`DELETE FROM event_participants WHERE event_id = ? AND user_id = ?`, eventID, userID)
}

// changeParticipant applies one join-table write and bumps the event's
// updated_at in the same transaction.
func (r *eventRepo) changeParticipant(ctx context.Context, eventID, stmt string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.s.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("participant write: %w", err)
		}
		res, err := tx.ExecContext(ctx, `UPDATE events SET updated_at = ? WHERE id = ?`, time.Now().UTC().Unix(), eventID)
		if err != nil {
			return fmt.Errorf("touch event: %w", err)
		}
		return requireAffected(res, "Event", eventID)
	})
}

func (r *eventRepo) ListParticipants(ctx context.Context, eventID string) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []userRow
	err := sqlx.SelectContext(ctx, r.s.db, &rows,
		`SELECT `+userColumns+` FROM users u
		 JOIN event_participants p ON p.user_id = u.id
		 WHERE p.event_id = ? ORDER BY u.email`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

func (r *eventRepo) IsParticipant(ctx context.Context, eventID, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	err := sqlx.GetContext(ctx, r.s.db, &n,
		`SELECT COUNT(*) FROM event_participants WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("is participant: %w", err)
	}
	return n > 0, nil
}

func (r *eventRepo) ListByParticipant(ctx context.Context, userID string) ([]domain.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events e
		JOIN event_participants p ON p.event_id = e.id
		WHERE p.user_id = ? ORDER BY p.joined_at, e.id`, userID)
}

func (r *eventRepo) ListByParticipantSortedByDate(ctx context.Context, userID string) ([]domain.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events e
		JOIN event_participants p ON p.event_id = e.id
		WHERE p.user_id = ? ORDER BY e.event_date, e.name`, userID)
}

func (r *eventRepo) ListByOrganizer(ctx context.Context, organizerID string) ([]domain.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.organizer_id = ? ORDER BY e.event_date, e.name`, organizerID)
}

func (r *eventRepo) ListWithParticipantCountByOrganizer(ctx context.Context, organizerID string) ([]domain.EventParticipantCount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []eventCountRow
	err := sqlx.SelectContext(ctx, r.s.db, &rows,
		`SELECT `+eventColumns+`, COUNT(p.user_id) AS participants FROM events e
		 LEFT JOIN event_participants p ON p.event_id = e.id
		 WHERE e.organizer_id = ?
		 GROUP BY e.id ORDER BY e.event_date, e.name`, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list organizer counts: %w", err)
	}

	out := make([]domain.EventParticipantCount, 0, len(rows))
	for _, row := range rows {
		e, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, domain.EventParticipantCount{Event: e, Participants: row.Participants})
	}
	return out, nil
}

func (r *eventRepo) list(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []eventRow
	if err := sqlx.SelectContext(ctx, r.s.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		e, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}
