package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

type notificationRow struct {
	ID        string `db:"id"`
	Content   string `db:"content"`
	IsRead    bool   `db:"is_read"`
	UserID    string `db:"user_id"`
	EventID   string `db:"event_id"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r notificationRow) toDomain() domain.Notification {
	return domain.Notification{
		ID:        r.ID,
		Content:   r.Content,
		Read:      r.IsRead,
		UserID:    r.UserID,
		EventID:   r.EventID,
		CreatedAt: unixToTime(r.CreatedAt),
		UpdatedAt: unixToTime(r.UpdatedAt),
	}
}

const notificationColumns = `n.id, n.content, n.is_read, n.user_id, n.event_id, n.created_at, n.updated_at`

type notificationRepo struct {
	s *Store
}

func (r *notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, content, is_read, user_id, event_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Content, n.Read, n.UserID, n.EventID, n.CreatedAt.Unix(), n.UpdatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDataAlreadyExists
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *notificationRepo) Update(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.s.db.ExecContext(ctx,
		`UPDATE notifications SET content = ?, is_read = ?, updated_at = ? WHERE id = ?`,
		n.Content, n.Read, n.UpdatedAt.Unix(), n.ID)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	return requireAffected(res, "Notification", n.ID)
}

func (r *notificationRepo) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	return r.getOne(ctx, domain.NotFound("Notification", "id", id),
		`SELECT `+notificationColumns+` FROM notifications n WHERE n.id = ?`, id)
}

func (r *notificationRepo) FindByContentUserEvent(ctx context.Context, content, userID, eventID string) (*domain.Notification, error) {
	return r.getOne(ctx, domain.NotFound("Notification", "content", content),
		`SELECT `+notificationColumns+` FROM notifications n WHERE n.content = ? AND n.user_id = ? AND n.event_id = ?`,
		content, userID, eventID)
}

func (r *notificationRepo) getOne(ctx context.Context, notFound error, query string, args ...any) (*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var row notificationRow
	if err := sqlx.GetContext(ctx, r.s.db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	n := row.toDomain()
	return &n, nil
}

func (r *notificationRepo) ListAll(ctx context.Context) ([]domain.Notification, error) {
	return r.list(ctx, `SELECT `+notificationColumns+` FROM notifications n ORDER BY n.created_at DESC, n.id DESC`)
}

func (r *notificationRepo) ListByUserID(ctx context.Context, userID string) ([]domain.Notification, error) {
	return r.list(ctx, `SELECT `+notificationColumns+` FROM notifications n WHERE n.user_id = ? ORDER BY n.created_at DESC, n.id DESC`, userID)
}

func (r *notificationRepo) ListByEventID(ctx context.Context, eventID string) ([]domain.Notification, error) {
	return r.list(ctx, `SELECT `+notificationColumns+` FROM notifications n WHERE n.event_id = ? ORDER BY n.created_at DESC, n.id DESC`, eventID)
}

func (r *notificationRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return requireAffected(res, "Notification", id)
}

func (r *notificationRepo) CountUnreadByEventForParticipant(ctx context.Context, userID string) ([]domain.EventUnreadCount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []struct {
		EventID string `db:"event_id"`
		Unread  int64  `db:"unread"`
	}
	err := sqlx.SelectContext(ctx, r.s.db, &rows,
		`SELECT n.event_id AS event_id, COUNT(n.id) AS unread FROM notifications n
		 JOIN event_participants p ON p.event_id = n.event_id
		 WHERE p.user_id = ? AND n.is_read = 0
		 GROUP BY n.event_id ORDER BY n.event_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	counts := make([]domain.EventUnreadCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, domain.EventUnreadCount{EventID: row.EventID, Unread: row.Unread})
	}
	return counts, nil
}

func (r *notificationRepo) list(ctx context.Context, query string, args ...any) ([]domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows []notificationRow
	if err := sqlx.SelectContext(ctx, r.s.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
