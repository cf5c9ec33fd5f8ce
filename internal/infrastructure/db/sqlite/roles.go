package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/pkg/idx"
)

type roleRepo struct {
	s *Store
}

func (r *roleRepo) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var role domain.Role
	err := sqlx.GetContext(ctx, r.s.db, &role, `SELECT id, name FROM roles WHERE name = ?`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("Role", "name", name)
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &role, nil
}

func (r *roleRepo) Ensure(ctx context.Context, name string) (*domain.Role, error) {
	insertCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.s.db.ExecContext(insertCtx,
		`INSERT OR IGNORE INTO roles (id, name) VALUES (?, ?)`, idx.New(), name); err != nil {
		return nil, fmt.Errorf("ensure role: %w", err)
	}
	return r.FindByName(ctx, name)
}
