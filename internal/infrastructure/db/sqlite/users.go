package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

type userRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    unixToTime(r.CreatedAt),
		UpdatedAt:    unixToTime(r.UpdatedAt),
	}
}

const userColumns = `u.id, u.username, u.email, u.password_hash, u.created_at, u.updated_at`

type userRepo struct {
	s *Store
}

// Create inserts the user and its role rows in one transaction.
func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err := r.s.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt.Unix(), user.UpdatedAt.Unix())
		if err != nil {
			return err
		}
		for _, role := range user.Roles {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)`, user.ID, role.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AlreadyExists("User already exists with email %s", user.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *userRepo) findOne(ctx context.Context, column, value string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var row userRow
	err := sqlx.GetContext(ctx, r.s.db, &row, `SELECT `+userColumns+` FROM users u WHERE u.`+column+` = ?`, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("User", column, value)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u := row.toDomain()
	return &u, nil
}

func (r *userRepo) FindRolesByUserID(ctx context.Context, userID string) ([]domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	roles := []domain.Role{}
	err := sqlx.SelectContext(ctx, r.s.db, &roles,
		`SELECT r.id AS id, r.name AS name FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 WHERE ur.user_id = ? ORDER BY r.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("find roles: %w", err)
	}
	return roles, nil
}

func (r *userRepo) AddRole(ctx context.Context, userID, roleID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)`, userID, roleID); err != nil {
		return fmt.Errorf("add role: %w", err)
	}
	return nil
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.s.db.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, password_hash = ?, updated_at = ? WHERE id = ?`,
		user.Username, user.Email, user.PasswordHash, user.UpdatedAt.Unix(), user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.AlreadyExists("User already exists with email %s", user.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res, "User", user.ID)
}

// Delete relies on ON DELETE CASCADE for roles, participations, authored
// notifications and organized events.
func (r *userRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireAffected(res, "User", id)
}

func requireAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound(resource, "id", id)
	}
	return nil
}
