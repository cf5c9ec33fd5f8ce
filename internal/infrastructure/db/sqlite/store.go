package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/eventsphere/eventsphere/internal/core/ports"
)

const defaultTimeout = 5 * time.Second

// Store is the relational storage driver.
type Store struct {
	db *sqlx.DB
}

// Open connects to the sqlite database at dsn. Foreign keys are switched on
// through the DSN so every pooled connection enforces the cascades.
// Use "file::memory:?cache=shared" for a throwaway database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", withForeignKeys(dsn))
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// sqlite serializes writers anyway; one connection keeps in-memory
	// databases consistent.
	db.SetMaxOpenConns(1)

	var enabled int
	if err := db.GetContext(ctx, &enabled, `PRAGMA foreign_keys`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	if enabled != 1 {
		_ = db.Close()
		return nil, errors.New("sqlite: foreign keys are disabled")
	}
	return &Store{db: db}, nil
}

// withForeignKeys adds the modernc _pragma parameter unless the DSN already
// sets foreign_keys itself.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// NewWithDB wraps an existing handle. Used by tests.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx executes fn within a transaction, committing on success.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Users() ports.UserRepository                 { return &userRepo{s: s} }
func (s *Store) Roles() ports.RoleRepository                 { return &roleRepo{s: s} }
func (s *Store) Events() ports.EventRepository               { return &eventRepo{s: s} }
func (s *Store) Notifications() ports.NotificationRepository { return &notificationRepo{s: s} }

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
