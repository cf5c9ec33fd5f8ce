package cmd

import (
	"context"
	"fmt"

	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/internal/core/ports"
	"github.com/eventsphere/eventsphere/internal/infrastructure/config"
	mongostore "github.com/eventsphere/eventsphere/internal/infrastructure/db/mongo"
	"github.com/eventsphere/eventsphere/internal/infrastructure/db/sqlite"
)

// openStore connects the storage driver selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (ports.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, err
		}
		return mongostore.NewStore(client, db), nil
	default:
		store, err := sqlite.Open(ctx, cfg.Store.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// prepareStore brings the schema up to date: embedded migrations for sqlite,
// unique indexes for mongo.
func prepareStore(ctx context.Context, store ports.Store) error {
	switch s := store.(type) {
	case *sqlite.Store:
		return s.ApplyMigrations()
	case *mongostore.Store:
		return s.EnsureIndexes(ctx)
	}
	return nil
}

// seedRoles makes sure every known role exists.
func seedRoles(ctx context.Context, roles ports.RoleRepository) error {
	for _, name := range domain.Roles {
		if _, err := roles.Ensure(ctx, name); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}
