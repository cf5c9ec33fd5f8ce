package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	mongostore "github.com/eventsphere/eventsphere/internal/infrastructure/db/mongo"
	"github.com/eventsphere/eventsphere/internal/infrastructure/db/sqlite"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply (or roll back) the storage schema",
	Long: `Apply every pending embedded migration for the sqlite driver, or create
the unique indexes for the mongo driver. Roles are seeded afterwards.

Examples:
  eventsphere migrate
  eventsphere migrate --down`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		if migrateDown {
			s, ok := store.(*sqlite.Store)
			if !ok {
				return errors.New("--down is only supported by the sqlite driver")
			}
			if err := s.RollbackMigrations(); err != nil {
				return err
			}
			log.Info().Msg("migrations rolled back")
			return nil
		}

		if err := prepareStore(ctx, store); err != nil {
			return err
		}
		if err := seedRoles(ctx, store.Roles()); err != nil {
			return err
		}

		if _, isMongo := store.(*mongostore.Store); isMongo {
			log.Info().Msg("indexes ensured")
		} else {
			log.Info().Msg("migrations applied")
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back every applied migration")
}
