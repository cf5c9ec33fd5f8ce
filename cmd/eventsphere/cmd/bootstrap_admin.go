package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/internal/core/ports"
	"github.com/eventsphere/eventsphere/internal/core/service"
)

var (
	adminEmail    string
	adminUsername string
	adminPassword string
)

var bootstrapAdminCmd = &cobra.Command{
	Use:   "bootstrap-admin",
	Short: "Create an administrator or grant ADMIN to an existing user",
	Long: `Create a user with the USER and ADMIN roles. When the email is already
registered the ADMIN role is granted and the password is left untouched.

Flags fall back to ADMIN_EMAIL, ADMIN_USERNAME and ADMIN_PASSWORD.

Examples:
  eventsphere bootstrap-admin --email root@example.com --password 's3cret!'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		email := firstNonEmpty(adminEmail, cfg.Admin.Email)
		username := firstNonEmpty(adminUsername, cfg.Admin.Username)
		password := firstNonEmpty(adminPassword, cfg.Admin.Password)
		if email == "" {
			return errors.New("admin email is required (--email or ADMIN_EMAIL)")
		}

		store, err := openStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		if err := prepareStore(ctx, store); err != nil {
			return err
		}
		if err := seedRoles(ctx, store.Roles()); err != nil {
			return err
		}

		users := service.NewUserService(store.Users(), store.Roles(), store.Events(), nil, log)
		_, found, err := users.ReadUser(ctx, email)
		if err != nil {
			return err
		}
		if !found {
			if password == "" {
				return errors.New("admin password is required for a new user (--password or ADMIN_PASSWORD)")
			}
			if _, err := users.CreateUser(ctx, ports.CreateUserInput{Username: username, Email: email, Password: password}); err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
		}

		u, err := store.Users().FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		role, err := store.Roles().FindByName(ctx, domain.RoleAdmin)
		if err != nil {
			return err
		}
		if err := store.Users().AddRole(ctx, u.ID, role.ID); err != nil {
			return fmt.Errorf("grant admin: %w", err)
		}

		log.Info().Str("email", email).Bool("created", !found).Msg("admin bootstrapped")
		return nil
	},
}

func init() {
	bootstrapAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email (default: $ADMIN_EMAIL)")
	bootstrapAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username (default: $ADMIN_USERNAME or admin)")
	bootstrapAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (default: $ADMIN_PASSWORD)")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
