package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	_ "github.com/eventsphere/eventsphere/docs"
	"github.com/eventsphere/eventsphere/internal/api"
	"github.com/eventsphere/eventsphere/internal/core/ports"
	"github.com/eventsphere/eventsphere/internal/core/service"
	redisdb "github.com/eventsphere/eventsphere/internal/infrastructure/db/redis"
	"github.com/eventsphere/eventsphere/internal/infrastructure/email"
	infrahttp "github.com/eventsphere/eventsphere/internal/infrastructure/http"
	"github.com/eventsphere/eventsphere/internal/infrastructure/http/handlers"
	"github.com/eventsphere/eventsphere/internal/infrastructure/queue"
)

var serverPort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server and begin accepting requests.

The server will:
- Open the configured store and apply pending migrations
- Seed the USER and ADMIN roles
- Connect Redis for token revocation when REDIS_ADDR is set
- Start the mail dispatcher workers
- Handle graceful shutdown on SIGINT/SIGTERM`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverPort, "port", "", "server port (default: $PORT or 8080)")
}

func runServer(parent context.Context) error {
	if serverPort != "" {
		cfg.Port = serverPort
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("store close")
		}
	}()

	if err := prepareStore(ctx, store); err != nil {
		return fmt.Errorf("prepare store: %w", err)
	}
	if err := seedRoles(ctx, store.Roles()); err != nil {
		return err
	}

	checks := map[string]handlers.Check{"store": store.Ping}

	var revoker ports.TokenRevoker
	if cfg.Redis.Addr != "" {
		revocations, err := redisdb.OpenRevocationStore(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer revocations.Close()
		revoker = revocations
		checks["redis"] = revocations.Ping
	} else {
		log.Warn().Msg("REDIS_ADDR not set; logout will not revoke tokens")
	}

	var mailer ports.Mailer
	if cfg.Mail.ResendAPIKey != "" {
		rm, err := email.NewResendMailer(cfg.Mail.ResendAPIKey, cfg.Mail.From, log)
		if err != nil {
			return err
		}
		mailer = rm
	} else {
		log.Warn().Msg("RESEND_API_KEY not set; mail is logged instead of sent")
		mailer = email.NewLogMailer(log)
	}
	dispatcher := queue.NewDispatcher(cfg.Mail.Workers, mailer, log)

	e := api.NewRouter(api.Deps{
		Auth:               service.NewAuthService(store.Users(), revoker, cfg.JWTSecret, cfg.TokenTTL, log),
		Users:              service.NewUserService(store.Users(), store.Roles(), store.Events(), dispatcher, log),
		Events:             service.NewEventService(store.Events(), store.Users(), log),
		Notifications:      service.NewNotificationService(store.Notifications(), store.Users(), store.Events(), dispatcher, log),
		Revoker:            revoker,
		JWTSecret:          cfg.JWTSecret,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		Logger:             log,
	})
	infrahttp.RegisterOps(e, checks)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Mail outlives the HTTP server so requests drained by Shutdown can
	// still enqueue.
	mailCtx, stopMail := context.WithCancel(context.WithoutCancel(ctx))
	defer stopMail()
	dispatcher.Start(mailCtx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("store", cfg.Store.Driver).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	stopMail()
	dispatcher.Wait()
	return err
}
