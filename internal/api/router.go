package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/eventsphere/eventsphere/internal/api/handler"
	"github.com/eventsphere/eventsphere/internal/api/middleware"
	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/internal/core/ports"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Auth          ports.AuthService
	Users         ports.UserService
	Events        ports.EventService
	Notifications ports.NotificationService
	// Revoker is optional; without it logged-out tokens stay valid until expiry.
	Revoker ports.TokenRevoker

	JWTSecret          string
	LoginRatePerMinute int
	Logger             zerolog.Logger
	// Registerer receives the HTTP request metrics; nil means the default
	// Prometheus registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all API routes
// registered. Operational endpoints are mounted separately.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	promMiddleware, err := echoprometheus.MiddlewareConfig{
		Namespace:  "eventsphere",
		Subsystem:  "http",
		Registerer: deps.Registerer,
	}.ToMiddleware()
	if err != nil {
		deps.Logger.Warn().Err(err).Msg("request metrics disabled")
	} else {
		e.Use(promMiddleware)
	}

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Users)
	userHandler := handler.NewUserHandler(deps.Users, deps.Events, deps.Notifications, deps.Auth)
	eventHandler := handler.NewEventHandler(deps.Events, deps.Notifications)
	adminHandler := handler.NewAdminHandler(deps.Users, deps.Events, deps.Notifications)

	authMiddleware := middleware.Auth(deps.JWTSecret, deps.Revoker, deps.Logger)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login, loginRateLimiter(deps.LoginRatePerMinute))
	e.POST("/auth/logout", authHandler.Logout, authMiddleware)

	// --- Authenticated user routes ---
	user := e.Group("", authMiddleware, middleware.RequireRole(domain.RoleUser))
	user.GET("/dashboard", userHandler.Dashboard)
	user.GET("/users/me", userHandler.Me)
	user.PUT("/users/me", userHandler.UpdateMe)
	user.DELETE("/users/me", userHandler.DeleteMe)
	user.GET("/users/me/events", userHandler.MyEvents)
	user.GET("/users/me/events/organized", userHandler.MyOrganizedEvents)
	user.GET("/users/me/notifications", userHandler.MyNotifications)
	user.GET("/users/me/notifications/unread-counts", userHandler.MyUnreadCounts)
	user.POST("/events", eventHandler.Create)
	user.GET("/events/:id", eventHandler.Get)
	user.GET("/events/:id/notifications", eventHandler.Notifications)
	user.PATCH("/notifications/:id/read", eventHandler.MarkNotificationRead)

	// --- Admin routes ---
	admin := e.Group("/admin", authMiddleware, middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/events", adminHandler.ListEvents)
	admin.POST("/events", adminHandler.CreateEvent)
	admin.PUT("/events/:id", adminHandler.UpdateEvent)
	admin.DELETE("/events/:id", adminHandler.DeleteEvent)
	admin.GET("/events/:id/participants", adminHandler.ListParticipants)
	admin.POST("/events/:id/participants", adminHandler.AddParticipant)
	admin.DELETE("/events/:id/participants/:email", adminHandler.RemoveParticipant)
	admin.GET("/notifications", adminHandler.ListNotifications)
	admin.POST("/notifications", adminHandler.CreateNotification)
	admin.DELETE("/notifications/:id", adminHandler.DeleteNotification)
	admin.DELETE("/users/:email", adminHandler.DeleteUser)

	return e
}

// loginRateLimiter throttles login attempts per client IP. perMinute <= 0
// disables it.
func loginRateLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
		},
	})
}
