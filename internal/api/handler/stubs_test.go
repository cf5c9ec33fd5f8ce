package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventsphere/eventsphere/internal/api/middleware"
	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/internal/core/ports"
)

type stubAuthService struct {
	loginFn  func(ctx context.Context, email, password string) (string, *domain.Principal, error)
	logoutFn func(ctx context.Context, tokenID string, expiresAt time.Time) error
}

func (s *stubAuthService) Authenticate(ctx context.Context, email, password string) (*domain.Principal, error) {
	_, p, err := s.loginFn(ctx, email, password)
	return p, err
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.Principal, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, tokenID, expiresAt)
}

type stubUserService struct {
	ports.UserService
	createFn  func(ctx context.Context, in ports.CreateUserInput) (bool, error)
	fetchFn   func(ctx context.Context, email string) (*ports.UserView, error)
	updateFn  func(ctx context.Context, in ports.UpdateUserInput) error
	deleteFn  func(ctx context.Context, email string) error
	isAdminFn func(ctx context.Context, p *domain.Principal) (bool, error)
}

func (s *stubUserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (bool, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) FetchUser(ctx context.Context, email string) (*ports.UserView, error) {
	return s.fetchFn(ctx, email)
}

func (s *stubUserService) UpdateUser(ctx context.Context, in ports.UpdateUserInput) error {
	return s.updateFn(ctx, in)
}

func (s *stubUserService) DeleteUser(ctx context.Context, email string) error {
	return s.deleteFn(ctx, email)
}

func (s *stubUserService) IsAdmin(ctx context.Context, p *domain.Principal) (bool, error) {
	return s.isAdminFn(ctx, p)
}

type stubEventService struct {
	ports.EventService
	createFn       func(ctx context.Context, in ports.EventInput, organizerID string) (*domain.Event, error)
	updateFn       func(ctx context.Context, id string, in ports.EventInput) (*domain.Event, error)
	fetchFn        func(ctx context.Context, id string) (*domain.Event, error)
	listFn         func(ctx context.Context) ([]domain.Event, error)
	deleteFn       func(ctx context.Context, id string) error
	addFn          func(ctx context.Context, eventID, email string) error
	removeFn       func(ctx context.Context, eventID, email string) error
	participantsFn func(ctx context.Context, eventID string) ([]domain.User, error)
	byDateFn       func(ctx context.Context, userID string) ([]domain.Event, error)
	organizedFn    func(ctx context.Context, organizerID string) ([]domain.EventParticipantCount, error)
}

func (s *stubEventService) CreateEvent(ctx context.Context, in ports.EventInput, organizerID string) (*domain.Event, error) {
	return s.createFn(ctx, in, organizerID)
}

func (s *stubEventService) UpdateEvent(ctx context.Context, id string, in ports.EventInput) (*domain.Event, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubEventService) FetchEvent(ctx context.Context, id string) (*domain.Event, error) {
	return s.fetchFn(ctx, id)
}

func (s *stubEventService) FetchAllSortedDesc(ctx context.Context) ([]domain.Event, error) {
	return s.listFn(ctx)
}

func (s *stubEventService) DeleteEvent(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *stubEventService) AddParticipant(ctx context.Context, eventID, email string) error {
	return s.addFn(ctx, eventID, email)
}

func (s *stubEventService) RemoveParticipant(ctx context.Context, eventID, email string) error {
	return s.removeFn(ctx, eventID, email)
}

func (s *stubEventService) FetchParticipants(ctx context.Context, eventID string) ([]domain.User, error) {
	return s.participantsFn(ctx, eventID)
}

func (s *stubEventService) FindEventsByUserIDSortedByDate(ctx context.Context, userID string) ([]domain.Event, error) {
	return s.byDateFn(ctx, userID)
}

func (s *stubEventService) FindEventsWithParticipantCountByOrganizerID(ctx context.Context, organizerID string) ([]domain.EventParticipantCount, error) {
	return s.organizedFn(ctx, organizerID)
}

type stubNotificationService struct {
	ports.NotificationService
	createFn  func(ctx context.Context, in ports.NotificationInput) (*domain.Notification, error)
	byEventFn func(ctx context.Context, eventID string) ([]domain.Notification, error)
	byUserFn  func(ctx context.Context, userID string) ([]domain.Notification, error)
	markFn    func(ctx context.Context, id string, p *domain.Principal) error
	deleteFn  func(ctx context.Context, id string) error
	unreadFn  func(ctx context.Context, userID string) ([]domain.EventUnreadCount, error)
}

func (s *stubNotificationService) CreateNotification(ctx context.Context, in ports.NotificationInput) (*domain.Notification, error) {
	return s.createFn(ctx, in)
}

func (s *stubNotificationService) FetchByEventID(ctx context.Context, eventID string) ([]domain.Notification, error) {
	return s.byEventFn(ctx, eventID)
}

func (s *stubNotificationService) FetchByUserID(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.byUserFn(ctx, userID)
}

func (s *stubNotificationService) MarkRead(ctx context.Context, id string, p *domain.Principal) error {
	return s.markFn(ctx, id, p)
}

func (s *stubNotificationService) DeleteNotification(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *stubNotificationService) FindEventIDsWithUnreadNotificationCounts(ctx context.Context, userID string) ([]domain.EventUnreadCount, error) {
	return s.unreadFn(ctx, userID)
}

// newTestEcho returns an Echo with the production validator pinned to a fixed
// clock.
func newTestEcho(now time.Time) *echo.Echo {
	e := echo.New()
	e.Validator = newValidator(func() time.Time { return now })
	return e
}

func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withPrincipal(c echo.Context, p *domain.Principal) {
	c.Set(middleware.KeyPrincipal, p)
}

var alice = &domain.Principal{
	UserID:      "u-alice",
	Email:       "alice@example.com",
	Username:    "alice",
	Authorities: []string{"ROLE_USER"},
}

var fixedNow = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
