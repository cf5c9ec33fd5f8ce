package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/internal/core/service"
	"github.com/eventsphere/eventsphere/internal/infrastructure/db/sqlite"
)

type memRevoker struct {
	mu  sync.Mutex
	ids map[string]bool
}

func (m *memRevoker) Revoke(_ context.Context, tokenID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[tokenID] = true
	return nil
}

func (m *memRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[tokenID], nil
}

type testServer struct {
	e     *echo.Echo
	store *sqlite.Store
}

func newTestServer(t *testing.T, loginRate int) *testServer {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.ApplyMigrations())
	for _, r := range domain.Roles {
		_, err := store.Roles().Ensure(ctx, r)
		require.NoError(t, err)
	}

	log := zerolog.New(io.Discard)
	revoker := &memRevoker{ids: map[string]bool{}}

	e := NewRouter(Deps{
		Auth:               service.NewAuthService(store.Users(), revoker, "test-secret", time.Hour, log),
		Users:              service.NewUserService(store.Users(), store.Roles(), store.Events(), nil, log),
		Events:             service.NewEventService(store.Events(), store.Users(), log),
		Notifications:      service.NewNotificationService(store.Notifications(), store.Users(), store.Events(), nil, log),
		Revoker:            revoker,
		JWTSecret:          "test-secret",
		LoginRatePerMinute: loginRate,
		Logger:             log,
		Registerer:         prometheus.NewRegistry(),
	})
	return &testServer{e: e, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, username, email, password string) {
	t.Helper()
	body := `{"username":"` + username + `","email":"` + email + `","confirm_email":"` + email +
		`","password":"` + password + `","confirm_password":"` + password + `"}`
	rec := s.do(t, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) grantAdmin(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	u, err := s.store.Users().FindByEmail(ctx, email)
	require.NoError(t, err)
	role, err := s.store.Roles().FindByName(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, s.store.Users().AddRole(ctx, u.ID, role.ID))
}

func futureDate(days int) string {
	return domain.FormatDate(time.Now().UTC().AddDate(0, 0, days))
}

func TestRouter_EventLifecycle(t *testing.T) {
	s := newTestServer(t, 0)

	s.register(t, "alice", "alice@example.com", "al1ce-pass")
	s.register(t, "bob", "bob@example.com", "b0b-pass")

	// Duplicate registration is a conflict.
	rec := s.do(t, http.MethodPost, "/auth/register", "",
		`{"username":"alice","email":"alice@example.com","confirm_email":"alice@example.com","password":"al1ce-pass","confirm_password":"al1ce-pass"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	// Unknown user and wrong password look the same.
	unknown := s.do(t, http.MethodPost, "/auth/login", "", `{"email":"ghost@example.com","password":"x"}`)
	wrong := s.do(t, http.MethodPost, "/auth/login", "", `{"email":"alice@example.com","password":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, unknown.Code, wrong.Code)
	require.JSONEq(t, unknown.Body.String(), wrong.Body.String())

	s.grantAdmin(t, "alice@example.com")
	adminToken := s.login(t, "alice@example.com", "al1ce-pass")
	bobToken := s.login(t, "bob@example.com", "b0b-pass")

	rec = s.do(t, http.MethodGet, "/dashboard", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"is_admin":true`)

	// Non-admins are kept out of /admin.
	rec = s.do(t, http.MethodGet, "/admin/events", bobToken, "")
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Past dates are rejected per field.
	rec = s.do(t, http.MethodPost, "/admin/events", adminToken,
		`{"name":"Old","date":"2001-01-01","location":"Rome"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), `"date"`)

	eventBody := `{"name":"Meetup","date":"` + futureDate(30) + `","location":"Berlin"}`
	rec = s.do(t, http.MethodPost, "/admin/events", adminToken, eventBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var event struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))

	rec = s.do(t, http.MethodPost, "/admin/events", adminToken, eventBody)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "Event already exists with given infos Meetup")

	rec = s.do(t, http.MethodPost, "/admin/events/"+event.ID+"/participants", adminToken, `{"email":"bob@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/admin/events/"+event.ID+"/participants", adminToken, `{"email":"ghost@example.com"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Membership is visible from the user side.
	rec = s.do(t, http.MethodGet, "/users/me/events", bobToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), event.ID)

	rec = s.do(t, http.MethodPost, "/admin/notifications", adminToken,
		`{"content":"Doors open at 7","event_id":"`+event.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var n struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &n))

	rec = s.do(t, http.MethodGet, "/users/me/notifications/unread-counts", bobToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var counts []domain.EventUnreadCount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	require.Len(t, counts, 1)
	require.Equal(t, int64(1), counts[0].Unread)

	rec = s.do(t, http.MethodPatch, "/notifications/"+n.ID+"/read", bobToken, "")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/users/me/notifications/unread-counts", bobToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), `"unread":1`)

	rec = s.do(t, http.MethodDelete, "/admin/events/"+event.ID+"/participants/bob@example.com", adminToken, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/admin/events/"+event.ID+"/participants", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "bob@example.com")

	rec = s.do(t, http.MethodDelete, "/admin/events/"+event.ID, adminToken, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/events/"+event.ID, bobToken, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_LogoutRevokesToken(t *testing.T) {
	s := newTestServer(t, 0)
	s.register(t, "carol", "carol@example.com", "car0l-pass")
	token := s.login(t, "carol@example.com", "car0l-pass")

	rec := s.do(t, http.MethodGet, "/users/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/logout", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/users/me", token, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t, 0)

	rec := s.do(t, http.MethodGet, "/dashboard", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/dashboard", "garbage", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_LoginRateLimited(t *testing.T) {
	s := newTestServer(t, 2)
	body := `{"email":"ghost@example.com","password":"x"}`

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/auth/login", "", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
