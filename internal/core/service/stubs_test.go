package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory repositories shared by the service tests
// ---------------------------------------------------------------------------

type memStore struct {
	users         map[string]*domain.User
	userRoles     map[string][]string // user id -> role ids
	roles         map[string]*domain.Role
	events        map[string]*domain.Event
	participants  map[string]map[string]bool // event id -> user ids
	notifications map[string]*domain.Notification

	findErr error // if set, FindByEmail returns this error

	// staleNotificationLookups makes that many FindByContentUserEvent calls
	// miss, as if another writer committed right after the lookup.
	staleNotificationLookups int
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[string]*domain.User),
		userRoles:     make(map[string][]string),
		roles:         make(map[string]*domain.Role),
		events:        make(map[string]*domain.Event),
		participants:  make(map[string]map[string]bool),
		notifications: make(map[string]*domain.Notification),
	}
}

type memUsers struct{ s *memStore }
type memRoles struct{ s *memStore }
type memEvents struct{ s *memStore }
type memNotifications struct{ s *memStore }

func (s *memStore) Users() ports.UserRepository                 { return memUsers{s} }
func (s *memStore) Roles() ports.RoleRepository                 { return memRoles{s} }
func (s *memStore) Events() ports.EventRepository               { return memEvents{s} }
func (s *memStore) Notifications() ports.NotificationRepository { return memNotifications{s} }

// ---- users ----

func (r memUsers) Create(_ context.Context, u *domain.User) error {
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.AlreadyExists("User already exists with email %s", u.Email)
		}
	}
	clone := *u
	clone.Roles = nil
	r.s.users[u.ID] = &clone
	for _, role := range u.Roles {
		r.s.userRoles[u.ID] = append(r.s.userRoles[u.ID], role.ID)
	}
	return nil
}

func (r memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.NotFound("User", "id", id)
	}
	clone := *u
	return &clone, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.s.findErr != nil {
		return nil, r.s.findErr
	}
	for _, u := range r.s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.NotFound("User", "email", email)
}

func (r memUsers) FindRolesByUserID(_ context.Context, userID string) ([]domain.Role, error) {
	roles := []domain.Role{}
	for _, id := range r.s.userRoles[userID] {
		for _, role := range r.s.roles {
			if role.ID == id {
				roles = append(roles, *role)
			}
		}
	}
	return roles, nil
}

func (r memUsers) AddRole(_ context.Context, userID, roleID string) error {
	for _, id := range r.s.userRoles[userID] {
		if id == roleID {
			return nil
		}
	}
	r.s.userRoles[userID] = append(r.s.userRoles[userID], roleID)
	return nil
}

func (r memUsers) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.NotFound("User", "id", u.ID)
	}
	clone := *u
	r.s.users[u.ID] = &clone
	return nil
}

func (r memUsers) Delete(_ context.Context, id string) error {
	delete(r.s.users, id)
	delete(r.s.userRoles, id)
	for _, members := range r.s.participants {
		delete(members, id)
	}
	for eventID, e := range r.s.events {
		if e.OrganizerID == id {
			_ = memEvents(r).Delete(context.Background(), eventID)
		}
	}
	for nid, n := range r.s.notifications {
		if n.UserID == id {
			delete(r.s.notifications, nid)
		}
	}
	return nil
}

// ---- roles ----

func (r memRoles) FindByName(_ context.Context, name string) (*domain.Role, error) {
	for _, role := range r.s.roles {
		if role.Name == name {
			clone := *role
			return &clone, nil
		}
	}
	return nil, domain.NotFound("Role", "name", name)
}

func (r memRoles) Ensure(ctx context.Context, name string) (*domain.Role, error) {
	if role, err := r.FindByName(ctx, name); err == nil {
		return role, nil
	}
	role := &domain.Role{ID: "role-" + name, Name: name}
	r.s.roles[role.ID] = role
	clone := *role
	return &clone, nil
}

// ---- events ----

func (r memEvents) Create(_ context.Context, e *domain.Event) error {
	for _, existing := range r.s.events {
		if existing.Name == e.Name && existing.Date.Equal(e.Date) && existing.Location == e.Location {
			return domain.ErrDataAlreadyExists
		}
	}
	clone := *e
	r.s.events[e.ID] = &clone
	return nil
}

func (r memEvents) FindByID(_ context.Context, id string) (*domain.Event, error) {
	e, ok := r.s.events[id]
	if !ok {
		return nil, domain.NotFound("Event", "id", id)
	}
	clone := *e
	return &clone, nil
}

func (r memEvents) FindByNaturalKey(_ context.Context, name string, date time.Time, location string) (*domain.Event, error) {
	for _, e := range r.s.events {
		if e.Name == name && e.Date.Equal(date) && e.Location == location {
			clone := *e
			return &clone, nil
		}
	}
	return nil, domain.NotFound("Event", "name", name)
}

func (r memEvents) Update(_ context.Context, e *domain.Event) error {
	clone := *e
	r.s.events[e.ID] = &clone
	return nil
}

func (r memEvents) Delete(_ context.Context, id string) error {
	delete(r.s.events, id)
	delete(r.s.participants, id)
	for nid, n := range r.s.notifications {
		if n.EventID == id {
			delete(r.s.notifications, nid)
		}
	}
	return nil
}

func (r memEvents) ListSortedByNameDesc(_ context.Context) ([]domain.Event, error) {
	out := r.collect(func(*domain.Event) bool { return true })
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

func (r memEvents) AddParticipant(_ context.Context, eventID, userID string) error {
	if r.s.participants[eventID] == nil {
		r.s.participants[eventID] = make(map[string]bool)
	}
	r.s.participants[eventID][userID] = true
	return nil
}

func (r memEvents) RemoveParticipant(_ context.Context, eventID, userID string) error {
	delete(r.s.participants[eventID], userID)
	return nil
}

func (r memEvents) ListParticipants(_ context.Context, eventID string) ([]domain.User, error) {
	out := []domain.User{}
	for userID := range r.s.participants[eventID] {
		if u, ok := r.s.users[userID]; ok {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r memEvents) IsParticipant(_ context.Context, eventID, userID string) (bool, error) {
	return r.s.participants[eventID][userID], nil
}

func (r memEvents) ListByParticipant(_ context.Context, userID string) ([]domain.Event, error) {
	return r.collect(func(e *domain.Event) bool { return r.s.participants[e.ID][userID] }), nil
}

func (r memEvents) ListByParticipantSortedByDate(ctx context.Context, userID string) ([]domain.Event, error) {
	out, _ := r.ListByParticipant(ctx, userID)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r memEvents) ListByOrganizer(_ context.Context, organizerID string) ([]domain.Event, error) {
	return r.collect(func(e *domain.Event) bool { return e.OrganizerID == organizerID }), nil
}

func (r memEvents) ListWithParticipantCountByOrganizer(ctx context.Context, organizerID string) ([]domain.EventParticipantCount, error) {
	events, _ := r.ListByOrganizer(ctx, organizerID)
	out := make([]domain.EventParticipantCount, 0, len(events))
	for _, e := range events {
		out = append(out, domain.EventParticipantCount{Event: e, Participants: int64(len(r.s.participants[e.ID]))})
	}
	return out, nil
}

func (r memEvents) collect(keep func(*domain.Event) bool) []domain.Event {
	out := []domain.Event{}
	for _, e := range r.s.events {
		if keep(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- notifications ----

func (r memNotifications) Create(_ context.Context, n *domain.Notification) error {
	for _, existing := range r.s.notifications {
		if existing.Content == n.Content && existing.UserID == n.UserID && existing.EventID == n.EventID {
			return domain.ErrDataAlreadyExists
		}
	}
	clone := *n
	r.s.notifications[n.ID] = &clone
	return nil
}

func (r memNotifications) Update(_ context.Context, n *domain.Notification) error {
	clone := *n
	r.s.notifications[n.ID] = &clone
	return nil
}

func (r memNotifications) FindByID(_ context.Context, id string) (*domain.Notification, error) {
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, domain.NotFound("Notification", "id", id)
	}
	clone := *n
	return &clone, nil
}

func (r memNotifications) FindByContentUserEvent(_ context.Context, content, userID, eventID string) (*domain.Notification, error) {
	if r.s.staleNotificationLookups > 0 {
		r.s.staleNotificationLookups--
		return nil, domain.NotFound("Notification", "content", content)
	}
	for _, n := range r.s.notifications {
		if n.Content == content && n.UserID == userID && n.EventID == eventID {
			clone := *n
			return &clone, nil
		}
	}
	return nil, domain.NotFound("Notification", "content", content)
}

func (r memNotifications) ListAll(_ context.Context) ([]domain.Notification, error) {
	return r.collect(func(*domain.Notification) bool { return true }), nil
}

func (r memNotifications) ListByUserID(_ context.Context, userID string) ([]domain.Notification, error) {
	return r.collect(func(n *domain.Notification) bool { return n.UserID == userID }), nil
}

func (r memNotifications) ListByEventID(_ context.Context, eventID string) ([]domain.Notification, error) {
	return r.collect(func(n *domain.Notification) bool { return n.EventID == eventID }), nil
}

func (r memNotifications) Delete(_ context.Context, id string) error {
	delete(r.s.notifications, id)
	return nil
}

func (r memNotifications) CountUnreadByEventForParticipant(_ context.Context, userID string) ([]domain.EventUnreadCount, error) {
	counts := map[string]int64{}
	for _, n := range r.s.notifications {
		if !n.Read && r.s.participants[n.EventID][userID] {
			counts[n.EventID]++
		}
	}
	out := []domain.EventUnreadCount{}
	for id, c := range counts {
		out = append(out, domain.EventUnreadCount{EventID: id, Unread: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

func (r memNotifications) collect(keep func(*domain.Notification) bool) []domain.Notification {
	out := []domain.Notification{}
	for _, n := range r.s.notifications {
		if keep(n) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---------------------------------------------------------------------------
// Mail and revocation recorders
// ---------------------------------------------------------------------------

type recordingQueue struct {
	mu   sync.Mutex
	sent []ports.Mail
}

func (q *recordingQueue) Enqueue(m ports.Mail) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, m)
}

func (q *recordingQueue) recipients() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.sent))
	for _, m := range q.sent {
		out = append(out, m.To)
	}
	sort.Strings(out)
	return out
}

type stubRevoker struct {
	revoked map[string]time.Duration
	err     error
}

func (r *stubRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if r.err != nil {
		return r.err
	}
	if r.revoked == nil {
		r.revoked = make(map[string]time.Duration)
	}
	r.revoked[tokenID] = ttl
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := r.revoked[tokenID]
	return ok, nil
}
