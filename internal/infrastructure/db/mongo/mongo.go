package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventsphere/eventsphere/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

const (
	collectionRoles         = "roles"
	collectionUsers         = "users"
	collectionEvents        = "events"
	collectionParticipants  = "event_participants"
	collectionNotifications = "notifications"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// Store is the document storage driver. Multi-collection writes are issued
// in sequence; standalone servers have no transactions.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore wraps a connected client and database.
func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{client: client, db: db}
}

func (s *Store) Users() ports.UserRepository                 { return &userRepo{db: s.db} }
func (s *Store) Roles() ports.RoleRepository                 { return &roleRepo{col: s.db.Collection(collectionRoles)} }
func (s *Store) Events() ports.EventRepository               { return &eventRepo{db: s.db} }
func (s *Store) Notifications() ports.NotificationRepository { return &notificationRepo{db: s.db} }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and lookup indexes every repository relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	plan := map[string][]mongo.IndexModel{
		collectionRoles: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		collectionEvents: {
			{Keys: bson.D{{Key: "name", Value: 1}, {Key: "event_date", Value: 1}, {Key: "location", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "organizer_id", Value: 1}}},
		},
		collectionParticipants: {
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		collectionNotifications: {
			{Keys: bson.D{{Key: "content", Value: 1}, {Key: "user_id", Value: 1}, {Key: "event_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "is_read", Value: 1}}},
		},
	}

	for name, indexes := range plan {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("ensure indexes %s: %w", name, err)
		}
	}
	return nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

// distinctStrings runs a Distinct on field and keeps the string values.
func distinctStrings(ctx context.Context, col *mongo.Collection, field string, filter bson.M) ([]string, error) {
	values, err := col.Distinct(ctx, field, filter)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
