package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

type notificationDoc struct {
	ID        string `bson:"_id"`
	Content   string `bson:"content"`
	IsRead    bool   `bson:"is_read"`
	UserID    string `bson:"user_id"`
	EventID   string `bson:"event_id"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (d notificationDoc) toDomain() domain.Notification {
	return domain.Notification{
		ID:        d.ID,
		Content:   d.Content,
		Read:      d.IsRead,
		UserID:    d.UserID,
		EventID:   d.EventID,
		CreatedAt: unixToTime(d.CreatedAt),
		UpdatedAt: unixToTime(d.UpdatedAt),
	}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

type notificationRepo struct {
	db *mongo.Database
}

func (r *notificationRepo) col() *mongo.Collection { return r.db.Collection(collectionNotifications) }

func (r *notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := notificationDoc{
		ID:        n.ID,
		Content:   n.Content,
		IsRead:    n.Read,
		UserID:    n.UserID,
		EventID:   n.EventID,
		CreatedAt: n.CreatedAt.Unix(),
		UpdatedAt: n.UpdatedAt.Unix(),
	}
	if _, err := r.col().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDataAlreadyExists
		}
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *notificationRepo) Update(ctx context.Context, n *domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col().UpdateOne(ctx, bson.M{"_id": n.ID}, bson.M{"$set": bson.M{
		"content":    n.Content,
		"is_read":    n.Read,
		"updated_at": n.UpdatedAt.Unix(),
	}})
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("Notification", "id", n.ID)
	}
	return nil
}

func (r *notificationRepo) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	return r.findOne(ctx, bson.M{"_id": id}, domain.NotFound("Notification", "id", id))
}

func (r *notificationRepo) FindByContentUserEvent(ctx context.Context, content, userID, eventID string) (*domain.Notification, error) {
	filter := bson.M{"content": content, "user_id": userID, "event_id": eventID}
	return r.findOne(ctx, filter, domain.NotFound("Notification", "content", content))
}

func (r *notificationRepo) findOne(ctx context.Context, filter bson.M, notFound error) (*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc notificationDoc
	if err := r.col().FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	n := doc.toDomain()
	return &n, nil
}

func (r *notificationRepo) ListAll(ctx context.Context) ([]domain.Notification, error) {
	return r.find(ctx, bson.M{})
}

func (r *notificationRepo) ListByUserID(ctx context.Context, userID string) ([]domain.Notification, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *notificationRepo) ListByEventID(ctx context.Context, eventID string) ([]domain.Notification, error) {
	return r.find(ctx, bson.M{"event_id": eventID})
}

func (r *notificationRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("Notification", "id", id)
	}
	return nil
}

func (r *notificationRepo) CountUnreadByEventForParticipant(ctx context.Context, userID string) ([]domain.EventUnreadCount, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	eventIDs, err := distinctStrings(ctx, r.db.Collection(collectionParticipants), "event_id", bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	if len(eventIDs) == 0 {
		return []domain.EventUnreadCount{}, nil
	}

	counts, err := countByEvent(ctx, r.col(), bson.M{"event_id": bson.M{"$in": eventIDs}, "is_read": false})
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}

	out := make([]domain.EventUnreadCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, domain.EventUnreadCount{EventID: id, Unread: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

func (r *notificationRepo) find(ctx context.Context, filter bson.M) ([]domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col().Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	var docs []notificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	out := make([]domain.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
