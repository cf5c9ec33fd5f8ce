package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

type eventDoc struct {
	ID          string `bson:"_id"`
	Name        string `bson:"name"`
	EventDate   string `bson:"event_date"`
	Location    string `bson:"location"`
	OrganizerID string `bson:"organizer_id"`
	CreatedAt   int64  `bson:"created_at"`
	UpdatedAt   int64  `bson:"updated_at"`
}

func newEventDoc(e *domain.Event) eventDoc {
	return eventDoc{
		ID:          e.ID,
		Name:        e.Name,
		EventDate:   domain.FormatDate(e.Date),
		Location:    e.Location,
		OrganizerID: e.OrganizerID,
		CreatedAt:   e.CreatedAt.Unix(),
		UpdatedAt:   e.UpdatedAt.Unix(),
	}
}

func (d eventDoc) toDomain() (domain.Event, error) {
	date, err := domain.ParseDate(d.EventDate)
	if err != nil {
		return domain.Event{}, fmt.Errorf("event %s: bad date %q: %w", d.ID, d.EventDate, err)
	}
	return domain.Event{
		ID:          d.ID,
		Name:        d.Name,
		Date:        date,
		Location:    d.Location,
		OrganizerID: d.OrganizerID,
		CreatedAt:   unixToTime(d.CreatedAt),
		UpdatedAt:   unixToTime(d.UpdatedAt),
	}, nil
}

type participantDoc struct {
	EventID  string `bson:"event_id"`
	UserID   string `bson:"user_id"`
	JoinedAt int64  `bson:"joined_at"`
}

var byDateThenName = bson.D{{Key: "event_date", Value: 1}, {Key: "name", Value: 1}}

type eventRepo struct {
	db *mongo.Database
}

func (r *eventRepo) events() *mongo.Collection       { return r.db.Collection(collectionEvents) }
func (r *eventRepo) participants() *mongo.Collection { return r.db.Collection(collectionParticipants) }

func (r *eventRepo) Create(ctx context.Context, e *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.events().InsertOne(ctx, newEventDoc(e)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDataAlreadyExists
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *eventRepo) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.findOne(ctx, bson.M{"_id": id}, domain.NotFound("Event", "id", id))
}

func (r *eventRepo) FindByNaturalKey(ctx context.Context, name string, date time.Time, location string) (*domain.Event, error) {
	filter := bson.M{"name": name, "event_date": domain.FormatDate(date), "location": location}
	return r.findOne(ctx, filter, domain.NotFound("Event", "name", name))
}

func (r *eventRepo) findOne(ctx context.Context, filter bson.M, notFound error) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc eventDoc
	if err := r.events().FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	e, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepo) Update(ctx context.Context, e *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := newEventDoc(e)
	res, err := r.events().UpdateOne(ctx, bson.M{"_id": e.ID}, bson.M{"$set": bson.M{
		"name":       doc.Name,
		"event_date": doc.EventDate,
		"location":   doc.Location,
		"updated_at": doc.UpdatedAt,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDataAlreadyExists
		}
		return fmt.Errorf("update event: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("Event", "id", e.ID)
	}
	return nil
}

// Delete removes participant rows and notifications before the event itself.
func (r *eventRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.participants().DeleteMany(ctx, bson.M{"event_id": id}); err != nil {
		return fmt.Errorf("delete event: participants: %w", err)
	}
	if _, err := r.db.Collection(collectionNotifications).DeleteMany(ctx, bson.M{"event_id": id}); err != nil {
		return fmt.Errorf("delete event: notifications: %w", err)
	}
	res, err := r.events().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("Event", "id", id)
	}
	return nil
}

func (r *eventRepo) ListSortedByNameDesc(ctx context.Context) ([]domain.Event, error) {
	return r.find(ctx, bson.M{}, bson.D{{Key: "name", Value: -1}, {Key: "_id", Value: 1}})
}

// AddParticipant touches the event first so an unknown event never leaves an
// orphaned join document.
func (r *eventRepo) AddParticipant(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := r.touch(ctx, eventID); err != nil {
		return err
	}
	_, err := r.participants().UpdateOne(ctx,
		bson.M{"event_id": eventID, "user_id": userID},
		bson.M{"$setOnInsert": bson.M{"joined_at": time.Now().UTC().Unix()}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

func (r *eventRepo) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := r.touch(ctx, eventID); err != nil {
		return err
	}
	if _, err := r.participants().DeleteOne(ctx, bson.M{"event_id": eventID, "user_id": userID}); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}

func (r *eventRepo) touch(ctx context.Context, eventID string) error {
	res, err := r.events().UpdateOne(ctx, bson.M{"_id": eventID},
		bson.M{"$set": bson.M{"updated_at": time.Now().UTC().Unix()}})
	if err != nil {
		return fmt.Errorf("touch event: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("Event", "id", eventID)
	}
	return nil
}

func (r *eventRepo) ListParticipants(ctx context.Context, eventID string) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	userIDs, err := distinctStrings(ctx, r.participants(), "user_id", bson.M{"event_id": eventID})
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if len(userIDs) == 0 {
		return []domain.User{}, nil
	}

	cur, err := r.db.Collection(collectionUsers).Find(ctx,
		bson.M{"_id": bson.M{"$in": userIDs}},
		options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	users := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

func (r *eventRepo) IsParticipant(ctx context.Context, eventID, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.participants().CountDocuments(ctx, bson.M{"event_id": eventID, "user_id": userID})
	if err != nil {
		return false, fmt.Errorf("is participant: %w", err)
	}
	return n > 0, nil
}

// ListByParticipant keeps join order.
func (r *eventRepo) ListByParticipant(ctx context.Context, userID string) ([]domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.participants().Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}, {Key: "event_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list by participant: %w", err)
	}
	var joins []participantDoc
	if err := cur.All(ctx, &joins); err != nil {
		return nil, fmt.Errorf("decode participations: %w", err)
	}
	if len(joins) == 0 {
		return []domain.Event{}, nil
	}

	ids := make([]string, 0, len(joins))
	for _, j := range joins {
		ids = append(ids, j.EventID)
	}
	events, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	ordered := make([]domain.Event, 0, len(events))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			ordered = append(ordered, e)
		}
	}
	return ordered, nil
}

func (r *eventRepo) ListByParticipantSortedByDate(ctx context.Context, userID string) ([]domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ids, err := distinctStrings(ctx, r.participants(), "event_id", bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("list by participant: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Event{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, byDateThenName)
}

func (r *eventRepo) ListByOrganizer(ctx context.Context, organizerID string) ([]domain.Event, error) {
	return r.find(ctx, bson.M{"organizer_id": organizerID}, byDateThenName)
}

func (r *eventRepo) ListWithParticipantCountByOrganizer(ctx context.Context, organizerID string) ([]domain.EventParticipantCount, error) {
	events, err := r.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return []domain.EventParticipantCount{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	counts, err := countByEvent(ctx, r.participants(), bson.M{"event_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}

	out := make([]domain.EventParticipantCount, 0, len(events))
	for _, e := range events {
		out = append(out, domain.EventParticipantCount{Event: e, Participants: counts[e.ID]})
	}
	return out, nil
}

func (r *eventRepo) find(ctx context.Context, filter bson.M, sort bson.D) ([]domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	cur, err := r.events().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]domain.Event, 0, len(docs))
	for _, d := range docs {
		e, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

type eventCount struct {
	EventID string `bson:"_id"`
	Count   int64  `bson:"count"`
}

// countByEvent groups the documents matching filter by event_id.
func countByEvent(ctx context.Context, col *mongo.Collection, filter bson.M) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$event_id"}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	}
	cur, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []eventCount
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.EventID] = row.Count
	}
	return out, nil
}
