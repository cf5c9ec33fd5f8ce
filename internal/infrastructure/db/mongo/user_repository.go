package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventsphere/eventsphere/internal/core/domain"
	"github.com/eventsphere/eventsphere/pkg/idx"
)

type userDoc struct {
	ID           string   `bson:"_id"`
	Username     string   `bson:"username"`
	Email        string   `bson:"email"`
	PasswordHash string   `bson:"password_hash"`
	RoleIDs      []string `bson:"role_ids"`
	CreatedAt    int64    `bson:"created_at"`
	UpdatedAt    int64    `bson:"updated_at"`
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    unixToTime(d.CreatedAt),
		UpdatedAt:    unixToTime(d.UpdatedAt),
	}
}

type roleDoc struct {
	ID   string `bson:"_id"`
	Name string `bson:"name"`
}

type userRepo struct {
	db *mongo.Database
}

func (r *userRepo) users() *mongo.Collection { return r.db.Collection(collectionUsers) }

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDoc{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		RoleIDs:      make([]string, 0, len(user.Roles)),
		CreatedAt:    user.CreatedAt.Unix(),
		UpdatedAt:    user.UpdatedAt.Unix(),
	}
	for _, role := range user.Roles {
		doc.RoleIDs = append(doc.RoleIDs, role.ID)
	}

	if _, err := r.users().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.AlreadyExists("User already exists with email %s", user.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "_id", "id", id)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", "email", email)
}

func (r *userRepo) findOne(ctx context.Context, key, field, value string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.users().FindOne(ctx, bson.M{key: value}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("User", field, value)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u := doc.toDomain()
	return &u, nil
}

func (r *userRepo) FindRolesByUserID(ctx context.Context, userID string) ([]domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	err := r.users().FindOne(ctx, bson.M{"_id": userID}, options.FindOne().SetProjection(bson.M{"role_ids": 1})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []domain.Role{}, nil
		}
		return nil, fmt.Errorf("find roles: %w", err)
	}
	if len(doc.RoleIDs) == 0 {
		return []domain.Role{}, nil
	}

	cur, err := r.db.Collection(collectionRoles).Find(ctx,
		bson.M{"_id": bson.M{"$in": doc.RoleIDs}},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find roles: %w", err)
	}
	var docs []roleDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}

	roles := make([]domain.Role, 0, len(docs))
	for _, d := range docs {
		roles = append(roles, domain.Role{ID: d.ID, Name: d.Name})
	}
	return roles, nil
}

func (r *userRepo) AddRole(ctx context.Context, userID, roleID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.users().UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"role_ids": roleID}})
	if err != nil {
		return fmt.Errorf("add role: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("User", "id", userID)
	}
	return nil
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.users().UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"updated_at":    user.UpdatedAt.Unix(),
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.AlreadyExists("User already exists with email %s", user.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("User", "id", user.ID)
	}
	return nil
}

// Delete removes the user's organized events (with their participants and
// notifications), its own participations and authored notifications, then the
// user document.
func (r *userRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	organized, err := distinctStrings(ctx, r.db.Collection(collectionEvents), "_id", bson.M{"organizer_id": id})
	if err != nil {
		return fmt.Errorf("delete user: organized events: %w", err)
	}

	byUserOrEvent := bson.M{"$or": bson.A{
		bson.M{"user_id": id},
		bson.M{"event_id": bson.M{"$in": organized}},
	}}
	if _, err := r.db.Collection(collectionParticipants).DeleteMany(ctx, byUserOrEvent); err != nil {
		return fmt.Errorf("delete user: participants: %w", err)
	}
	if _, err := r.db.Collection(collectionNotifications).DeleteMany(ctx, byUserOrEvent); err != nil {
		return fmt.Errorf("delete user: notifications: %w", err)
	}
	if _, err := r.db.Collection(collectionEvents).DeleteMany(ctx, bson.M{"organizer_id": id}); err != nil {
		return fmt.Errorf("delete user: events: %w", err)
	}

	res, err := r.users().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("User", "id", id)
	}
	return nil
}

type roleRepo struct {
	col *mongo.Collection
}

func (r *roleRepo) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc roleDoc
	if err := r.col.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("Role", "name", name)
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &domain.Role{ID: doc.ID, Name: doc.Name}, nil
}

// Ensure upserts the role by name; the id is only set on insert.
func (r *roleRepo) Ensure(ctx context.Context, name string) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc roleDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"name": name},
		bson.M{"$setOnInsert": bson.M{"_id": idx.New()}},
		opts,
	).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("ensure role: %w", err)
	}
	return &domain.Role{ID: doc.ID, Name: doc.Name}, nil
}
