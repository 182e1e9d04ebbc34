// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// ErrDuplicateUser is returned when an insert collides with the unique
// user_id index outside of a reconciliation pass.
var ErrDuplicateUser = errors.New("a user with this user_id already exists")

// GetByUserID loads a user by external id. Returns mongo.ErrNoDocuments
// if not found.
func (s *Store) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// All returns every cached user, ordered by external id then document id
// so reconciliation sees duplicate groups in a deterministic order.
func (s *Store) All(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindByUserID returns every document sharing the external id, in
// document-id order. More than one result means the id has duplicates
// awaiting reconciliation.
func (s *Store) FindByUserID(ctx context.Context, userID string) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Create inserts a new user document.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, err
	}
	return u, nil
}

// Save replaces the document identified by u.ID and refreshes UpdatedAt.
func (s *Store) Save(ctx context.Context, u models.User) error {
	u.UpdatedAt = time.Now().UTC()
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	return err
}

// MergeFromRemote upserts the directory service's copy of a user without
// disturbing local-only state. Only fetched fields are written; the local
// project links and needs_sync flag survive the merge. A record that was
// a placeholder stops being one once a real fetch lands.
func (s *Store) MergeFromRemote(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	set := bson.M{
		"display_name":   u.DisplayName,
		"email":          u.Email,
		"role":           u.Role,
		"placeholder":    false,
		"last_synced_at": now,
		"updated_at":     now,
	}
	if u.CompanyID != nil {
		set["company_id"] = *u.CompanyID
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"user_id":    u.UserID,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var merged models.User
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"user_id": u.UserID}, update, opts).Decode(&merged); err != nil {
		return models.User{}, err
	}
	return merged, nil
}

// BulkApply writes a reconciliation pass's user changes in one call:
// survivor replacements plus loser deletions. An empty pass is a no-op.
func (s *Store) BulkApply(ctx context.Context, updates []models.User, deleteIDs []primitive.ObjectID) error {
	if len(updates) == 0 && len(deleteIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(updates)+len(deleteIDs))
	for _, u := range updates {
		u.UpdatedAt = now
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": u.ID}).
			SetReplacement(u))
	}
	if len(deleteIDs) > 0 {
		writes = append(writes, mongo.NewDeleteManyModel().
			SetFilter(bson.M{"_id": bson.M{"$in": deleteIDs}}))
	}
	_, err := s.c.BulkWrite(ctx, writes)
	return err
}
