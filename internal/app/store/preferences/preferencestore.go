// internal/app/store/preferences/preferencestore.go
package preferencestore

import (
	"context"

	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store provides read access to the notification_preferences collection.
// This subsystem never writes preferences; a separate settings surface
// owns them.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notification_preferences")}
}

// Get returns the user's notification preferences, falling back to the
// deliver-everything defaults when none have been saved.
func (s *Store) Get(ctx context.Context, userID string) (models.NotificationPreferences, error) {
	var prefs models.NotificationPreferences
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&prefs)
	if err == mongo.ErrNoDocuments {
		return models.DefaultNotificationPreferences(userID), nil
	}
	if err != nil {
		return models.NotificationPreferences{}, err
	}
	if prefs.PriorityFilter == "" {
		prefs.PriorityFilter = models.PriorityFilterAll
	}
	return prefs, nil
}
