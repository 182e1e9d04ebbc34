// internal/app/store/companies/companystore.go
package companystore

import (
	"context"
	"time"

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
	return &Store{c: db.Collection("companies")}
}

// GetByCompanyID loads a company by external id. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByCompanyID(ctx context.Context, companyID string) (*models.Company, error) {
	var c models.Company
	if err := s.c.FindOne(ctx, bson.M{"company_id": companyID}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// MergeFromRemote upserts the directory service's copy of a company.
// The subscription status is stored raw, even when unparseable; the
// access gate is the one place that interprets it.
func (s *Store) MergeFromRemote(ctx context.Context, c models.Company) (models.Company, error) {
	now := time.Now().UTC()
	set := bson.M{
		"name":                c.Name,
		"subscription_status": c.SubscriptionStatus,
		"max_seats":           c.MaxSeats,
		"seated_employee_ids": c.SeatedEmployeeIDs,
		"admin_ids":           c.AdminIDs,
		"last_synced_at":      now,
		"updated_at":          now,
	}
	if c.TrialEndsAt != nil {
		set["trial_ends_at"] = *c.TrialEndsAt
	}
	if c.GraceEndsAt != nil {
		set["grace_ends_at"] = *c.GraceEndsAt
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"company_id": c.CompanyID,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var merged models.Company
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"company_id": c.CompanyID}, update, opts).Decode(&merged); err != nil {
		return models.Company{}, err
	}
	return merged, nil
}

// ReplaceSeats overwrites the local seat list with the server-returned
// authoritative list. Callers only invoke this after a successful remote
// seat update; no optimistic local write goes through here.
func (s *Store) ReplaceSeats(ctx context.Context, companyID string, seatedIDs []string) error {
	update := bson.M{
		"$set": bson.M{
			"seated_employee_ids": seatedIDs,
			"updated_at":          time.Now().UTC(),
		},
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"company_id": companyID}, update)
	return err
}
