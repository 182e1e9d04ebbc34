// internal/app/store/projects/projectstore.go
package projectstore

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
	return &Store{c: db.Collection("projects")}
}

// GetByProjectID loads a project by external id. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByProjectID(ctx context.Context, projectID string) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"project_id": projectID}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// All returns every cached project in external-id order.
func (s *Store) All(ctx context.Context) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "project_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var projects []models.Project
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// FindByTeamMember returns every project whose denormalized team list
// contains the user id.
func (s *Store) FindByTeamMember(ctx context.Context, userID string) ([]models.Project, error) {
	cur, err := s.c.Find(ctx, bson.M{"team_member_ids": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var projects []models.Project
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Create inserts a new project document.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// Save replaces the document identified by p.ID and refreshes UpdatedAt.
func (s *Store) Save(ctx context.Context, p models.Project) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	return err
}

// MergeFromRemote upserts the directory service's copy of a project.
// Fetched fields only; an existing document keeps its _id and created_at.
func (s *Store) MergeFromRemote(ctx context.Context, p models.Project) (models.Project, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"company_id":      p.CompanyID,
			"name":            p.Name,
			"status":          p.Status,
			"team_member_ids": p.TeamMemberIDs,
			"last_synced_at":  now,
			"updated_at":      now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"project_id": p.ProjectID,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var merged models.Project
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"project_id": p.ProjectID}, update, opts).Decode(&merged); err != nil {
		return models.Project{}, err
	}
	return merged, nil
}

// BulkSave writes a reconciliation pass's project edits in one call.
func (s *Store) BulkSave(ctx context.Context, projects []models.Project) error {
	if len(projects) == 0 {
		return nil
	}
	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(projects))
	for _, p := range projects {
		p.UpdatedAt = now
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": p.ID}).
			SetReplacement(p))
	}
	_, err := s.c.BulkWrite(ctx, writes)
	return err
}
