// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection for the local cache.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := mongooptions.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return DBDeps{}, fmt.Errorf("ping MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))
	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes the stores rely on.
//
// users.user_id is indexed but NOT unique: duplicate records for one
// external id are a legitimate transient state (offline placeholder
// plus a later fetch) that the reconciler collapses. projects and
// companies are keyed uniquely by their external ids.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{"users", mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		}},
		{"users", mongo.IndexModel{
			Keys: bson.D{{Key: "company_id", Value: 1}},
		}},
		{"projects", mongo.IndexModel{
			Keys:    bson.D{{Key: "project_id", Value: 1}},
			Options: mongooptions.Index().SetUnique(true),
		}},
		{"projects", mongo.IndexModel{
			Keys: bson.D{{Key: "team_member_ids", Value: 1}},
		}},
		{"companies", mongo.IndexModel{
			Keys:    bson.D{{Key: "company_id", Value: 1}},
			Options: mongooptions.Index().SetUnique(true),
		}},
		{"notification_preferences", mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: mongooptions.Index().SetUnique(true),
		}},
	}

	for _, ix := range indexes {
		if _, err := db.Collection(ix.collection).Indexes().CreateOne(ctx, ix.model); err != nil {
			return fmt.Errorf("create index on %s: %w", ix.collection, err)
		}
	}

	logger.Info("schema indexes ensured")
	return nil
}
