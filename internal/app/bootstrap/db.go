// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB connection used by every store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return DBDeps{}, fmt.Errorf("ping mongodb: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes the stores rely on. All creations are
// idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	type indexSpec struct {
		collection string
		model      mongo.IndexModel
	}
	unique := options.Index().SetUnique(true)

	specs := []indexSpec{
		{"users", mongo.IndexModel{Keys: bson.D{{Key: "full_name_ci", Value: 1}}}},
		{"groups", mongo.IndexModel{Keys: bson.D{{Key: "name_ci", Value: 1}}, Options: unique}},
		{"groups", mongo.IndexModel{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique}},
		{"conversations", mongo.IndexModel{Keys: bson.D{{Key: "name_ci", Value: 1}}, Options: unique}},
		{"questions", mongo.IndexModel{Keys: bson.D{{Key: "conversation_id", Value: 1}}}},
		{"attributes", mongo.IndexModel{Keys: bson.D{{Key: "name_ci", Value: 1}}, Options: unique}},
		{"user_attributes", mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "attribute_id", Value: 1}},
			Options: unique,
		}},
		{"scripts", mongo.IndexModel{Keys: bson.D{{Key: "name_ci", Value: 1}}, Options: unique}},
		{"reports", mongo.IndexModel{Keys: bson.D{{Key: "name_ci", Value: 1}}, Options: unique}},
	}

	for _, spec := range specs {
		if _, err := db.Collection(spec.collection).Indexes().CreateOne(ctx, spec.model); err != nil {
			return fmt.Errorf("create index on %s: %w", spec.collection, err)
		}
	}
	logger.Info("schema indexes ensured", zap.Int("indexes", len(specs)))
	return nil
}
