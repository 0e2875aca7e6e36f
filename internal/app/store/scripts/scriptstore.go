// internal/app/store/scripts/scriptstore.go
package scriptstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateName = errors.New("a script with this name already exists")
	ErrEmptySource   = errors.New("script source cannot be empty")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("scripts")}
}

func (s *Store) Create(ctx context.Context, sc models.Script) (models.Script, error) {
	if sc.Source == "" {
		return models.Script{}, ErrEmptySource
	}
	now := time.Now().UTC()
	sc.ID = primitive.NewObjectID()
	sc.NameCI = text.Fold(sc.Name)
	sc.CreatedAt = now
	sc.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sc); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Script{}, ErrDuplicateName
		}
		return models.Script{}, err
	}
	return sc, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Script, error) {
	var sc models.Script
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sc); err != nil {
		return models.Script{}, err
	}
	return sc, nil
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, description, source string, tags []string) error {
	set := bson.M{
		"description": description,
		"tags":        tags,
		"updated_at":  time.Now().UTC(),
	}
	if name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if source != "" {
		set["source"] = source
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.Script, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name_ci", Value: 1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Script
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SourceByID adapts the store to the script engine, which addresses
// scripts by hex id and expects typed not-found errors.
func (s *Store) SourceByID(ctx context.Context, id string) (models.Script, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Script{}, apierr.NotFound("script")
	}
	sc, err := s.GetByID(ctx, oid)
	if err == mongo.ErrNoDocuments {
		return models.Script{}, apierr.NotFound("script")
	}
	if err != nil {
		return models.Script{}, apierr.Backend(err)
	}
	return sc, nil
}
