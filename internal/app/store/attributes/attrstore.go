// internal/app/store/attributes/attrstore.go
package attrstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds attribute definitions. Per-user values live in the
// userattrs store.
type Store struct {
	c *mongo.Collection
}

var ErrDuplicateName = errors.New("an attribute with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("attributes")}
}

func (s *Store) Create(ctx context.Context, def models.AttributeDef) (models.AttributeDef, error) {
	now := time.Now().UTC()
	def.ID = primitive.NewObjectID()
	def.NameCI = text.Fold(def.Name)
	def.CreatedAt = now
	def.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, def); err != nil {
		if wafflemongo.IsDup(err) {
			return models.AttributeDef{}, ErrDuplicateName
		}
		return models.AttributeDef{}, err
	}
	return def, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.AttributeDef, error) {
	var def models.AttributeDef
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&def); err != nil {
		return models.AttributeDef{}, err
	}
	return def, nil
}

func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, description string, tags []string) error {
	set := bson.M{
		"description": description,
		"tags":        tags,
		"updated_at":  time.Now().UTC(),
	}
	if name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
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

func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.AttributeDef, error) {
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

	var out []models.AttributeDef
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
