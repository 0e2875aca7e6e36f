// internal/app/store/conversations/convstore.go
package convstore

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

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateName = errors.New("a conversation with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("conversations")}
}

func (s *Store) Create(ctx context.Context, conv models.Conversation) (models.Conversation, error) {
	now := time.Now().UTC()
	conv.ID = primitive.NewObjectID()
	conv.NameCI = text.Fold(conv.Name)
	conv.CreatedAt = now
	conv.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, conv); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Conversation{}, ErrDuplicateName
		}
		return models.Conversation{}, err
	}
	return conv, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Conversation, error) {
	var conv models.Conversation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&conv); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
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

// Delete removes a conversation. The caller is responsible for deleting
// its questions through the question store.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.Conversation, error) {
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

	var out []models.Conversation
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
