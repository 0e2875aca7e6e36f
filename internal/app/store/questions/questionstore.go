// internal/app/store/questions/questionstore.go
package questionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrFirstExists        = errors.New("conversation already has a first question")
	ErrDuplicatePositions = errors.New("option positions must be unique within a question")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("questions")}
}

func validOptions(opts []models.Option) error {
	seen := map[int]bool{}
	for _, o := range opts {
		if seen[o.Position] {
			return ErrDuplicatePositions
		}
		seen[o.Position] = true
	}
	return nil
}

// Create inserts a question. At most one question per conversation may
// carry the first flag.
func (s *Store) Create(ctx context.Context, q models.Question) (models.Question, error) {
	if err := validOptions(q.Options); err != nil {
		return models.Question{}, err
	}
	if q.First {
		n, err := s.c.CountDocuments(ctx, bson.M{"conversation_id": q.ConversationID, "first": true})
		if err != nil {
			return models.Question{}, err
		}
		if n > 0 {
			return models.Question{}, ErrFirstExists
		}
	}
	now := time.Now().UTC()
	q.ID = primitive.NewObjectID()
	q.CreatedAt = now
	q.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, q); err != nil {
		return models.Question{}, err
	}
	return q, nil
}

// Get loads a question scoped to its conversation.
func (s *Store) Get(ctx context.Context, conversationID, id primitive.ObjectID) (models.Question, error) {
	var q models.Question
	err := s.c.FindOne(ctx, bson.M{"_id": id, "conversation_id": conversationID}).Decode(&q)
	if err != nil {
		return models.Question{}, err
	}
	return q, nil
}

// Replace overwrites a question's content, keeping its identity and
// creation time.
func (s *Store) Replace(ctx context.Context, conversationID, id primitive.ObjectID, q models.Question) error {
	if err := validOptions(q.Options); err != nil {
		return err
	}
	if q.First {
		n, err := s.c.CountDocuments(ctx, bson.M{
			"conversation_id": conversationID,
			"first":           true,
			"_id":             bson.M{"$ne": id},
		})
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrFirstExists
		}
	}
	set := bson.M{
		"text":       q.Text,
		"first":      q.First,
		"last":       q.Last,
		"randomize":  q.Randomize,
		"options":    q.Options,
		"tags":       q.Tags,
		"updated_at": time.Now().UTC(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "conversation_id": conversationID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, conversationID, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "conversation_id": conversationID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByConversation removes every question of a conversation.
func (s *Store) DeleteByConversation(ctx context.Context, conversationID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"conversation_id": conversationID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByConversation returns a conversation's questions in insertion order.
func (s *Store) ListByConversation(ctx context.Context, conversationID primitive.ObjectID) ([]models.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Question
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByID and First adapt the store to the conversation runner, which
// addresses questions by hex ids and expects typed not-found errors.

func (s *Store) ByID(ctx context.Context, conversationID, questionID string) (models.Question, error) {
	cid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return models.Question{}, apierr.NotFound("question")
	}
	qid, err := primitive.ObjectIDFromHex(questionID)
	if err != nil {
		return models.Question{}, apierr.NotFound("question")
	}
	q, err := s.Get(ctx, cid, qid)
	if err == mongo.ErrNoDocuments {
		return models.Question{}, apierr.NotFound("question")
	}
	if err != nil {
		return models.Question{}, apierr.Backend(err)
	}
	return q, nil
}

func (s *Store) First(ctx context.Context, conversationID string) (models.Question, error) {
	cid, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return models.Question{}, apierr.NotFound("question")
	}
	var q models.Question
	err = s.c.FindOne(ctx, bson.M{"conversation_id": cid, "first": true}).Decode(&q)
	if err == mongo.ErrNoDocuments {
		return models.Question{}, apierr.NotFound("question")
	}
	if err != nil {
		return models.Question{}, apierr.Backend(err)
	}
	return q, nil
}
