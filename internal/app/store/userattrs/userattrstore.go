// internal/app/store/userattrs/userattrstore.go
package userattrstore

import (
	"context"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds per-user attribute values with their append-only history.
// One document per (user_id, attribute_id), enforced by a unique index.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("user_attributes")}
}

// Record appends a snapshot and sets the current value in one upsert, so
// a write can never land in history without updating the value or vice
// versa. Concurrent writers interleave as last-write-wins on the value
// while history keeps every entry.
func (s *Store) Record(ctx context.Context, userID, attributeID string, value interface{}, observer models.Observer, msg models.MessageRef) error {
	now := time.Now().UTC()
	snap := models.Snapshot{Value: value, Observer: observer, At: now, Message: msg}

	filter := bson.M{"user_id": userID, "attribute_id": attributeID}
	update := bson.M{
		"$push": bson.M{"history": snap},
		"$set":  bson.M{"value": value, "updated_at": now},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}
	_, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Get loads one user attribute with its full history.
func (s *Store) Get(ctx context.Context, userID, attributeID string) (models.UserAttribute, error) {
	var ua models.UserAttribute
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "attribute_id": attributeID}).Decode(&ua)
	if err != nil {
		return models.UserAttribute{}, err
	}
	return ua, nil
}

// ListForUser returns every attribute recorded for the user.
func (s *Store) ListForUser(ctx context.Context, userID string) ([]models.UserAttribute, error) {
	opts := options.Find().SetSort(bson.D{{Key: "attribute_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.UserAttribute
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CurrentValues returns the user's latest value per attribute, keyed by
// attribute id. Scripts and question rendering read from this.
func (s *Store) CurrentValues(ctx context.Context, userID string) (map[string]interface{}, error) {
	opts := options.Find().SetProjection(bson.M{"attribute_id": 1, "value": 1})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]interface{}{}
	for cur.Next(ctx) {
		var ua models.UserAttribute
		if err := cur.Decode(&ua); err != nil {
			return nil, err
		}
		out[ua.AttributeID] = ua.Value
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Values returns the latest value for each of the listed attributes,
// omitting attributes never recorded for the user. Report rendering
// reads from this.
func (s *Store) Values(ctx context.Context, userID string, attributeIDs []string) (map[string]interface{}, error) {
	if len(attributeIDs) == 0 {
		return map[string]interface{}{}, nil
	}
	filter := bson.M{"user_id": userID, "attribute_id": bson.M{"$in": attributeIDs}}
	opts := options.Find().SetProjection(bson.M{"attribute_id": 1, "value": 1})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]interface{}{}
	for cur.Next(ctx) {
		var ua models.UserAttribute
		if err := cur.Decode(&ua); err != nil {
			return nil, err
		}
		out[ua.AttributeID] = ua.Value
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteForUser removes all of a user's recorded attributes, used when a
// user account is deleted.
func (s *Store) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
