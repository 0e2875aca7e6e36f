// internal/app/store/groups/directory.go
package groupstore

import (
	"context"

	"github.com/dalemusser/mentorhub/internal/app/system/apierr"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// The directory methods back authorization decisions, so unknown ids and
// malformed ids surface as typed not-found errors instead of raw driver
// errors.

// GroupByID loads one group by its hex id.
func (s *Store) GroupByID(ctx context.Context, id string) (models.Group, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Group{}, apierr.NotFound("group")
	}
	g, err := s.GetByID(ctx, oid)
	if err == mongo.ErrNoDocuments {
		return models.Group{}, apierr.NotFound("group")
	}
	if err != nil {
		return models.Group{}, apierr.Backend(err)
	}
	return g, nil
}

// GroupsWithMembers returns every group where both users participate.
func (s *Store) GroupsWithMembers(ctx context.Context, a, b string) ([]models.Group, error) {
	filter := bson.M{
		"participants." + a: bson.M{"$exists": true},
		"participants." + b: bson.M{"$exists": true},
	}
	return s.findGroups(ctx, filter)
}

// GroupsForMember returns every group the user participates in.
func (s *Store) GroupsForMember(ctx context.Context, userID string) ([]models.Group, error) {
	return s.findGroups(ctx, bson.M{"participants." + userID: bson.M{"$exists": true}})
}

func (s *Store) findGroups(ctx context.Context, filter bson.M) ([]models.Group, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, apierr.Backend(err)
	}
	defer cur.Close(ctx)

	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, apierr.Backend(err)
	}
	return out, nil
}
