// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateGroupName = errors.New("a group with this name already exists")
	ErrBadRole            = errors.New("role must be mentee, mentor, or supermentor")
	ErrAlreadyParticipant = errors.New("user is already a participant of this group")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

// Create inserts a group with empty membership and a fresh join code.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	g.Code = uuid.NewString()
	if g.Participants == nil {
		g.Participants = map[string]models.Role{}
	}
	if g.Conversations == nil {
		g.Conversations = map[string][]models.Role{}
	}
	if g.Reports == nil {
		g.Reports = map[string][]models.Role{}
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroupName
		}
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, tagsSet string, tags []string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if tagsSet != "" {
		set["tags"] = tags
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateGroupName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a group by ID. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// RotateCode replaces the join code, invalidating outstanding invitations.
func (s *Store) RotateCode(ctx context.Context, id primitive.ObjectID) (string, error) {
	code := uuid.NewString()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"code":       code,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return "", err
	}
	if res.MatchedCount == 0 {
		return "", mongo.ErrNoDocuments
	}
	return code, nil
}

// JoinByCode adds the user as a mentee of the group holding the code.
// The filtered update guarantees a join can never touch existing
// participants or grant any other role.
func (s *Store) JoinByCode(ctx context.Context, code, userID string) (models.Group, error) {
	filter := bson.M{
		"code":                  code,
		"participants." + userID: bson.M{"$exists": false},
	}
	update := bson.M{
		"$set": bson.M{
			"participants." + userID: models.RoleMentee,
			"updated_at":             time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var g models.Group
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&g)
	if err == mongo.ErrNoDocuments {
		// Either the code is unknown or the user already belongs.
		if cerr := s.c.FindOne(ctx, bson.M{"code": code}).Decode(&g); cerr == nil {
			return models.Group{}, ErrAlreadyParticipant
		}
		return models.Group{}, mongo.ErrNoDocuments
	}
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// SetParticipant adds a user with the given stored role, or changes the
// role of an existing participant.
func (s *Store) SetParticipant(ctx context.Context, id primitive.ObjectID, userID string, role models.Role) error {
	if !models.ValidStoredRole(role) {
		return ErrBadRole
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"participants." + userID: role,
		"updated_at":             time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) RemoveParticipant(ctx context.Context, id primitive.ObjectID, userID string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$unset": bson.M{"participants." + userID: ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RemoveParticipantEverywhere drops the user from every group, used when
// a user account is deleted.
func (s *Store) RemoveParticipantEverywhere(ctx context.Context, userID string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"participants." + userID: bson.M{"$exists": true}},
		bson.M{
			"$unset": bson.M{"participants." + userID: ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// AssignConversation grants the listed roles access to a conversation
// through this group. An empty role list revokes the assignment.
func (s *Store) AssignConversation(ctx context.Context, id primitive.ObjectID, conversationID string, roles []models.Role) error {
	return s.assignGrant(ctx, id, "conversations", conversationID, roles)
}

// AssignReport grants the listed roles access to a report through this
// group. An empty role list revokes the assignment.
func (s *Store) AssignReport(ctx context.Context, id primitive.ObjectID, reportID string, roles []models.Role) error {
	return s.assignGrant(ctx, id, "reports", reportID, roles)
}

func (s *Store) assignGrant(ctx context.Context, id primitive.ObjectID, field, key string, roles []models.Role) error {
	for _, r := range roles {
		if !models.ValidStoredRole(r) {
			return ErrBadRole
		}
	}
	var update bson.M
	if len(roles) == 0 {
		update = bson.M{
			"$unset": bson.M{field + "." + key: ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		}
	} else {
		update = bson.M{"$set": bson.M{
			field + "." + key: roles,
			"updated_at":      time.Now().UTC(),
		}}
	}
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// List returns groups ordered by folded name.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.Group, error) {
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

	var out []models.Group
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
