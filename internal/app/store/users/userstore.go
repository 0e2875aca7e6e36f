// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/normalize"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	// ErrDuplicateID is returned when a profile already exists for the subject.
	ErrDuplicateID = errors.New("a user with this id already exists")
	errNoID        = errors.New("user id (identity subject) is required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts the profile mirror for an identity-provider account.
// The caller supplies the provider's subject as the ID.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == "" {
		return models.User{}, errNoID
	}
	now := time.Now().UTC()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateID
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by identity subject.
func (s *Store) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Profile resolves display fields for a bearer token's subject. A missing
// profile is reported through found, not an error, so authentication can
// proceed for accounts that exist only at the provider.
func (s *Store) Profile(ctx context.Context, subject string) (name, email string, groot, found bool, err error) {
	u, err := s.GetByID(ctx, subject)
	if err == mongo.ErrNoDocuments {
		return "", "", false, false, nil
	}
	if err != nil {
		return "", "", false, false, err
	}
	return u.FullName, u.Email, u.IsGroot, true, nil
}

// Update holds the mutable profile fields.
type Update struct {
	FullName string
	Email    string
	Tags     []string
}

func (s *Store) Update(ctx context.Context, id string, upd Update) error {
	name := normalize.Name(upd.FullName)
	set := bson.M{
		"full_name":    name,
		"full_name_ci": text.Fold(name),
		"email":        normalize.Email(upd.Email),
		"tags":         upd.Tags,
		"updated_at":   time.Now().UTC(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetGroot flips the stored superuser flag.
func (s *Store) SetGroot(ctx context.Context, id string, groot bool) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_groot": groot, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a user profile. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns users ordered by folded name, optionally filtered by a
// case-insensitive name prefix.
func (s *Store) List(ctx context.Context, namePrefix string, limit, offset int64) ([]models.User, error) {
	filter := bson.M{}
	if namePrefix != "" {
		filter["full_name_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(text.Fold(namePrefix))}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
