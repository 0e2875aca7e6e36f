// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user profile with the given subject id and name.
func (f *Fixtures) CreateUser(ctx context.Context, id, name string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         id,
		FullName:   name,
		FullNameCI: text.Fold(name),
		Email:      id + "@test.example",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("fixture user %s: %v", id, err)
	}
	return u
}

// CreateGroup inserts a group with the given participants and a fresh
// join code.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, participants map[string]models.Role) models.Group {
	f.t.Helper()

	if participants == nil {
		participants = map[string]models.Role{}
	}
	now := time.Now().UTC()
	g := models.Group{
		ID:            primitive.NewObjectID(),
		Name:          name,
		NameCI:        text.Fold(name),
		Participants:  participants,
		Conversations: map[string][]models.Role{},
		Reports:       map[string][]models.Role{},
		Code:          uuid.NewString(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("fixture group %s: %v", name, err)
	}
	return g
}

// CreateConversation inserts a conversation shell without questions.
func (f *Fixtures) CreateConversation(ctx context.Context, name string) models.Conversation {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Conversation{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("conversations").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("fixture conversation %s: %v", name, err)
	}
	return c
}

// CreateQuestion inserts a question into a conversation.
func (f *Fixtures) CreateQuestion(ctx context.Context, conversationID primitive.ObjectID, textBody string, first bool, opts ...models.Option) models.Question {
	f.t.Helper()

	now := time.Now().UTC()
	q := models.Question{
		ID:             primitive.NewObjectID(),
		ConversationID: conversationID,
		Text:           textBody,
		First:          first,
		Options:        opts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("questions").InsertOne(ctx, q); err != nil {
		f.t.Fatalf("fixture question: %v", err)
	}
	return q
}

// CreateScript inserts a stored script.
func (f *Fixtures) CreateScript(ctx context.Context, name, source string) models.Script {
	f.t.Helper()

	now := time.Now().UTC()
	s := models.Script{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("scripts").InsertOne(ctx, s); err != nil {
		f.t.Fatalf("fixture script %s: %v", name, err)
	}
	return s
}

// CreateReport inserts a report definition over the given attribute ids.
func (f *Fixtures) CreateReport(ctx context.Context, name string, attributeIDs []string) models.Report {
	f.t.Helper()

	if attributeIDs == nil {
		attributeIDs = []string{}
	}
	now := time.Now().UTC()
	r := models.Report{
		ID:         primitive.NewObjectID(),
		Name:       name,
		NameCI:     text.Fold(name),
		Attributes: attributeIDs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("reports").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("fixture report %s: %v", name, err)
	}
	return r
}
