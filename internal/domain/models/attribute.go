// internal/domain/models/attribute.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttributeDef is the definition of an attribute that conversations and
// scripts may write for a user.
type AttributeDef struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description" json:"description"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Observer identifies what recorded an attribute snapshot.
type Observer string

const (
	// ObserverQuestioner marks values recorded by answering a question.
	ObserverQuestioner Observer = "questioner"
	// ObserverBot marks values computed by a script run.
	ObserverBot Observer = "bot"
)

// Message origin kinds for an attribute snapshot.
const (
	InConversation = "conversation"
	InMessage      = "message"
	InScript       = "script"
)

// MessageRef records where a snapshot came from: In is one of the In*
// constants, ID the id of the conversation, message, or script.
type MessageRef struct {
	In string `bson:"in" json:"in"`
	ID string `bson:"id" json:"id"`
}

// Snapshot is one entry of a user attribute's audit history.
type Snapshot struct {
	Value    interface{} `bson:"value" json:"value"`
	Observer Observer    `bson:"observer" json:"observer"`
	At       time.Time   `bson:"at" json:"at"`
	Message  MessageRef  `bson:"message" json:"message"`
}

// UserAttribute is a per-user keyed value with append-only history.
//
// Invariants:
//   - History is append-only; entries are never rewritten or dropped.
//   - Value always equals the value of the most recently appended entry.
//   - Exactly one document per (user_id, attribute_id).
type UserAttribute struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	AttributeID string             `bson:"attribute_id" json:"attribute_id"`
	Value       interface{}        `bson:"value" json:"value"`
	History     []Snapshot         `bson:"history" json:"history"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
