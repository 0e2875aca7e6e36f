// internal/domain/models/conversation.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a named question graph. Questions live in their own
// collection keyed by conversation_id.
type Conversation struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description" json:"description"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// OptionType discriminates how an answer value is produced.
type OptionType string

const (
	// OptionSelect records the option's fixed attribute value.
	OptionSelect OptionType = "select"
	// OptionInput records the caller's free text, falling back to the
	// option's default value when no text is supplied.
	OptionInput OptionType = "input"
)

// NextRef points at the question to present after an option is chosen.
// The conversation may differ from the current one (cross-conversation
// branching). A nil NextRef on an option means the conversation ends there.
type NextRef struct {
	Conversation string `bson:"conversation" json:"conversation"`
	Question     string `bson:"question" json:"question"`
}

// AttributeWrite is the attribute side effect carried by an option.
type AttributeWrite struct {
	ID    string      `bson:"id" json:"id"`
	Value interface{} `bson:"value" json:"value"`
}

// Option is one selectable answer of a question. Position is the unique
// rank of the option within its question and defines presentation order
// when the question does not randomize.
type Option struct {
	Position  int             `bson:"position" json:"position"`
	Type      OptionType      `bson:"type" json:"type"`
	Text      string          `bson:"text" json:"text"`
	Attribute *AttributeWrite `bson:"attribute,omitempty" json:"attribute,omitempty"`
	Script    string          `bson:"script,omitempty" json:"script,omitempty"`
	Next      *NextRef        `bson:"next,omitempty" json:"next,omitempty"`
}

// Question is a node in a conversation graph.
//
// Exactly one question per conversation has First set (the entry point).
// Any number may have Last set. The graph is not required to be acyclic;
// a Next pointer may legitimately loop back to an earlier question.
type Question struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	ConversationID primitive.ObjectID `bson:"conversation_id" json:"conversation_id"`
	Text           string             `bson:"text" json:"text"`
	First          bool               `bson:"first" json:"first"`
	Last           bool               `bson:"last" json:"last"`
	Randomize      bool               `bson:"randomize" json:"randomize"`
	Options        []Option           `bson:"options" json:"options"`
	Tags           []string           `bson:"tags,omitempty" json:"tags,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// OptionAt returns the option with the given position, if present.
func (q *Question) OptionAt(position int) (Option, bool) {
	for _, o := range q.Options {
		if o.Position == position {
			return o, true
		}
	}
	return Option{}, false
}
