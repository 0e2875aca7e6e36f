// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group binds users to roles and to the conversations and reports their
// role may access.
//
// Invariants:
//   - A user appears at most once in Participants (single role per group).
//   - Conversations and Reports are keyed by the hex ObjectID of the
//     referenced document; the value is the set of roles granted access.
//   - Code is the join-invitation token; joining via code only ever adds
//     the joining user as a mentee, never changes existing participants.
type Group struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"name_ci"`

	Participants  map[string]Role   `bson:"participants" json:"participants"`
	Conversations map[string][]Role `bson:"conversations" json:"conversations"`
	Reports       map[string][]Role `bson:"reports" json:"reports"`

	Code string   `bson:"code" json:"code"`
	Tags []string `bson:"tags,omitempty" json:"tags,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// RoleOf returns the stored role of the given user, if any.
func (g *Group) RoleOf(userID string) (Role, bool) {
	r, ok := g.Participants[userID]
	return r, ok
}
