// internal/domain/models/script.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Script is a stored Starlark program run as a conversation side effect.
// The program must define run(input) and return a dict of attribute id to
// value; returned values are written to the user's attributes with the
// bot observer.
type Script struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description" json:"description"`
	Source      string             `bson:"source" json:"source"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
