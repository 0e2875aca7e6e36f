// internal/domain/models/user.go
package models

import "time"

// User is the profile mirror of an identity-provider account.
//
// NOTE:
//   - The _id is the identity provider's subject for the account, so user
//     ids are opaque strings rather than ObjectIDs.
//   - Credentials never live here; password and token handling belong to
//     the identity provider.
//   - Group membership is not embedded on User. Use Group.Participants to
//     discover a user's groups.
type User struct {
	ID         string   `bson:"_id" json:"id"`
	FullName   string   `bson:"full_name" json:"full_name"`
	FullNameCI string   `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string   `bson:"email" json:"email"`
	IsGroot    bool     `bson:"is_groot" json:"is_groot"`
	Tags       []string `bson:"tags,omitempty" json:"tags,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
