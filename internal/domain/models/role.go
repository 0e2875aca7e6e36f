// internal/domain/models/role.go
package models

// Role is a participant's role inside a group.
//
// Stored roles (what appears in Group.Participants) are mentee, mentor,
// and supermentor. RoleSelf and RoleParticipant never appear in a group
// document; they only occur in authorization contexts.
type Role string

const (
	RoleMentee      Role = "mentee"
	RoleMentor      Role = "mentor"
	RoleSupermentor Role = "supermentor"

	// RoleSelf matches when the target user is the caller.
	RoleSelf Role = "self"

	// RoleParticipant matches any stored role.
	RoleParticipant Role = "participant"
)

// ValidStoredRole reports whether r may be written into Group.Participants.
func ValidStoredRole(r Role) bool {
	switch r {
	case RoleMentee, RoleMentor, RoleSupermentor:
		return true
	}
	return false
}
