// internal/app/system/authz/roles.go
package authz

// Role names as stored on the users collection and in sessions.
//
// admin is the Pulse product team (backlog tool, release notes, any team).
// owner is a paying account that owns teams and holds the subscription tier.
// member is a team participant: checks in, answers surveys, leaves feedback.
const (
	RoleAdmin  = "admin"
	RoleOwner  = "owner"
	RoleMember = "member"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleOwner, RoleMember:
		return true
	}
	return false
}
