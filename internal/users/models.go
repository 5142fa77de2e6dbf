package users

// Role is the coarse role claim issued by the identity provider
type Role string

const (
	RoleUser  Role = "user"
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated caller. ID is opaque; accounts live outside this service.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsOwnerOf reports whether the actor is the owner-role account named by ownerID
func (a Actor) IsOwnerOf(ownerID string) bool {
	return a.Role == RoleOwner && a.ID != "" && a.ID == ownerID
}

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleUser, RoleOwner, RoleAdmin:
		return true
	default:
		return false
	}
}
