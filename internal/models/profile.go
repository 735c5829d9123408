package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the application role stored on a profile.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// DefaultRole is assigned when a profile is provisioned.
const DefaultRole = RoleMember

// ParseRole accepts only the known role names.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleMember, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Profile is the durable record of a user's application role.
type Profile struct {
	UserID    uuid.UUID `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
