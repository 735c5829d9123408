package dto

import (
	"time"

	"github.com/google/uuid"
)

// UserResponse is the caller's own identity with name and avatar resolved.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	Provider  string    `json:"provider"`
	Role      *string   `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// RoleResponse encodes an unresolved role as null.
type RoleResponse struct {
	Role *string `json:"role"`
}

// UserSummary is one row of the admin user listing.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

type UpdatePasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type AvatarResult struct {
	ActionResult
	AvatarURL string `json:"avatar_url,omitempty"`
}
