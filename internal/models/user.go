package models

import (
	"time"

	"github.com/google/uuid"
)

// DirectoryPageSize caps how many identities a single directory listing returns.
const DirectoryPageSize = 1000

// User is an authenticated identity as owned by the identity provider.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Metadata     Metadata  `json:"metadata"`
	Provider     string    `json:"provider"`
	ProviderID   string    `json:"-"`
	PasswordHash *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Metadata holds the optional profile attributes of an identity. Explicit
// values set through the dashboard win over the ones reported by an OAuth
// provider.
type Metadata struct {
	DisplayName *string `json:"display_name,omitempty"`
	FullName    *string `json:"full_name,omitempty"`
	Name        *string `json:"name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Picture     *string `json:"picture,omitempty"`
}

// MetadataPatch is a partial update of the explicit metadata fields. Nil
// fields are left untouched.
type MetadataPatch struct {
	DisplayName *string
	AvatarURL   *string
}

// DisplayName resolves the name shown for a user:
// display name > provider full name > provider name > email > "User".
func (u *User) DisplayName() string {
	for _, v := range []*string{u.Metadata.DisplayName, u.Metadata.FullName, u.Metadata.Name} {
		if v != nil && *v != "" {
			return *v
		}
	}
	if u.Email != "" {
		return u.Email
	}
	return "User"
}

// Avatar resolves the avatar url: explicit avatar > provider picture > "".
func (u *User) Avatar() string {
	for _, v := range []*string{u.Metadata.AvatarURL, u.Metadata.Picture} {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

// HasPassword reports whether the identity can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
