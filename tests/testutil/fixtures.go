package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/dashboard-api/internal/database"
	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/dimitrije/dashboard-api/internal/oauth"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test identity with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	fullName := fmt.Sprintf("Test User %d", f.counter)
	user := &models.User{
		Email:      fmt.Sprintf("user%d@example.com", f.counter),
		Provider:   "github",
		ProviderID: fmt.Sprintf("provider-%d", f.counter),
	}
	user.Metadata.FullName = &fullName

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, display_name, full_name, avatar_url, picture, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, user.Email, user.PasswordHash, user.Metadata.DisplayName, user.Metadata.FullName,
		user.Metadata.AvatarURL, user.Metadata.Picture, user.Provider, user.ProviderID).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithDisplayName sets the explicit display name
func WithDisplayName(name string) UserOption {
	return func(u *models.User) {
		u.Metadata.DisplayName = &name
	}
}

// WithProvider sets the user's OAuth provider
func WithProvider(provider, providerID string) UserOption {
	return func(u *models.User) {
		u.Provider = provider
		u.ProviderID = providerID
	}
}

// WithPicture sets the provider reported avatar
func WithPicture(url string) UserOption {
	return func(u *models.User) {
		u.Metadata.Picture = &url
	}
}

// WithPasswordHash turns the identity into an email/password account
func WithPasswordHash(hash string) UserOption {
	return func(u *models.User) {
		u.Provider = "email"
		u.ProviderID = u.Email
		u.PasswordHash = &hash
	}
}

// CreateProfile writes a profile row with the given role
func (f *Fixtures) CreateProfile(t *testing.T, user *models.User, role models.Role) {
	t.Helper()

	_, err := f.db.Pool.Exec(context.Background(), `
		INSERT INTO profiles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role
	`, user.ID, role.String())
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
}

// CountProfiles returns the number of profile rows for a user
func (f *Fixtures) CountProfiles(t *testing.T, userID uuid.UUID) int {
	t.Helper()

	var n int
	err := f.db.Pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM profiles WHERE user_id = $1
	`, userID).Scan(&n)
	if err != nil {
		t.Fatalf("failed to count profiles: %v", err)
	}
	return n
}

// CreateRefreshToken creates a test refresh token
func (f *Fixtures) CreateRefreshToken(t *testing.T, userID uuid.UUID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}
}

// OAuthUserInfo creates test OAuth user info
func OAuthUserInfo(email, name, provider, id string) *oauth.UserInfo {
	return &oauth.UserInfo{
		Email:     email,
		FullName:  name,
		AvatarURL: "https://example.com/avatar.png",
		ID:        id,
		Provider:  provider,
	}
}
