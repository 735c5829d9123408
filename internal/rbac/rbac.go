// Package rbac implements profile provisioning and admin authorization.
//
// Every function takes the caller's identity explicitly; nothing is read
// from ambient request state and no authorization decision is cached, so a
// demoted admin loses access on the next call.
package rbac

import (
	"context"
	"errors"

	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/google/uuid"
)

var (
	ErrInvalidIdentity   = errors.New("identity has no id")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrInvalidRoleUpdate = errors.New("invalid role update request")
)

// ProfileStore is the table mapping user ids to roles. Implementations must
// enforce one row per user id.
type ProfileStore interface {
	// GetRole returns ErrProfileNotFound when the user has no profile.
	GetRole(ctx context.Context, userID uuid.UUID) (models.Role, error)
	// EnsureProfile inserts a profile with the default role and leaves an
	// existing row untouched.
	EnsureProfile(ctx context.Context, userID uuid.UUID) error
	// UpsertRole writes role, creating the row when absent.
	UpsertRole(ctx context.Context, userID uuid.UUID, role models.Role) error
}
