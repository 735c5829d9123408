package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/dimitrije/dashboard-api/internal/rbac"
	"github.com/dimitrije/dashboard-api/pkg/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MsgRoleUpdated       = "Role updated."
	MsgRoleNotAuthorized = "Not authorized to update roles."
	MsgRoleInvalid       = "Invalid role update request."
)

type ProfileLister interface {
	ListAll(ctx context.Context) ([]models.Profile, error)
}

// AdminService backs the admin dashboard: the user directory and role
// changes.
type AdminService struct {
	users    IdentityProvider
	profiles ProfileLister
	guard    *rbac.Guard
	mutator  *rbac.Mutator
	events   EventPublisher
	log      *zap.SugaredLogger
}

func NewAdminService(users IdentityProvider, profiles ProfileLister, guard *rbac.Guard, mutator *rbac.Mutator, events EventPublisher, log *zap.SugaredLogger) *AdminService {
	if log == nil {
		log = zap.S()
	}
	return &AdminService{
		users:    users,
		profiles: profiles,
		guard:    guard,
		mutator:  mutator,
		events:   events,
		log:      log,
	}
}

// GetAllUsers lists up to models.DirectoryPageSize users with their roles.
// Non-admin callers get an empty list and no error.
func (s *AdminService) GetAllUsers(ctx context.Context, caller *models.User) ([]dto.UserSummary, error) {
	if !s.guard.IsAdmin(ctx, caller) {
		return []dto.UserSummary{}, nil
	}

	users, err := s.users.List(ctx, models.DirectoryPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	profiles, err := s.profiles.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	roles := make(map[uuid.UUID]models.Role, len(profiles))
	for _, p := range profiles {
		roles[p.UserID] = p.Role
	}

	summaries := make([]dto.UserSummary, 0, len(users))
	for i := range users {
		u := &users[i]
		role, ok := roles[u.ID]
		if !ok {
			role = models.DefaultRole
		}
		summaries = append(summaries, dto.UserSummary{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.DisplayName(),
			Avatar:    u.Avatar(),
			Role:      role.String(),
			CreatedAt: u.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *AdminService) UpdateUserRole(ctx context.Context, caller *models.User, targetUserID, newRole string) dto.ActionResult {
	profile, err := s.mutator.SetRole(ctx, caller, targetUserID, newRole)
	switch {
	case errors.Is(err, rbac.ErrNotAuthorized):
		return dto.Failure(MsgRoleNotAuthorized)
	case errors.Is(err, rbac.ErrInvalidRoleUpdate):
		return dto.Failure(MsgRoleInvalid)
	case err != nil:
		s.log.Errorw("role update failed", "target", targetUserID, "error", err)
		return dto.Failure(storeMessage(err))
	}

	s.log.Infow("role updated", "caller", caller.ID, "target", profile.UserID, "role", profile.Role)
	if s.events != nil {
		s.events.PublishRoleChange(profile.UserID, profile.Role.String())
	}
	return dto.Success(MsgRoleUpdated)
}

// storeMessage strips the service wrapping so the result carries the store's
// own message.
func storeMessage(err error) string {
	if inner := errors.Unwrap(err); inner != nil {
		return inner.Error()
	}
	return err.Error()
}
