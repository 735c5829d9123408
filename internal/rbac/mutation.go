package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/dimitrije/dashboard-api/internal/metrics"
	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/google/uuid"
)

type Mutator struct {
	guard *Guard
	store ProfileStore
}

func NewMutator(guard *Guard, store ProfileStore) *Mutator {
	return &Mutator{guard: guard, store: store}
}

// SetRole assigns newRole to the target user on behalf of caller.
//
// Input is validated before any store call, so malformed requests fail with
// ErrInvalidRoleUpdate whatever the caller's role. The caller's authority is
// then re-checked against the store. Concurrent writes to the same user are
// last-write-wins.
func (m *Mutator) SetRole(ctx context.Context, caller *models.User, targetUserID, newRole string) (*models.Profile, error) {
	targetID, role, err := parseRoleUpdate(targetUserID, newRole)
	if err != nil {
		metrics.RoleMutations.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if err := m.guard.RequireAdmin(ctx, caller); err != nil {
		metrics.RoleMutations.WithLabelValues("denied").Inc()
		return nil, err
	}

	if err := m.store.UpsertRole(ctx, targetID, role); err != nil {
		metrics.RoleMutations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	metrics.RoleMutations.WithLabelValues("ok").Inc()
	return &models.Profile{UserID: targetID, Role: role}, nil
}

func parseRoleUpdate(targetUserID, newRole string) (uuid.UUID, models.Role, error) {
	targetUserID = strings.TrimSpace(targetUserID)
	if targetUserID == "" || newRole == "" {
		return uuid.Nil, "", ErrInvalidRoleUpdate
	}

	targetID, err := uuid.Parse(targetUserID)
	if err != nil || targetID == uuid.Nil {
		return uuid.Nil, "", ErrInvalidRoleUpdate
	}

	role, ok := models.ParseRole(newRole)
	if !ok {
		return uuid.Nil, "", ErrInvalidRoleUpdate
	}

	return targetID, role, nil
}
