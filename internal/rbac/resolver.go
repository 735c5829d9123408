package rbac

import (
	"context"
	"errors"

	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Resolver struct {
	store ProfileStore
	log   *zap.SugaredLogger
}

func NewResolver(store ProfileStore, log *zap.SugaredLogger) *Resolver {
	return &Resolver{store: store, log: log}
}

// Resolve returns the identity's role. The second result is false when there
// is no identity, the lookup failed, or no profile exists; callers must treat
// all three as "not privileged".
func (r *Resolver) Resolve(ctx context.Context, identity *models.User) (models.Role, bool) {
	if identity == nil || identity.ID == uuid.Nil {
		return "", false
	}

	stored, err := r.store.GetRole(ctx, identity.ID)
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			r.log.Warnw("role lookup failed", "user_id", identity.ID, "error", err)
		}
		return "", false
	}

	role, ok := models.ParseRole(string(stored))
	if !ok {
		r.log.Warnw("profile has unknown role", "user_id", identity.ID, "role", stored)
		return "", false
	}
	return role, true
}
