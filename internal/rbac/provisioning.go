package rbac

import (
	"context"
	"fmt"

	"github.com/dimitrije/dashboard-api/internal/metrics"
	"github.com/dimitrije/dashboard-api/internal/models"
	"github.com/google/uuid"
)

type Provisioner struct {
	store ProfileStore
}

func NewProvisioner(store ProfileStore) *Provisioner {
	return &Provisioner{store: store}
}

// EnsureProfile guarantees a profile row exists for identity. It is safe to
// call repeatedly and concurrently for the same user.
func (p *Provisioner) EnsureProfile(ctx context.Context, identity *models.User) error {
	if identity == nil || identity.ID == uuid.Nil {
		metrics.ProfileProvisioning.WithLabelValues("invalid").Inc()
		return ErrInvalidIdentity
	}

	if err := p.store.EnsureProfile(ctx, identity.ID); err != nil {
		metrics.ProfileProvisioning.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to provision profile: %w", err)
	}

	metrics.ProfileProvisioning.WithLabelValues("ok").Inc()
	return nil
}
