package rbac

import (
	"context"

	"github.com/dimitrije/dashboard-api/internal/metrics"
	"github.com/dimitrije/dashboard-api/internal/models"
)

// Guard gates admin-only operations. The role is resolved on every call.
type Guard struct {
	resolver *Resolver
}

func NewGuard(resolver *Resolver) *Guard {
	return &Guard{resolver: resolver}
}

// RequireAdmin returns ErrNotAuthorized unless identity currently holds the
// admin role.
func (g *Guard) RequireAdmin(ctx context.Context, identity *models.User) error {
	role, ok := g.resolver.Resolve(ctx, identity)
	if !ok || !role.IsAdmin() {
		metrics.AccessDecisions.WithLabelValues("deny").Inc()
		return ErrNotAuthorized
	}
	metrics.AccessDecisions.WithLabelValues("allow").Inc()
	return nil
}

func (g *Guard) IsAdmin(ctx context.Context, identity *models.User) bool {
	return g.RequireAdmin(ctx, identity) == nil
}
