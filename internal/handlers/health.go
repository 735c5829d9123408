package handlers

import (
	"context"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
)

// Pinger is satisfied by the database handle.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports ok without dependencies and "degraded" with 503 when the
// database does not answer within two seconds.
func Health(db Pinger) drift.HandlerFunc {
	return func(c *drift.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				_ = c.JSON(503, map[string]string{"status": "degraded"})
				return
			}
		}
		_ = c.JSON(200, map[string]string{"status": "ok"})
	}
}
