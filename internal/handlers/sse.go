package handlers

import (
	"github.com/dimitrije/dashboard-api/internal/middleware"
	"github.com/dimitrije/dashboard-api/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type SSEHandler struct {
	hub   SSEHubInterface
	guard AdminCheckerInterface
}

func NewSSEHandler(hub SSEHubInterface, guard AdminCheckerInterface) *SSEHandler {
	return &SSEHandler{
		hub:   hub,
		guard: guard,
	}
}

// Connect streams role, profile and directory change hints to the caller.
// Admin streams also receive users_changed for every account.
func (h *SSEHandler) Connect(c *drift.Context) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		c.Unauthorized("not authenticated")
		return
	}

	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:     clientID,
		UserID: identity.ID,
		Admin:  h.guard.IsAdmin(c.Request.Context(), identity),
		Send:   make(chan []byte, 256),
	}

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]any{
		"type":      "connected",
		"client_id": clientID,
		"admin":     client.Admin,
	}, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
