// Package sse fans dashboard events out to connected browser streams.
package sse

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

const (
	EventRoleChanged    = "role_changed"
	EventUsersChanged   = "users_changed"
	EventProfileChanged = "profile_changed"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type RoleChangedEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	// Admin is decided by the caller when the stream opens and updated when
	// the user's role changes.
	Admin bool
	Send  chan []byte
}

// message goes to the streams of userID and, when admins is set, to every
// admin stream.
type message struct {
	userID uuid.UUID
	admins bool
	event  Event
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *message
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *message, 256),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.done:
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop closes every stream and ends Run.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) deliver(msg *message) {
	data, err := json.Marshal(msg.event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.clients {
		if msg.event.Type == EventRoleChanged && client.UserID == msg.userID {
			if rc, ok := msg.event.Data.(RoleChangedEvent); ok {
				client.Admin = rc.Role == "admin"
			}
		}

		wanted := (msg.userID != uuid.Nil && client.UserID == msg.userID) || (msg.admins && client.Admin)
		if !wanted {
			continue
		}
		select {
		case client.Send <- data:
		default:
			// slow consumer, drop
		}
	}
}

// Register and Unregister are no-ops once Stop has been called.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishRoleChange tells the user's own streams about their new role and
// asks admin streams to reload the user list.
func (h *Hub) PublishRoleChange(userID uuid.UUID, role string) {
	h.publish(&message{
		userID: userID,
		event:  Event{Type: EventRoleChanged, Data: RoleChangedEvent{UserID: userID, Role: role}},
	})
	h.PublishUsersChanged()
}

func (h *Hub) PublishUsersChanged() {
	h.publish(&message{admins: true, event: Event{Type: EventUsersChanged}})
}

func (h *Hub) PublishProfileChange(userID uuid.UUID) {
	h.publish(&message{
		userID: userID,
		event:  Event{Type: EventProfileChanged, Data: map[string]uuid.UUID{"user_id": userID}},
	})
}

// publish drops the message once the hub is stopped.
func (h *Hub) publish(msg *message) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}
