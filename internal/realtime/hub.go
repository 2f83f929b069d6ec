package realtime

import (
	"encoding/json"
	"sync"
)

// Hub fans notification events out to connected dashboard sessions. Clients
// are keyed by user so DSR-ready and message-received events reach only the
// user they belong to; presence updates go to everyone.
type Hub struct {
	mu       sync.RWMutex
	clients  map[int64]map[*Client]struct{}
	presence map[int64]int
}

type Client struct {
	UserID int64
	Send   chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:  map[int64]map[*Client]struct{}{},
		presence: map[int64]int{},
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = map[*Client]struct{}{}
	}
	h.clients[client.UserID][client] = struct{}{}
	h.presence[client.UserID]++
	h.broadcastPresenceLocked()
}

// Unregister is idempotent; both connection pumps call it on teardown.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, client.UserID)
	}
	if count := h.presence[client.UserID]; count <= 1 {
		delete(h.presence, client.UserID)
	} else {
		h.presence[client.UserID] = count - 1
	}
	h.broadcastPresenceLocked()
	close(client.Send)
}

// SendToUser delivers a payload to every session the user has open. Slow
// consumers are skipped rather than blocking the caller.
func (h *Hub) SendToUser(userID int64, payload any) {
	message, err := json.Marshal(payload)
	if err != nil {
		return
	}

	// Held across the sends so Unregister cannot close a channel mid-loop.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.Send <- message:
		default:
		}
	}
}

// Broadcast delivers a payload to every connected session.
func (h *Hub) Broadcast(payload any) {
	message, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.Send <- message:
			default:
			}
		}
	}
}

func (h *Hub) broadcastPresenceLocked() {
	users := make([]int64, 0, len(h.presence))
	for userID := range h.presence {
		users = append(users, userID)
	}
	payload := map[string]any{
		"type":  "presence.update",
		"users": users,
	}
	message, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, clients := range h.clients {
		for client := range clients {
			select {
			case client.Send <- message:
			default:
			}
		}
	}
}
