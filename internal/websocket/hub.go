package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event types carried in the broadcast envelope. Clients filter on these to
// decide whether a message concerns the page they are showing.
const (
	EventListCreated       = "LIST-CREATED"
	EventListUpdated       = "LIST-UPDATED"
	EventListDeleted       = "LIST-DELETED"
	EventItemAdded         = "ITEM-ADDED"
	EventItemRemoved       = "ITEM-REMOVED"
	EventItemChecked       = "ITEM-CHECKED"
	EventItemUnchecked     = "ITEM-UNCHECKED"
	EventPermissionGranted = "PERMISSION-GRANTED"
	EventAccessRevoked     = "ACCESS-REVOKED"
)

// Message is the notification envelope delivered to every connected client.
// Data identifies the primary entity; Data2 carries a secondary id when the
// event needs one (for example the list an item belongs to).
type Message struct {
	Type  string `json:"type"`
	Data  any    `json:"data"`
	Data2 any    `json:"data2,omitempty"`
}

// Hub maintains the set of active WebSocket clients and fans messages out to
// all of them. It keeps no history: a client that reconnects after missing an
// event converges by re-fetching on the next page load.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients, the sender included.
// Delivery is fire-and-forget: at most once per connected client, nothing
// for clients that connect later.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}
	h.broadcastRaw(data)
}

func (h *Hub) broadcastRaw(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// Relay validates a client-submitted envelope and rebroadcasts it to all
// clients. Payloads that do not parse as an envelope with a type are dropped.
func (h *Hub) Relay(raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		h.logger.Warn("drop malformed relay payload")
		return
	}
	h.broadcastRaw(raw)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
