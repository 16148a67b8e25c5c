package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// conn is the write surface the hub needs from a live connection. Satisfied
// by *websocket.Conn; tests substitute a recorder.
type conn interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v any) error
	Close() error
}

// Client is one registered live connection. Writes are serialized per
// client; gorilla/websocket allows only one concurrent writer.
type Client struct {
	mu   sync.Mutex
	conn conn
}

func (c *Client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// Hub is the process-wide registry of live notification channels, keyed by
// user. A failed send evicts the handle; other handles are unaffected.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool
	log     *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: make(map[string]map[*Client]bool),
		log:     log,
	}
}

// Register adds a live connection for the user and returns its handle.
func (h *Hub) Register(userID string, c *websocket.Conn) *Client {
	return h.register(userID, c)
}

func (h *Hub) register(userID string, c conn) *Client {
	client := &Client{conn: c}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]bool)
	}
	h.clients[userID][client] = true
	return client
}

// Deregister removes the handle and closes its connection.
func (h *Hub) Deregister(userID string, client *Client) {
	h.mu.Lock()
	if set := h.clients[userID]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(h.clients, userID)
		}
	}
	h.mu.Unlock()
	_ = client.conn.Close()
}

// LiveCount reports how many live connections the user has.
func (h *Hub) LiveCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// SendToUser delivers to every live connection of one user and returns the
// number of successful sends. Handles whose write fails are evicted.
func (h *Hub) SendToUser(userID string, msg any) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := c.send(msg); err != nil {
			h.log.Warn("live send failed, evicting client", "user_id", userID, "error", err)
			h.Deregister(userID, c)
			continue
		}
		sent++
	}
	return sent
}

// Broadcast delivers to every registered connection.
func (h *Hub) Broadcast(msg any) int {
	h.mu.RLock()
	userIDs := make([]string, 0, len(h.clients))
	for id := range h.clients {
		userIDs = append(userIDs, id)
	}
	h.mu.RUnlock()

	sent := 0
	for _, id := range userIDs {
		sent += h.SendToUser(id, msg)
	}
	return sent
}
