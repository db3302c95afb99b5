// Package notifications pushes feed changes to connected browsers.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"snapgram/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerAccount = 8
	maxTotalConns      = 10000
)

// Feed event types.
const (
	EventPostCreated = "post.created"
	EventPostUpdated = "post.updated"
	EventPostDeleted = "post.deleted"
	EventGap         = "feed.gap"
)

// FeedEvent is the message pushed to browsers when a post changes.
type FeedEvent struct {
	Type      string    `json:"type"`
	PostID    string    `json:"postId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

var gapNotice = []byte(`{"type":"` + EventGap + `"}`)

var (
	ErrServerFull  = errors.New("server connection limit reached")
	ErrAccountFull = errors.New("account connection limit reached")
)

// Hub tracks feed connections per account.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
	log        *observability.WSLogger
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]map[*Client]struct{}),
		log:   observability.NewWSLogger("feed"),
	}
}

// Register adds a connection for accountID.
func (h *Hub) Register(accountID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, ErrServerFull
	}
	m, ok := h.conns[accountID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[accountID] = m
	}
	if len(m) >= maxConnsPerAccount {
		return nil, ErrAccountFull
	}

	client := newClient(h, conn, accountID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	h.log.LogConnect(context.Background(), accountID)
	return client, nil
}

// UnregisterClient removes client and closes its send channel. Calling it
// twice is safe.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.AccountID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.AccountID)
	}
	h.totalConns--
	close(client.Send)
	observability.WebSocketConnectionsTotal.Dec()
	h.log.LogDisconnect(context.Background(), client.AccountID, "unregistered")
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// BroadcastAll sends message to every connected client.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(message)
		}
	}
}

// Publish encodes ev and broadcasts it.
func (h *Hub) Publish(ev FeedEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.BroadcastAll(data)
	return nil
}

// Shutdown closes every client's send channel so its WritePump sends a
// going-away close frame, then waits for running pumps to finish or ctx to
// expire. WritePump stays the only writer on each connection.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	var pumps []*Client
	for accountID, clients := range h.conns {
		for client := range clients {
			client.closeCode = websocket.CloseGoingAway
			close(client.Send)
			observability.WebSocketConnectionsTotal.Dec()
			if client.pumping.Load() {
				pumps = append(pumps, client)
			}
		}
		delete(h.conns, accountID)
	}
	h.totalConns = 0
	h.mu.Unlock()

	for _, client := range pumps {
		select {
		case <-client.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
