package notifications

import (
	"context"
	"sync/atomic"
	"time"

	"snapgram/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// The feed is push-only; inbound frames are limited to control traffic.
	maxMessageSize = 1024

	sendBuffer = 64
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// AccountID of the signed-in owner of the connection.
	AccountID string

	// closeCode is set by the hub before it closes Send.
	closeCode int
	pumping   atomic.Bool
	done      chan struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, accountID string) *Client {
	return &Client{
		hub:       hub,
		Conn:      conn,
		AccountID: accountID,
		Send:      make(chan []byte, sendBuffer),
		closeCode: websocket.CloseNormalClosure,
		done:      make(chan struct{}),
	}
}

// ReadPump drains inbound frames until the peer goes away, then unregisters.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.LogError(context.Background(), err, "read")
			}
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	c.pumping.Store(true)
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
		close(c.done)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, c.closeFrame())
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeFrame is the payload of the close message sent once Send is closed.
// Only valid after the hub has closed Send.
func (c *Client) closeFrame() []byte {
	if c.closeCode == websocket.CloseGoingAway {
		return websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")
	}
	return []byte{}
}

// TrySend queues message without blocking. A full buffer drops the message
// and queues a gap notice so the browser can refetch.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.FeedDrops.WithLabelValues("closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		observability.FeedDrops.WithLabelValues("full").Inc()
		select {
		case c.Send <- gapNotice:
		default:
		}
	}
}
