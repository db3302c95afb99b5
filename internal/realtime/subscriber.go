// Package realtime follows the platform's realtime channel for the posts
// collection and turns document events into cache invalidations and feed pushes.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"snapgram/internal/observability"

	"github.com/gorilla/websocket"
)

const (
	defaultPingInterval = 20 * time.Second
	writeWait           = 10 * time.Second
	minBackoff          = 500 * time.Millisecond
	maxBackoff          = 30 * time.Second
)

// Event is one document event delivered on a subscribed channel.
type Event struct {
	Events    []string        `json:"events"`
	Channels  []string        `json:"channels"`
	Timestamp string          `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandlerFunc receives decoded events. It runs on the read loop.
type HandlerFunc func(ctx context.Context, ev Event)

// Config describes the subscription.
type Config struct {
	Endpoint     string // REST endpoint, e.g. https://cloud.appwrite.io/v1
	ProjectID    string
	Channels     []string
	SelfSigned   bool
	PingInterval time.Duration
}

// Subscriber keeps one realtime connection open and reconnects with backoff.
type Subscriber struct {
	url          string
	dialer       *websocket.Dialer
	handler      HandlerFunc
	pingInterval time.Duration
	log          *observability.WSLogger

	mu   sync.Mutex
	conn *websocket.Conn
}

// DocumentsChannel names the realtime channel of a collection's documents.
func DocumentsChannel(databaseID, collectionID string) string {
	return fmt.Sprintf("databases.%s.collections.%s.documents", databaseID, collectionID)
}

// RealtimeURL derives the websocket URL from the REST endpoint.
func RealtimeURL(endpoint, projectID string, channels []string) (string, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return "", fmt.Errorf("realtime: invalid endpoint %q: %w", endpoint, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("realtime: endpoint %q must be http or https", endpoint)
	}
	u.Path += "/realtime"
	q := url.Values{}
	q.Set("project", projectID)
	for _, c := range channels {
		q.Add("channels[]", c)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// NewSubscriber validates cfg and builds a subscriber.
func NewSubscriber(cfg Config, handler HandlerFunc) (*Subscriber, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("realtime: project id is required")
	}
	if len(cfg.Channels) == 0 {
		return nil, errors.New("realtime: at least one channel is required")
	}
	if handler == nil {
		return nil, errors.New("realtime: handler is required")
	}
	wsURL, err := RealtimeURL(cfg.Endpoint, cfg.ProjectID, cfg.Channels)
	if err != nil {
		return nil, err
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second
	if cfg.SelfSigned {
		dialer.TLSClientConfig = insecureTLS()
	}
	ping := cfg.PingInterval
	if ping <= 0 {
		ping = defaultPingInterval
	}

	return &Subscriber{
		url:          wsURL,
		dialer:       &dialer,
		handler:      handler,
		pingInterval: ping,
		log:          observability.NewWSLogger("realtime"),
	}, nil
}

// Run connects and dispatches events until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	backoff := minBackoff
	for {
		started := time.Now()
		err := s.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(started) > maxBackoff {
			backoff = minBackoff
		}
		observability.GlobalLogger.WarnContext(ctx, "realtime connection lost, reconnecting",
			slog.String("error", errString(err)),
			slog.Duration("backoff", backoff),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// Close drops the current connection; Run reconnects unless its context is done.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *Subscriber) session(ctx context.Context) error {
	conn, resp, err := s.dialer.DialContext(ctx, s.url, http.Header{})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("realtime: dial: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.log.LogConnect(ctx, s.url)

	done := make(chan struct{})
	defer func() {
		close(done)
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		_ = conn.Close()
	}()

	go s.keepalive(ctx, conn, done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.log.LogDisconnect(ctx, s.url, err.Error())
			return err
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			s.log.LogError(ctx, err, "decode")
			continue
		}
		switch f.Type {
		case "event":
			var ev Event
			if err := json.Unmarshal(f.Data, &ev); err != nil {
				s.log.LogError(ctx, err, "decode_event")
				continue
			}
			s.handler(ctx, ev)
		case "error":
			var e struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			}
			_ = json.Unmarshal(f.Data, &e)
			return fmt.Errorf("realtime: server error %d: %s", e.Code, e.Message)
		}
	}
}

// keepalive sends the platform's application-level ping and closes the
// connection when ctx ends so the read loop returns.
func (s *Subscriber) keepalive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			_ = conn.Close()
			return
		case <-ticker.C:
			s.mu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))
			s.mu.Unlock()
			if err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
