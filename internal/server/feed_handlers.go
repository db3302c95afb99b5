package server

import (
	"errors"
	"log/slog"

	"snapgram/internal/middleware"
	"snapgram/internal/notifications"
	"snapgram/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedUpgrade rejects plain HTTP requests to the feed endpoint.
func (s *Server) FeedUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if s.hub == nil {
		return fiber.ErrServiceUnavailable
	}
	return c.Next()
}

// FeedHandler registers the connection with the feed hub and pumps post
// events to it until either side goes away.
func (s *Server) FeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		accountID, _ := conn.Locals(middleware.LocalAccountID).(string)
		if accountID == "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(accountID, conn)
		if err != nil {
			msg := "feed unavailable"
			if errors.Is(err, notifications.ErrAccountFull) || errors.Is(err, notifications.ErrServerFull) {
				msg = err.Error()
			}
			observability.GlobalLogger.Warn("feed registration rejected",
				slog.String("account_id", accountID),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteJSON(fiber.Map{"error": msg})
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
