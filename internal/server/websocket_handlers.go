package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/daniyal2335/eprojectfitness/internal/cache"
	"github.com/daniyal2335/eprojectfitness/internal/models"
	"github.com/daniyal2335/eprojectfitness/internal/notifications"
	"github.com/daniyal2335/eprojectfitness/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Socket events exchanged with clients.
const (
	EventRegister     = "register"
	EventUnregister   = "unregister"
	EventRegistered   = "registered"
	EventUnregistered = "unregistered"
	EventError        = "error"
)

type socketMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// IssueWSTicket handles POST /api/ws/ticket. The ticket is single use and short lived.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(errors.New("ticket store unavailable")))
	}

	userID := currentUserID(c)
	ticket := uuid.NewString()
	if err := s.redis.Set(c.Context(), cache.WSTicketKey(ticket), strconv.FormatUint(uint64(userID), 10), cache.WSTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(cache.WSTicketTTL.Seconds()),
	})
}

// consumeWSTicket atomically reads and deletes a ticket.
func (s *Server) consumeWSTicket(ctx context.Context, ticket string) (uint, bool) {
	if s.redis == nil {
		return 0, false
	}
	raw, err := s.redis.GetDel(ctx, cache.WSTicketKey(ticket)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// WebsocketHandler upgrades authenticated connections. A connection joins a
// user room only after it sends a register event for its own user id.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		observability.WebSocketConnectionsTotal.Inc()
		defer observability.WebSocketConnectionsTotal.Dec()

		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			if cerr := conn.Close(); cerr != nil {
				log.Printf("websocket close error: %v", cerr)
			}
			return
		}

		client := notifications.NewClient(s.hub, conn, uid)
		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			s.handleSocketMessage(c, c.UserID, message)
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}

// handleSocketMessage applies one client event on behalf of userID.
func (s *Server) handleSocketMessage(ch notifications.Channel, userID uint, raw []byte) {
	var msg socketMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Event == "" {
		observability.WebSocketEventsTotal.WithLabelValues("invalid").Inc()
		reply(ch, EventError, fiber.Map{"message": "Invalid message format"})
		return
	}

	switch msg.Event {
	case EventRegister, EventUnregister:
		observability.WebSocketEventsTotal.WithLabelValues(msg.Event).Inc()
	default:
		observability.WebSocketEventsTotal.WithLabelValues("unknown").Inc()
		reply(ch, EventError, fiber.Map{"message": "Unknown event"})
		return
	}

	target, err := parseSocketUserID(msg.Data)
	if err != nil {
		reply(ch, EventError, fiber.Map{"message": "Invalid user id"})
		return
	}
	if target != userID {
		reply(ch, EventError, fiber.Map{"message": "Cannot subscribe to another user"})
		return
	}

	user := strconv.FormatUint(uint64(userID), 10)
	if msg.Event == EventUnregister {
		s.hub.Unregister(userID, ch)
		reply(ch, EventUnregistered, fiber.Map{"user": user})
		return
	}

	if err := s.hub.Register(userID, ch); err != nil {
		log.Printf("WebSocket: failed to register user %d: %v", userID, err)
		reply(ch, EventError, fiber.Map{"message": err.Error()})
		return
	}
	reply(ch, EventRegistered, fiber.Map{"user": user})
}

// parseSocketUserID accepts the user id as a JSON number or string.
func parseSocketUserID(data json.RawMessage) (uint, error) {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil && n > 0 {
		return uint(n), nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return 0, errors.New("user id must be a number or string")
	}
	n, err := strconv.ParseUint(strings.TrimSpace(str), 10, 32)
	if err != nil || n == 0 {
		return 0, errors.New("invalid user id")
	}
	return uint(n), nil
}

func reply(ch notifications.Channel, event string, payload any) {
	data, err := notifications.Encode(event, payload)
	if err != nil {
		log.Printf("WebSocket: failed to encode %s: %v", event, err)
		return
	}
	if err := ch.TrySend(data); err != nil {
		log.Printf("WebSocket: reply %s to %s failed: %v", event, ch.ID(), err)
	}
}
