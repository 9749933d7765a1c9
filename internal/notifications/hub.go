// Package notifications provides the per-user room registry and real-time delivery.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/daniyal2335/eprojectfitness/internal/observability"
)

const (
	// Max channels per user room
	maxChannelsPerUser = 12
	// Max registrations across all rooms
	maxTotalRegistrations = 10000
)

var (
	ErrInvalidUser  = errors.New("user id must be positive")
	ErrRoomFull     = errors.New("user connection limit reached")
	ErrRegistryFull = errors.New("server connection limit reached")
)

// Channel is a live transport endpoint that can receive encoded events.
// TrySend must never block.
type Channel interface {
	ID() string
	TrySend(message []byte) error
}

// Envelope is the wire shape of every server-to-client event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Encode renders an event envelope.
func Encode(event string, payload any) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: payload})
}

// Hub is the room registry: userID -> set of live channels.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[uint]map[Channel]struct{}
	memberships map[Channel]map[uint]struct{}
	total       int
}

// NewHub creates an empty registry.
func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[uint]map[Channel]struct{}),
		memberships: make(map[Channel]map[uint]struct{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register associates ch with userID. Registering an existing pair is a no-op.
func (h *Hub) Register(userID uint, ch Channel) error {
	if userID == 0 {
		return ErrInvalidUser
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[userID]
	if ok {
		if _, exists := room[ch]; exists {
			return nil
		}
	}
	if ok && len(room) >= maxChannelsPerUser {
		return ErrRoomFull
	}
	if h.total >= maxTotalRegistrations {
		return ErrRegistryFull
	}

	if !ok {
		room = make(map[Channel]struct{})
		h.rooms[userID] = room
	}
	room[ch] = struct{}{}

	users, ok := h.memberships[ch]
	if !ok {
		users = make(map[uint]struct{})
		h.memberships[ch] = users
	}
	users[userID] = struct{}{}

	h.total++
	observability.RoomRegistrations.Inc()
	return nil
}

// Unregister removes one association. Removing a non-member is a no-op.
func (h *Hub) Unregister(userID uint, ch Channel) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeLocked(userID, ch)
}

// UnregisterAll removes ch from every room it joined and returns how many.
func (h *Hub) UnregisterAll(ch Channel) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	removed := 0
	for userID := range h.memberships[ch] {
		if h.removeLocked(userID, ch) {
			removed++
		}
	}
	return removed
}

func (h *Hub) removeLocked(userID uint, ch Channel) bool {
	room, ok := h.rooms[userID]
	if !ok {
		return false
	}
	if _, exists := room[ch]; !exists {
		return false
	}

	delete(room, ch)
	if len(room) == 0 {
		delete(h.rooms, userID)
	}
	if users := h.memberships[ch]; users != nil {
		delete(users, userID)
		if len(users) == 0 {
			delete(h.memberships, ch)
		}
	}

	h.total--
	observability.RoomRegistrations.Dec()
	return true
}

// BroadcastTo sends payload under event to every channel in userID's room.
// An empty room is a silent no-op; nothing is queued.
func (h *Hub) BroadcastTo(userID uint, event string, payload any) {
	data, err := Encode(event, payload)
	if err != nil {
		log.Printf("%s: failed to encode %q for user %d: %v", h.Name(), event, userID, err)
		return
	}
	h.deliver(userID, event, data)
}

// Deliver sends an already-encoded message to userID's room and returns the number
// of channels that accepted it.
func (h *Hub) Deliver(userID uint, message []byte) int {
	return h.deliver(userID, "relay", message)
}

func (h *Hub) deliver(userID uint, event string, message []byte) int {
	h.mu.RLock()
	room := h.rooms[userID]
	targets := make([]Channel, 0, len(room))
	for ch := range room {
		targets = append(targets, ch)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		observability.BroadcastDeliveries.WithLabelValues(event, "empty").Inc()
		return 0
	}

	delivered := 0
	for _, ch := range targets {
		if err := ch.TrySend(message); err != nil {
			observability.BroadcastDeliveries.WithLabelValues(event, "failed").Inc()
			log.Printf("%s: send to channel %s (user %d) failed: %v", h.Name(), ch.ID(), userID, err)
			continue
		}
		observability.BroadcastDeliveries.WithLabelValues(event, "delivered").Inc()
		delivered++
	}
	return delivered
}

// IsPresent reports whether userID has at least one registered channel.
func (h *Hub) IsPresent(userID uint) bool {
	return h.RoomSize(userID) > 0
}

// RoomSize returns the number of channels registered for userID.
func (h *Hub) RoomSize(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// StartWiring connects the Notifier to this hub: it subscribes to the Redis user
// pattern and delivers every relayed message to the matching local room.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		if !strings.HasPrefix(channel, userChannelPrefix) {
			log.Printf("invalid notification channel: %s", channel)
			return
		}
		var userID uint
		if _, err := fmt.Sscanf(channel, userChannelPrefix+"%d", &userID); err != nil || userID == 0 {
			log.Printf("invalid notification channel: %s", channel)
			return
		}
		h.Deliver(userID, []byte(payload))
	})
}

// Shutdown closes every registered channel that supports closing and empties the registry.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	channels := make([]Channel, 0, len(h.memberships))
	for ch := range h.memberships {
		channels = append(channels, ch)
	}
	observability.RoomRegistrations.Sub(float64(h.total))
	h.rooms = make(map[uint]map[Channel]struct{})
	h.memberships = make(map[Channel]map[uint]struct{})
	h.total = 0
	h.mu.Unlock()

	for _, ch := range channels {
		if c, ok := ch.(interface{ Close() }); ok {
			c.Close()
		}
	}
	return nil
}
