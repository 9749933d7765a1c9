package notifications

import (
	"context"
	"log"
	"time"
)

const publishTimeout = 2 * time.Second

// Relay fans broadcasts out through Redis so a user's channels are reached on
// whichever instance holds them. The local hub receives its own copy through
// StartWiring. If publishing fails the local hub is used directly.
type Relay struct {
	notifier *Notifier
	hub      *Hub
}

// NewRelay builds a relay over n that falls back to hub.
func NewRelay(n *Notifier, hub *Hub) *Relay {
	return &Relay{notifier: n, hub: hub}
}

// BroadcastTo publishes an event for userID. Failures are logged, never returned.
func (r *Relay) BroadcastTo(userID uint, event string, payload any) {
	data, err := Encode(event, payload)
	if err != nil {
		log.Printf("relay: failed to encode %q for user %d: %v", event, userID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := r.notifier.PublishUser(ctx, userID, string(data)); err != nil {
		log.Printf("relay: publish for user %d failed, delivering locally: %v", userID, err)
		r.hub.Deliver(userID, data)
	}
}
