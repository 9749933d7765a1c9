package notifications

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/daniyal2335/eprojectfitness/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBufferSize = 64
)

var (
	ErrBufferFull    = errors.New("client send buffer full")
	ErrChannelClosed = errors.New("client channel closed")
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// UserID is the authenticated owner of the connection.
	UserID uint

	// Callback for handling incoming messages
	IncomingHandler func(*Client, []byte)

	id        string
	closeOnce sync.Once
}

// NewClient creates a new Client instance
func NewClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
		id:     uuid.NewString(),
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string { return c.id }

// ReadPump pumps messages from the websocket connection to the incoming handler.
// When the peer goes away every room membership of this client is released.
func (c *Client) ReadPump() {
	defer func() {
		if n := c.Hub.UnregisterAll(c); n > 0 {
			log.Printf("Client %s (user %d): released %d room(s) on disconnect", c.id, c.UserID, n)
		}
		c.Close()
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ReadPump Error (User %d): %v", c.UserID, err)
			}
			break
		}

		if c.IncomingHandler != nil {
			c.IncomingHandler(c, message)
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The channel was closed.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			if err := w.Close(); err != nil {
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

// TrySend queues a message without blocking.
func (c *Client) TrySend(message []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
			err = ErrChannelClosed
		}
	}()

	select {
	case c.Send <- message:
		return nil
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
		log.Printf("Client %d (%s): Buffer full, dropped message", c.UserID, c.Hub.Name())
		return ErrBufferFull
	}
}

// Close stops outbound delivery. WritePump sends the close frame. Safe to call repeatedly.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}
