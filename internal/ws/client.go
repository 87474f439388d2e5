package ws

import (
	"context"
	"encoding/json"
	"time"

	"university-chat/backend/internal/models"
	"university-chat/backend/pkg/logger"
	"university-chat/backend/pkg/observability"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

// Status strings sent back to the message sender
const (
	StatusSent           = "Message sent successfully."
	StatusInvalidFormat  = "Invalid message format. Expected JSON."
	StatusMissingFields  = "Missing recipient_id or content."
	statusCreateFailedFm = "Failed to create message: "
)

// MessageStore persists inbound chat messages
type MessageStore interface {
	Create(senderID, receiverID, content string) (*models.Message, error)
}

// Presence is notified of connect/disconnect; implementations are best-effort
type Presence interface {
	MarkOnline(ctx context.Context, identity string)
	Refresh(ctx context.Context, identity string)
	MarkOffline(ctx context.Context, identity string)
}

// inboundFrame is the structured payload expected on every frame
type inboundFrame struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

// Client is one relay session: a live connection bound to a verified identity.
// The identity comes from the token presented at connect time, never from the
// frame payload.
type Client struct {
	identity string
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}

	registry *Registry
	store    MessageStore
	presence Presence
	metrics  *observability.RelayMetrics
	log      *logger.Logger
}

// ReadPump processes inbound frames strictly in arrival order: the next frame
// is not read until the persist-and-forward sequence for the current one has
// completed. It owns session teardown; unregister runs exactly once.
func (c *Client) ReadPump() {
	defer func() {
		c.registry.Unregister(c.identity, c)
		if c.presence != nil {
			c.presence.MarkOffline(context.Background(), c.identity)
		}
		c.metrics.ConnectionClosed()
		c.conn.Close()
		// The send channel stays open; a concurrent TrySend that captured
		// this client must never hit a closed channel. done wakes the
		// write pump instead.
		close(c.done)
		c.log.Info("relay session closed", "identity", c.identity)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if c.presence != nil {
			c.presence.Refresh(context.Background(), c.identity)
		}
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("unexpected close", "identity", c.identity, "error", err.Error())
			}
			return
		}

		c.handleFrame(raw)
	}
}

// handleFrame runs one iteration of the relay loop. Every failure below is
// non-fatal: the sender is notified and the session stays active.
func (c *Client) handleFrame(raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.notify(StatusInvalidFormat)
		return
	}

	if frame.RecipientID == "" || frame.Content == "" {
		c.notify(StatusMissingFields)
		return
	}

	// The session identity is forced as the sender; a sender_id in the
	// payload is ignored
	msg, err := c.store.Create(c.identity, frame.RecipientID, frame.Content)
	if err != nil {
		c.log.Warn("message persistence failed", "identity", c.identity, "error", err.Error())
		c.notify(statusCreateFailedFm + err.Error())
		return
	}
	c.metrics.MessagePersisted()

	c.notify(StatusSent)

	// Best-effort forward of the raw frame; the result is not surfaced to
	// the sender
	delivered := c.registry.TrySend(frame.RecipientID, raw)
	c.metrics.Delivered(delivered)
	if !delivered {
		c.log.Debug("recipient offline", "message_id", msg.ID, "recipient", frame.RecipientID)
	}
}

// notify queues a plain status string for the sender
func (c *Client) notify(status string) {
	select {
	case c.send <- []byte(status):
	default:
		c.log.Warn("dropping status for saturated sender", "identity", c.identity)
	}
}

// WritePump owns all writes to the socket and keeps the connection alive with
// periodic pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

			// Drain anything already queued as separate frames
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
