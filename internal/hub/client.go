package hub

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TheB2D/Glass/internal/config"
	"github.com/TheB2D/Glass/internal/log"
)

// Client is one WebSocket subscriber. Outbound messages go through the
// buffered Send channel drained by WritePump; a full buffer or a closed
// client causes the hub to drop the subscriber rather than block a
// broadcast.
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	hub    *Hub
	cfg    config.WebSocketConfig
	closed atomic.Bool
}

func NewClient(id, userID string, conn *websocket.Conn, h *Hub, cfg config.WebSocketConfig) *Client {
	buf := cfg.SendBuffer
	if buf <= 0 {
		buf = 16
	}
	return &Client{
		ID:     id,
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, buf),
		hub:    h,
		cfg:    cfg,
	}
}

// Close marks the client dead. The next broadcast touching it removes it
// from the registry. Safe to call more than once.
func (c *Client) Close() {
	c.closed.Store(true)
}

// trySend queues data without blocking. Returns false when the client is
// closed or its buffer is full, signalling the hub to drop it. Callers must
// hold the hub read lock.
func (c *Client) trySend(data []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// SendMessage marshals v and queues it for this client only. The hub read
// lock is held across the send: Unregister closes Send under the write
// lock, so the channel cannot close between the liveness check and the
// send itself.
func (c *Client) SendMessage(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.hub.mu.RLock()
	c.trySend(data)
	c.hub.mu.RUnlock()
	return nil
}

// ReadPump consumes inbound frames until the connection dies, then
// unregisters the client. handler is invoked for every text message.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.L().Debug().Err(err).Str("client_id", c.ID).Msg("websocket read failed")
			}
			return
		}
		handler(c, message)
	}
}

// WritePump drains the Send channel onto the connection and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Close()
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
