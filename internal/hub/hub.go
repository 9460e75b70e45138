// Package hub fans photo envelopes out to WebSocket subscribers. Feeds are
// named after the user whose camera is being watched; a client subscribes to
// exactly the feeds it joins.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/TheB2D/Glass/internal/config"
	"github.com/TheB2D/Glass/internal/log"
)

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // client id -> client
	feeds   map[string]map[string]*Client // feed name -> client id -> client
	cfg     config.WebSocketConfig
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		feeds:   make(map[string]map[string]*Client),
		cfg:     cfg,
	}
}

// Config returns the WebSocket settings clients are built with.
func (h *Hub) Config() config.WebSocketConfig {
	return h.cfg
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	log.L().Debug().Str("client_id", c.ID).Str(log.FieldUserID, c.UserID).Msg("client registered")
}

// Unregister removes the client from every feed and closes its send
// channel. Removing an already-absent client is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.ID]
	if ok {
		for feed, subs := range h.feeds {
			delete(subs, c.ID)
			if len(subs) == 0 {
				delete(h.feeds, feed)
			}
		}
		delete(h.clients, c.ID)
		c.closed.Store(true)
		close(c.Send)
	}
	h.mu.Unlock()

	if ok {
		log.L().Debug().Str("client_id", c.ID).Msg("client unregistered")
	}
}

// JoinFeed subscribes the client to a feed. A client appears at most once
// per feed.
func (h *Hub) JoinFeed(c *Client, feed string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	if _, ok := h.feeds[feed]; !ok {
		h.feeds[feed] = make(map[string]*Client)
	}
	h.feeds[feed][c.ID] = c
}

func (h *Hub) LeaveFeed(c *Client, feed string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.feeds[feed]; ok {
		delete(subs, c.ID)
		if len(subs) == 0 {
			delete(h.feeds, feed)
		}
	}
}

// FeedSize reports the current number of subscribers on a feed.
func (h *Hub) FeedSize(feed string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.feeds[feed])
}

// BroadcastToFeed sends msg to every live subscriber of the feed. Dead
// subscribers (closed, or send buffer full) are pruned afterwards; one bad
// subscriber never blocks delivery to the rest.
func (h *Hub) BroadcastToFeed(feed string, msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	var dead []*Client

	h.mu.RLock()
	for _, c := range h.feeds[feed] {
		if !c.trySend(data) {
			dead = append(dead, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range dead {
		log.L().Debug().Str("client_id", c.ID).Str("feed", feed).Msg("dropping dead subscriber")
		h.Unregister(c)
	}
	return nil
}
