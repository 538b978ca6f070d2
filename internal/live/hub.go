package live

import (
	"errors"
	"sync"

	"github.com/nexxacraft/community-admin/internal/metrics"
)

var ErrHubFull = errors.New("live connection limit reached")

const defaultMaxConns = 500

// Hub tracks open dashboard connections.
type Hub struct {
	mu       sync.Mutex
	clients  map[*Client]struct{}
	maxConns int
	closed   bool
}

// NewHub returns a hub accepting at most maxConns connections; zero or less
// means the default.
func NewHub(maxConns int) *Hub {
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	return &Hub{clients: make(map[*Client]struct{}), maxConns: maxConns}
}

// Register admits conn for screen on behalf of actor.
func (h *Hub) Register(screen, actor string, conn Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || len(h.clients) >= h.maxConns {
		return nil, ErrHubFull
	}
	c := &Client{
		Screen: screen,
		Actor:  actor,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		hub:    h,
	}
	h.clients[c] = struct{}{}
	metrics.LiveConnections.WithLabelValues(screen).Inc()
	return c, nil
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		metrics.LiveConnections.WithLabelValues(c.Screen).Dec()
	}
}

// Count is the number of open connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown closes every connection and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
