package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/playrummy/backend/internal/session"
)

// Hub owns the connected clients of one session
type Hub struct {
	session    *session.Session
	logger     *zap.Logger
	outboxSize int

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a Hub feeding sess. Call Run before attaching connections.
func NewHub(sess *session.Session, outboxSize int, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if outboxSize < 1 {
		outboxSize = 256
	}
	return &Hub{
		session:    sess,
		logger:     logger.With(zap.String("component", "ws")),
		outboxSize: outboxSize,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes joins and leaves until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.close()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			h.logger.Info("Hub stopped")
			return

		case c := <-h.register:
			id, err := h.session.Join(c)
			if err != nil {
				h.logger.Info("Connection rejected", zap.String("remote", c.conn.RemoteAddr()), zap.Error(err))
				c.conn.Close()
				continue
			}

			c.mu.Lock()
			c.playerID = id
			c.mu.Unlock()

			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

			h.logger.Info("Player connected", zap.Int("player_id", id), zap.String("remote", c.conn.RemoteAddr()))

			go c.writePump()
			go c.readPump()

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				h.session.Leave(c.playerID)
				h.logger.Info("Player disconnected", zap.Int("player_id", c.playerID))
			}
			h.mu.Unlock()
			c.close()
		}
	}
}

// Attach hands a new connection to the hub
func (h *Hub) Attach(conn LineConn) {
	c := newClient(h, conn)
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.close()
	}
}

// Count returns the number of connected players
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
