package ws

import (
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/playrummy/backend/internal/protocol"
	"github.com/playrummy/backend/internal/session"
)

// Errors
var (
	ErrOutboxFull   = errors.New("outbox full")
	ErrClientClosed = errors.New("client closed")
)

// Client is one player connection. It implements session.Sender.
type Client struct {
	hub      *Hub
	conn     LineConn
	playerID int
	logger   *zap.Logger

	mu     sync.Mutex
	send   chan string
	closed bool
}

func newClient(h *Hub, conn LineConn) *Client {
	return &Client{
		hub:    h,
		conn:   conn,
		logger: h.logger.With(zap.String("remote", conn.RemoteAddr())),
		send:   make(chan string, h.outboxSize),
	}
}

// PlayerID returns the id the session assigned, 0 before joining
func (c *Client) PlayerID() int {
	return c.playerID
}

// Send enqueues a message. A full outbox closes the connection rather than
// dropping the message.
func (c *Client) Send(op protocol.ServerOp, tokens []string) error {
	line := protocol.EncodeLine(op, tokens)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- line:
		return nil
	default:
		c.logger.Warn("Outbox full, closing connection", zap.Int("player_id", c.playerID), zap.Stringer("op", op))
		c.closeLocked()
		return ErrOutboxFull
	}
}

// close stops the write pump after it flushes what is already queued
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump feeds client lines into the session until the connection fails
// or the player commits a fatal protocol error.
func (c *Client) readPump() {
	defer c.hub.leave(c)

	for {
		line, err := c.conn.ReadLine()
		if err != nil {
			c.logger.Debug("Read ended", zap.Int("player_id", c.playerID), zap.Error(err))
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		op, tokens, err := protocol.ParseClientLine(line)
		if err == nil {
			err = c.hub.session.Handle(c.playerID, op, tokens)
		}
		if err != nil && session.IsFatal(err) {
			c.logger.Warn("Dropping connection",
				zap.Int("player_id", c.playerID),
				zap.String("line", line),
				zap.Error(err),
			)
			return
		}
	}
}

// writePump drains the outbox to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case line, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteLine(line); err != nil {
				c.logger.Warn("Write error", zap.Int("player_id", c.playerID), zap.Error(err))
				c.close()
				return
			}

		case <-ticker.C:
			if err := c.conn.Ping(); err != nil {
				c.logger.Warn("Ping error", zap.Int("player_id", c.playerID), zap.Error(err))
				c.close()
				return
			}
		}
	}
}
