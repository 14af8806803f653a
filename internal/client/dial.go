package client

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"

	"github.com/playrummy/backend/internal/protocol"
)

// Handler consumes server messages
type Handler interface {
	Serve(op protocol.ServerOp, tokens []string) error
}

// Conn is a line-framed TCP connection to a game server. It implements
// Outbound.
type Conn struct {
	conn net.Conn

	mu     sync.Mutex
	writer *bufio.Writer
}

// Dial connects to a game server
func Dial(ctx context.Context, addr string) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}

// NewConn wraps an established connection
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn, writer: bufio.NewWriter(conn)}
}

// Send writes one message line
func (c *Conn) Send(op protocol.ClientOp, tokens []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.writer.WriteString(protocol.EncodeLine(op, tokens) + "\n"); err != nil {
		return err
	}
	return c.writer.Flush()
}

// Run reads server lines into h until the connection closes, ctx is done
// or h fails. A clean close by the server returns nil.
func (c *Conn) Run(ctx context.Context, h Handler) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		op, tokens, err := protocol.ParseServerLine(line)
		if err != nil {
			return err
		}
		if err := h.Serve(op, tokens); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}

// Close closes the connection
func (c *Conn) Close() error {
	return c.conn.Close()
}
