package ws

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
)

// LineConn carries one protocol line per read or write
type LineConn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Ping() error
	Close() error
	RemoteAddr() string
}

// tcpConn frames lines with '\n' over a raw stream
type tcpConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
	writer  *bufio.Writer
	once    sync.Once
}

// NewTCPConn wraps a stream connection
func NewTCPConn(conn net.Conn) LineConn {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), maxMessageSize)
	return &tcpConn{
		conn:    conn,
		scanner: scanner,
		writer:  bufio.NewWriter(conn),
	}
}

func (c *tcpConn) ReadLine() (string, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", net.ErrClosed
	}
	return strings.TrimRight(c.scanner.Text(), "\r"), nil
}

func (c *tcpConn) WriteLine(line string) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if _, err := c.writer.WriteString(line + "\n"); err != nil {
		return err
	}
	return c.writer.Flush()
}

// Ping is a no-op, raw streams have no control frames
func (c *tcpConn) Ping() error { return nil }

func (c *tcpConn) Close() error {
	var err error
	c.once.Do(func() { err = c.conn.Close() })
	return err
}

func (c *tcpConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// wsConn maps one text frame to one line
type wsConn struct {
	conn *websocket.Conn
	once sync.Once
}

// NewWebSocketConn wraps an upgraded websocket connection
func NewWebSocketConn(conn *websocket.Conn) LineConn {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadLine() (string, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if kind != websocket.TextMessage {
			continue
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func (c *wsConn) WriteLine(line string) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *wsConn) Ping() error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		// best effort close frame, the peer may already be gone
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
