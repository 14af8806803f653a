package ws

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playrummy/backend/internal/protocol"
	"github.com/playrummy/backend/internal/session"
)

type fakeConn struct {
	closed bool
}

func (f *fakeConn) ReadLine() (string, error)   { return "", errors.New("not readable") }
func (f *fakeConn) WriteLine(line string) error { return nil }
func (f *fakeConn) Ping() error                 { return nil }
func (f *fakeConn) Close() error                { f.closed = true; return nil }
func (f *fakeConn) RemoteAddr() string          { return "fake" }

func TestClientOutboxOverflowCloses(t *testing.T) {
	h := NewHub(nil, 1, nil)
	c := newClient(h, &fakeConn{})

	require.NoError(t, c.Send(protocol.Welcome, []string{"1"}))
	assert.ErrorIs(t, c.Send(protocol.Block, nil), ErrOutboxFull)
	assert.ErrorIs(t, c.Send(protocol.TurnStart, nil), ErrClientClosed)

	// the queued message is still delivered before the channel reports closed
	line, ok := <-c.send
	assert.True(t, ok)
	assert.Equal(t, "0 1", line)
	_, ok = <-c.send
	assert.False(t, ok)
}

type player struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, addr net.Addr) *player {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &player{conn: conn, reader: bufio.NewReader(conn)}
}

func (p *player) read(t *testing.T) string {
	t.Helper()
	p.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := p.reader.ReadString('\n')
	require.NoError(t, err)
	return strings.TrimRight(line, "\n")
}

func (p *player) write(t *testing.T, line string) {
	t.Helper()
	_, err := fmt.Fprintf(p.conn, "%s\n", line)
	require.NoError(t, err)
}

func (p *player) expectClosed(t *testing.T) {
	t.Helper()
	p.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, err := p.reader.ReadString('\n')
		if err != nil {
			var ne net.Error
			require.False(t, errors.As(err, &ne) && ne.Timeout(), "connection was not closed")
			return
		}
	}
}

func startServer(t *testing.T) (*session.Session, *Hub, net.Addr) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sess := session.NewWithRand(session.DefaultConfig(), rand.New(rand.NewSource(3)), nil, nil)
	hub := NewHub(sess, 256, nil)
	go hub.Run(ctx)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go hub.ServeTCP(ctx, ln)

	return sess, hub, ln.Addr()
}

func TestTCPSessionFlow(t *testing.T) {
	sess, hub, addr := startServer(t)

	p1 := dial(t, addr)
	assert.Equal(t, "0 1", p1.read(t))
	p2 := dial(t, addr)
	assert.Equal(t, "0 2", p2.read(t))

	extra := dial(t, addr)
	extra.expectClosed(t)

	p1.write(t, "2 1")
	p2.write(t, "2 2")

	hand := p1.read(t)
	assert.True(t, strings.HasPrefix(hand, "4 10 "), hand)
	assert.True(t, strings.HasPrefix(p2.read(t), "4 10 "))
	assert.Equal(t, "3", p2.read(t))
	assert.True(t, strings.HasPrefix(p1.read(t), "4 1 "))
	assert.Equal(t, "1", p1.read(t))

	// an illegal play is rejected without dropping the player
	p1.write(t, "0 3 3 0 1 0 2 0")
	p1.write(t, "5 2 3")
	assert.Equal(t, "6 2 3", p1.read(t))
	assert.Equal(t, "6 2 3", p2.read(t))

	// an unknown opcode is fatal for that connection only
	p2.write(t, "9")
	p2.expectClosed(t)

	assert.Eventually(t, func() bool { return hub.Count() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, sess.Snapshot().ConnectedCount)

	p1.write(t, "5 0 0")
	assert.Equal(t, "6 0 0", p1.read(t))
}

func TestHubStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sess := session.New(session.DefaultConfig(), nil, nil)
	hub := NewHub(sess, 8, nil)

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("hub did not stop")
	}

	// attaching after shutdown closes the connection instead of blocking
	fc := &fakeConn{}
	hub.Attach(fc)
	assert.True(t, fc.closed)
}
