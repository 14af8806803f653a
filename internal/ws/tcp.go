package ws

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"
)

// ListenTCP accepts line-framed player connections on addr until ctx is done
func (h *Hub) ListenTCP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return h.ServeTCP(ctx, ln)
}

// ServeTCP runs the accept loop on an existing listener and closes it on return
func (h *Hub) ServeTCP(ctx context.Context, ln net.Listener) error {
	h.logger.Info("Game listener started", zap.String("addr", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go h.Attach(NewTCPConn(conn))
	}
}
