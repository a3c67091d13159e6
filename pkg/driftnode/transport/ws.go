package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"
)

const (
	// wsReadLimit bounds a single inbound message. Payloads are flat
	// primitive arrays; 64 MiB covers large image or point-cloud inputs.
	wsReadLimit = 64 * 1024 * 1024

	wsDialMaxElapsed  = 30 * time.Second
	wsMaxDialInterval = 5 * time.Second
)

func init() {
	Register("ws", DialWebSocket)
	Register("wss", DialWebSocket)
}

// DialWebSocket connects to a runtime daemon over WebSocket, retrying
// transient dial failures with exponential backoff, and performs the
// hello handshake before returning.
func DialWebSocket(ctx context.Context, rawURL string, opts Options) (Conn, error) {
	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.MaxInterval = wsMaxDialInterval

	deadline := time.Now().Add(wsDialMaxElapsed)
	var conn *websocket.Conn
	for {
		var err error
		conn, _, err = websocket.Dial(ctx, rawURL, nil)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("transport: dial %s: %w", rawURL, ctx.Err())
		}
		sleep := backoffCfg.NextBackOff()
		if sleep == backoff.Stop {
			sleep = wsMaxDialInterval
		}
		if time.Now().Add(sleep).After(deadline) {
			return nil, fmt.Errorf("transport: dial %s: %w", rawURL, err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transport: dial %s: %w", rawURL, ctx.Err())
		case <-time.After(sleep):
		}
	}
	conn.SetReadLimit(wsReadLimit)

	c := &wsConn{conn: conn, pool: opts.Pool}
	hello := &Frame{
		Kind:     KindHello,
		Node:     opts.NodeID,
		Dataflow: opts.DataflowID,
		Token:    opts.Token,
	}
	if err := c.Send(ctx, hello); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("transport: hello: %w", err)
	}
	return c, nil
}

// wsConn adapts a WebSocket connection to the Conn interface. Frames
// travel as single binary messages.
type wsConn struct {
	conn *websocket.Conn
	pool *Pool
}

// Recv reads the next binary message and decodes it into a frame.
func (c *wsConn) Recv(ctx context.Context) (*Frame, error) {
	for {
		typ, msg, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil, io.EOF
			}
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, err
		}
		if typ != websocket.MessageBinary {
			continue
		}
		return DecodeFrame(msg, c.pool)
	}
}

// Send encodes the frame and writes it as one binary message.
func (c *wsConn) Send(ctx context.Context, f *Frame) error {
	msg, err := EncodeFrame(f)
	if err != nil {
		return err
	}
	return c.conn.Write(ctx, websocket.MessageBinary, msg)
}

// Close performs a normal WebSocket closure.
func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
