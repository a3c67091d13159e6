package transport

import (
	"context"
	"io"
	"sync"
)

// Pipe creates a connected pair of in-process conns with the given
// buffer depth per direction. The first conn is the node side, the
// second the runtime side.
//
// Frames buffered before a peer closes remain readable; once drained,
// Recv returns io.EOF.
func Pipe(depth int) (Conn, Conn) {
	if depth <= 0 {
		depth = 16
	}
	aToB := make(chan *Frame, depth)
	bToA := make(chan *Frame, depth)
	a := &pipeConn{send: aToB, recv: bToA, closed: make(chan struct{})}
	b := &pipeConn{send: bToA, recv: aToB, closed: make(chan struct{})}
	a.peerClosed = b.closed
	b.peerClosed = a.closed
	return a, b
}

type pipeConn struct {
	send chan<- *Frame
	recv <-chan *Frame

	closed     chan struct{}
	peerClosed chan struct{}
	closeOnce  sync.Once
}

// Recv returns the next buffered frame. Frames already in flight are
// drained before a peer closure surfaces as io.EOF.
func (c *pipeConn) Recv(ctx context.Context) (*Frame, error) {
	// Drain buffered frames before reporting closure.
	select {
	case f := <-c.recv:
		return f, nil
	default:
	}
	select {
	case f := <-c.recv:
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, ErrConnClosed
	case <-c.peerClosed:
		select {
		case f := <-c.recv:
			return f, nil
		default:
			return nil, io.EOF
		}
	}
}

// Send enqueues a frame for the peer, blocking while the buffer is
// full. This is where the pipe applies backpressure.
func (c *pipeConn) Send(ctx context.Context, f *Frame) error {
	select {
	case <-c.closed:
		return ErrConnClosed
	case <-c.peerClosed:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.closed:
		return ErrConnClosed
	case <-c.peerClosed:
		return ErrConnClosed
	}
}

// Close marks this side closed. The peer drains buffered frames and
// then sees io.EOF.
func (c *pipeConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	return nil
}
