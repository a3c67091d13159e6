// Package transport provides the delivery substrate between a node and
// the coordinating runtime.
//
// The node core treats the transport as opaque: a Conn carries tagged
// frames in both directions and guarantees FIFO ordering per direction.
// Two implementations are provided: a WebSocket connection to a remote
// runtime daemon, and an in-process pipe used by tests and examples
// together with the simulated Runtime.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/driftlab/driftnode/pkg/driftnode/buffer"
)

// Sentinel errors for transport operations.
var (
	// ErrConnClosed indicates the connection was closed locally.
	ErrConnClosed = errors.New("transport: connection closed")

	// ErrUnknownScheme indicates no dialer is registered for the URL scheme.
	ErrUnknownScheme = errors.New("transport: unknown scheme")
)

// Kind identifies the purpose of a frame.
type Kind uint8

// Frame kinds exchanged between node and runtime.
const (
	// KindHello announces the node to the runtime after dialing.
	KindHello Kind = iota + 1

	// KindInput delivers a typed payload for one of the node's inputs.
	KindInput

	// KindInputClosed signals that an input will produce no further data.
	KindInputClosed

	// KindStop signals that the node should terminate its event loop.
	KindStop

	// KindOutput publishes a typed payload on one of the node's outputs.
	KindOutput

	// KindError carries a non-fatal diagnostic from the runtime.
	KindError
)

// String returns the wire name of the frame kind.
func (k Kind) String() string {
	switch k {
	case KindHello:
		return "hello"
	case KindInput:
		return "input"
	case KindInputClosed:
		return "input_closed"
	case KindStop:
		return "stop"
	case KindOutput:
		return "output"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Frame is the unit of exchange on a Conn.
//
// Data is owned by the receiver once Recv returns; buffered frames are
// never shared between frames or reused by the connection.
type Frame struct {
	Kind Kind

	// ID is the input or output channel name for data frames.
	ID string

	// Type tags the element encoding of Data.
	Type buffer.ElementType

	// Data is the payload in native element layout, 8-byte aligned.
	Data []byte

	// Message carries the diagnostic text of KindError frames.
	Message string

	// Node, Dataflow, and Token identify the node on KindHello frames.
	Node     string
	Dataflow string
	Token    string
}

// Conn is a bidirectional, FIFO-ordered frame connection.
//
// Recv returns io.EOF when the peer shut the connection down in an
// orderly fashion and all buffered frames have been consumed. Conn
// implementations are safe for one concurrent receiver and one
// concurrent sender.
type Conn interface {
	// Recv blocks until a frame arrives, the context is cancelled, or
	// the connection fails.
	Recv(ctx context.Context) (*Frame, error)

	// Send delivers a frame to the peer. The frame's Data is read
	// synchronously during the call and may be reused afterwards.
	Send(ctx context.Context, f *Frame) error

	// Close shuts the connection down. Safe to call more than once.
	Close() error
}

// Options carries node identity for dialing.
type Options struct {
	NodeID     string
	DataflowID string
	Token      string

	// Pool supplies payload buffers for received frames. A nil pool
	// allocates fresh buffers on every frame.
	Pool *Pool
}

// DialFunc establishes a Conn to the runtime at rawURL.
type DialFunc func(ctx context.Context, rawURL string, opts Options) (Conn, error)

var (
	dialersMu sync.RWMutex
	dialers   = make(map[string]DialFunc)
)

// Register installs a dialer for a URL scheme. Later registrations for
// the same scheme replace earlier ones.
func Register(scheme string, dial DialFunc) {
	dialersMu.Lock()
	defer dialersMu.Unlock()
	dialers[scheme] = dial
}

// Dial connects to the runtime at rawURL using the dialer registered
// for its scheme.
func Dial(ctx context.Context, rawURL string, opts Options) (Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("transport: parse url %q: %w", rawURL, err)
	}
	dialersMu.RLock()
	dial, ok := dialers[u.Scheme]
	dialersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, u.Scheme)
	}
	return dial(ctx, rawURL, opts)
}

// Pool recycles payload buffers between event release and frame decode.
// Buffers are 8-byte aligned so typed views can reinterpret them in
// place.
type Pool struct {
	p sync.Pool
}

// NewPool creates an empty buffer pool.
func NewPool() *Pool {
	return &Pool{}
}

// Get returns a length-n buffer, reusing a pooled one when large
// enough. Contents are unspecified; callers overwrite the full length.
func (bp *Pool) Get(n int) []byte {
	if bp == nil {
		return buffer.Aligned(n)
	}
	if v := bp.p.Get(); v != nil {
		if b, ok := v.([]byte); ok && cap(b) >= n {
			return b[:n]
		}
	}
	return buffer.Aligned(n)
}

// Put returns a buffer to the pool for reuse.
func (bp *Pool) Put(b []byte) {
	if bp == nil || cap(b) == 0 {
		return
	}
	bp.p.Put(b[:0])
}
