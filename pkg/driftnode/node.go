package driftnode

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/driftlab/driftnode/pkg/driftnode/config"
	"github.com/driftlab/driftnode/pkg/driftnode/journal"
	"github.com/driftlab/driftnode/pkg/driftnode/observability"
	"github.com/driftlab/driftnode/pkg/driftnode/transport"
)

// Node owns the connection to the coordinating runtime for one
// computation node. It aggregates the single inbound event stream and
// the outbound dispatch path.
//
// At most one Node should be live per process; event streams and
// dispatch calls borrow the Node without taking ownership. Close must
// be the last operation performed on it.
type Node struct {
	id         string
	dataflowID string
	sessionID  string

	conn    transport.Conn
	pool    *transport.Pool
	outputs map[string]struct{}

	logger      *slog.Logger
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	journal     journal.Store
	limiter     *rate.Limiter
	sendTimeout time.Duration

	eventsOnce sync.Once
	events     *EventStream

	closed atomic.Bool
}

// New connects a node to the runtime described by desc.
//
// Returns an error wrapping ErrConnect when the descriptor is
// malformed or the runtime is unreachable.
func New(ctx context.Context, desc config.Descriptor, opts ...Option) (*Node, error) {
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	cfg := defaultNodeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	pool := transport.NewPool()
	conn := cfg.conn
	if conn == nil {
		var err error
		conn, err = transport.Dial(ctx, desc.RuntimeURL, transport.Options{
			NodeID:     desc.NodeID,
			DataflowID: desc.DataflowID,
			Token:      desc.Token,
			Pool:       pool,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnect, err)
		}
	}

	logger := observability.EnrichLogger(cfg.logger, desc.NodeID, desc.DataflowID)
	n := &Node{
		id:          desc.NodeID,
		dataflowID:  desc.DataflowID,
		sessionID:   uuid.New().String(),
		conn:        conn,
		pool:        pool,
		outputs:     make(map[string]struct{}, len(desc.Outputs)),
		logger:      logger,
		metrics:     cfg.metrics,
		spans:       cfg.spans,
		journal:     cfg.journal,
		limiter:     cfg.limiter,
		sendTimeout: cfg.sendTimeout,
	}
	for _, id := range desc.Outputs {
		n.outputs[id] = struct{}{}
	}

	observability.LogNodeStart(logger, n.sessionID, desc.RuntimeURL)
	return n, nil
}

// FromEnv connects a node using the environment variables set by the
// coordinator's bootstrap (see config.FromEnv).
func FromEnv(ctx context.Context, opts ...Option) (*Node, error) {
	desc, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return New(ctx, desc, opts...)
}

// ID returns the node identifier.
func (n *Node) ID() string {
	return n.id
}

// DataflowID returns the dataflow this node belongs to.
func (n *Node) DataflowID() string {
	return n.dataflowID
}

// SessionID returns the unique identifier of this node session.
func (n *Node) SessionID() string {
	return n.sessionID
}

// Events returns the node's inbound event stream. There is exactly one
// stream per node; repeated calls return the same instance.
func (n *Node) Events() *EventStream {
	n.eventsOnce.Do(func() {
		n.events = &EventStream{
			conn:    n.conn,
			pool:    n.pool,
			logger:  n.logger,
			metrics: n.metrics,
			spans:   n.spans,
			journal: n.journal,
			nodeID:  n.id,
		}
	})
	return n.events
}

// Close releases the runtime connection. It must be the last operation
// on the node; dispatch calls after Close fail with ErrNodeClosed.
// Closing twice returns ErrNodeClosed without further effect.
func (n *Node) Close() error {
	if !n.closed.CompareAndSwap(false, true) {
		return ErrNodeClosed
	}
	err := n.conn.Close()
	observability.LogNodeClose(n.logger, n.sessionID, err)
	return err
}
