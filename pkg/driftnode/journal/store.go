// Package journal provides a local, queryable record of the events a
// node received and the outputs it dispatched.
//
// The journal stores traffic metadata only (channel id, element type,
// element count, timestamps), never payload bytes. It backs the
// coordinator's per-node log facility and post-mortem debugging of
// dataflow runs.
package journal

import (
	"errors"
	"time"
)

// Direction tells whether a record describes inbound or outbound
// traffic.
type Direction string

// Record directions.
const (
	DirectionRecv Direction = "recv"
	DirectionSend Direction = "send"
)

// Record is one journaled occurrence.
type Record struct {
	// Seq is the store-assigned sequence number, strictly increasing
	// per store.
	Seq int64

	// NodeID is the node the record belongs to.
	NodeID string

	// Direction is recv for events, send for outputs.
	Direction Direction

	// Kind is the event kind for recv records and "output" for send
	// records.
	Kind string

	// ChannelID is the input or output id, when the record has one.
	ChannelID string

	// ElementType is the payload element type name, when the record
	// carries data.
	ElementType string

	// Elements is the payload element count.
	Elements int

	// At is the record timestamp in UTC.
	At time.Time
}

// Store persists journal records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append adds a record, assigning its sequence number.
	Append(rec Record) error

	// List returns all records for a node in sequence order.
	// Returns an empty slice (not an error) for an unknown node.
	List(nodeID string) ([]Record, error)

	// Tail returns the most recent n records for a node in sequence
	// order.
	Tail(nodeID string, n int) ([]Record, error)

	// DeleteNode removes all records for a node.
	// Returns nil when the node has no records.
	DeleteNode(nodeID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for journal operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")
)
