package driftnode

import (
	"errors"
	"fmt"
)

// Sentinel errors for node lifecycle and dispatch.
var (
	// ErrConnect indicates the runtime is unreachable or the connection
	// descriptor is malformed. Fatal to node construction.
	ErrConnect = errors.New("cannot connect to runtime")

	// ErrNodeClosed indicates an operation on a closed node.
	ErrNodeClosed = errors.New("node closed")

	// ErrIDRejected indicates an output id outside the node's declared
	// output set.
	ErrIDRejected = errors.New("output id not declared for node")

	// ErrPayloadSize indicates a payload whose byte length is not a
	// multiple of the element width.
	ErrPayloadSize = errors.New("payload size is not a multiple of element width")
)

// DispatchError wraps a failed output send with its channel context.
// The node decides whether to retry, drop, or escalate; no automatic
// retry happens here.
type DispatchError struct {
	// OutputID is the output channel the send targeted.
	OutputID string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("send output %s: %v", e.OutputID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// StreamError is the diagnostic carried by an Error event. It is
// non-fatal: the event stream keeps producing after surfacing one.
type StreamError struct {
	// Message is the diagnostic text reported by the runtime or the
	// transport.
	Message string
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	return e.Message
}
