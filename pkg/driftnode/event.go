package driftnode

import (
	"fmt"
	"sync/atomic"

	"github.com/driftlab/driftnode/pkg/driftnode/buffer"
	"github.com/driftlab/driftnode/pkg/driftnode/transport"
)

// Kind discriminates event variants.
type Kind uint8

// Event kinds produced by the stream.
const (
	// KindStop is the terminal signal; no further events follow.
	KindStop Kind = iota

	// KindInput carries an input id and a typed data view.
	KindInput

	// KindInputClosed signals that one input produces no further data.
	// It is not terminal for the node as a whole.
	KindInputClosed

	// KindError carries a non-fatal diagnostic message.
	KindError

	// KindUnknown is the forward-compatibility catch-all.
	KindUnknown
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindStop:
		return "stop"
	case KindInput:
		return "input"
	case KindInputClosed:
		return "input_closed"
	case KindError:
		return "error"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Event is one occurrence delivered to the node.
//
// The caller owns the event once Next returns it and must call Release
// exactly once when done. All memory reachable from the event — the
// input id and the data view — is valid only until Release; afterwards
// every derived view reliably reports invalidity instead of returning
// stale data.
type Event struct {
	kind Kind
	id   string
	view *buffer.View
	msg  string

	data  []byte
	pool  *transport.Pool
	alive atomic.Bool
}

// Kind returns the event discriminator.
func (e *Event) Kind() Kind {
	return e.kind
}

// InputID returns the input channel name for Input and InputClosed
// events, and an empty string for every other kind.
func (e *Event) InputID() string {
	if e.kind != KindInput && e.kind != KindInputClosed {
		return ""
	}
	return e.id
}

// Data returns the typed view over the payload of an Input event, or
// nil for every other kind. The view shares the event's backing memory
// and dies with it on Release.
func (e *Event) Data() *buffer.View {
	if e.kind != KindInput {
		return nil
	}
	return e.view
}

// Err returns the diagnostic of an Error event, or nil for every other
// kind.
func (e *Event) Err() error {
	if e.kind != KindError {
		return nil
	}
	return &StreamError{Message: e.msg}
}

// Bytes returns the payload as raw bytes. Shorthand for Data().Bytes().
func (e *Event) Bytes() ([]byte, bool) {
	if v := e.Data(); v != nil {
		return v.Bytes()
	}
	return nil, false
}

// Uint8s returns the payload as uint8 elements.
func (e *Event) Uint8s() ([]uint8, bool) {
	if v := e.Data(); v != nil {
		return v.Uint8s()
	}
	return nil, false
}

// Int32s returns the payload as int32 elements.
func (e *Event) Int32s() ([]int32, bool) {
	if v := e.Data(); v != nil {
		return v.Int32s()
	}
	return nil, false
}

// Float32s returns the payload as float32 elements.
func (e *Event) Float32s() ([]float32, bool) {
	if v := e.Data(); v != nil {
		return v.Float32s()
	}
	return nil, false
}

// Uint64s returns the payload as uint64 elements.
func (e *Event) Uint64s() ([]uint64, bool) {
	if v := e.Data(); v != nil {
		return v.Uint64s()
	}
	return nil, false
}

// Release returns the event's backing buffer to the transport pool and
// invalidates every view derived from the event. Releasing twice is a
// no-op.
func (e *Event) Release() {
	if e == nil || !e.alive.CompareAndSwap(true, false) {
		return
	}
	if e.pool != nil && e.data != nil {
		e.pool.Put(e.data)
	}
	e.data = nil
}
