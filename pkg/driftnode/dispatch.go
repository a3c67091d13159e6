package driftnode

import (
	"context"
	"time"

	"github.com/driftlab/driftnode/pkg/driftnode/buffer"
	"github.com/driftlab/driftnode/pkg/driftnode/journal"
	"github.com/driftlab/driftnode/pkg/driftnode/observability"
	"github.com/driftlab/driftnode/pkg/driftnode/transport"
)

// SendOutput publishes a payload of the given element type on an
// output channel. The runtime delivers it to every downstream
// subscriber of the id.
//
// The payload is read synchronously during the call; the caller may
// reuse data as soon as SendOutput returns. The byte length must be a
// multiple of the element width.
func (n *Node) SendOutput(ctx context.Context, id string, typ buffer.ElementType, data []byte) error {
	if !typ.Valid() || len(data)%typ.ByteWidth() != 0 {
		return &DispatchError{OutputID: id, Err: ErrPayloadSize}
	}
	return n.sendOutput(ctx, id, typ, buffer.PackRaw(data), len(data)/typ.ByteWidth())
}

// SendOutputRaw publishes a raw byte payload.
func (n *Node) SendOutputRaw(ctx context.Context, id string, data []byte) error {
	return n.sendOutput(ctx, id, buffer.Raw, buffer.PackRaw(data), len(data))
}

// SendOutputUint8 publishes a uint8 payload.
func (n *Node) SendOutputUint8(ctx context.Context, id string, data []uint8) error {
	return n.sendOutput(ctx, id, buffer.Uint8, buffer.PackUint8s(data), len(data))
}

// SendOutputInt32 publishes an int32 payload.
func (n *Node) SendOutputInt32(ctx context.Context, id string, data []int32) error {
	return n.sendOutput(ctx, id, buffer.Int32, buffer.PackInt32s(data), len(data))
}

// SendOutputFloat32 publishes a float32 payload.
func (n *Node) SendOutputFloat32(ctx context.Context, id string, data []float32) error {
	return n.sendOutput(ctx, id, buffer.Float32, buffer.PackFloat32s(data), len(data))
}

// SendOutputUint64 publishes a uint64 payload.
func (n *Node) SendOutputUint64(ctx context.Context, id string, data []uint64) error {
	return n.sendOutput(ctx, id, buffer.Uint64, buffer.PackUint64s(data), len(data))
}

// sendOutput is the shared dispatch path behind the typed entry
// points. data is already copied into an owned buffer, so handing it
// to the transport never aliases caller memory.
func (n *Node) sendOutput(ctx context.Context, id string, typ buffer.ElementType, data []byte, elements int) error {
	if n.closed.Load() {
		return &DispatchError{OutputID: id, Err: ErrNodeClosed}
	}
	if len(n.outputs) > 0 {
		if _, ok := n.outputs[id]; !ok {
			return &DispatchError{OutputID: id, Err: ErrIDRejected}
		}
	}

	if n.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.sendTimeout)
		defer cancel()
	}

	// Rate limiting is the optional second backpressure layer on top
	// of the transport's bounded buffering.
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return &DispatchError{OutputID: id, Err: err}
		}
	}

	ctx, span := n.spans.StartDispatchSpan(ctx, id)
	start := time.Now()
	err := n.conn.Send(ctx, &transport.Frame{Kind: transport.KindOutput, ID: id, Type: typ, Data: data})
	dur := time.Since(start)
	n.spans.EndSpanWithError(span, err)
	n.metrics.RecordDispatch(ctx, id, len(data), dur, err)

	if err != nil {
		derr := &DispatchError{OutputID: id, Err: err}
		observability.LogDispatchError(n.logger, id, err)
		return derr
	}
	observability.LogDispatch(n.logger, id, elements, dur)
	n.recordSend(id, typ, elements)
	return nil
}

// recordSend journals a dispatched output when a journal is configured.
func (n *Node) recordSend(id string, typ buffer.ElementType, elements int) {
	if n.journal == nil {
		return
	}
	rec := journal.Record{
		NodeID:      n.id,
		Direction:   journal.DirectionSend,
		Kind:        "output",
		ChannelID:   id,
		ElementType: typ.String(),
		Elements:    elements,
		At:          time.Now().UTC(),
	}
	if err := n.journal.Append(rec); err != nil {
		observability.LogJournalError(n.logger, "append", err)
	}
}
