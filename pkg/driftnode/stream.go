package driftnode

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/driftlab/driftnode/pkg/driftnode/buffer"
	"github.com/driftlab/driftnode/pkg/driftnode/journal"
	"github.com/driftlab/driftnode/pkg/driftnode/observability"
	"github.com/driftlab/driftnode/pkg/driftnode/transport"
)

// EventStream is the node's single inbound event queue.
//
// It is designed for one logical consumer: Next pulls events strictly
// in transport arrival order, interleaved across all subscribed inputs
// by arrival time. Callers needing concurrent pulls must serialize
// them.
type EventStream struct {
	conn    transport.Conn
	pool    *transport.Pool
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	journal journal.Store
	nodeID  string

	// stopped latches once a stop is produced; this is the terminal
	// state of the stream. Only the single consumer touches it.
	stopped bool
}

// Next blocks until an event is available, the stream ends, or the
// connection fails. It always returns an event: transport faults become
// Error events and orderly stream exhaustion becomes a Stop event, so
// callers see data rather than crashes.
//
// Once a Stop has been produced the stream is terminal: every further
// call returns Stop and no Input event follows.
func (s *EventStream) Next(ctx context.Context) *Event {
	if s.stopped {
		return s.newEvent(KindStop, "", "")
	}

	wait := time.Now()
	ctx, span := s.spans.StartReceiveSpan(ctx)
	f, err := s.conn.Recv(ctx)
	if err != nil {
		evt := s.eventForRecvError(err)
		s.spans.EndSpanWithError(span, err)
		s.record(evt, 0)
		return evt
	}

	evt := s.eventForFrame(f)
	s.metrics.RecordEventReceived(ctx, evt.kind.String(), time.Since(wait))
	s.spans.EndSpanWithError(span, nil)
	elements := 0
	if v := evt.Data(); v != nil {
		elements = v.Len()
	}
	observability.LogEventReceived(s.logger, evt.kind.String(), evt.id, elements)
	s.record(evt, elements)
	return evt
}

// eventForRecvError maps a transport receive failure to an event.
// Orderly closure means exhaustion and turns into Stop; everything
// else surfaces as a recoverable Error event.
func (s *EventStream) eventForRecvError(err error) *Event {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, transport.ErrConnClosed):
		s.stopped = true
		observability.LogStreamEnd(s.logger)
		return s.newEvent(KindStop, "", "")
	default:
		s.metrics.RecordStreamError(context.Background())
		observability.LogStreamError(s.logger, err)
		return s.newEvent(KindError, "", err.Error())
	}
}

// eventForFrame decodes one frame into an owned event.
func (s *EventStream) eventForFrame(f *transport.Frame) *Event {
	switch f.Kind {
	case transport.KindInput:
		evt := s.newEvent(KindInput, f.ID, "")
		evt.data = f.Data
		evt.pool = s.pool
		view, err := buffer.NewView(f.Type, f.Data, &evt.alive)
		if err != nil {
			// Malformed payload: surface as a diagnostic, not a crash.
			evt.Release()
			return s.newEvent(KindError, "", err.Error())
		}
		evt.view = view
		return evt
	case transport.KindInputClosed:
		return s.newEvent(KindInputClosed, f.ID, "")
	case transport.KindStop:
		s.stopped = true
		return s.newEvent(KindStop, "", "")
	case transport.KindError:
		return s.newEvent(KindError, "", f.Message)
	default:
		return s.newEvent(KindUnknown, "", "")
	}
}

func (s *EventStream) newEvent(kind Kind, id, msg string) *Event {
	evt := &Event{kind: kind, id: id, msg: msg}
	evt.alive.Store(true)
	return evt
}

// record appends the event to the journal when one is configured.
// Journal failures are logged and otherwise ignored; they never block
// the event path.
func (s *EventStream) record(evt *Event, elements int) {
	if s.journal == nil {
		return
	}
	rec := journal.Record{
		NodeID:    s.nodeID,
		Direction: journal.DirectionRecv,
		Kind:      evt.kind.String(),
		ChannelID: evt.id,
		Elements:  elements,
		At:        time.Now().UTC(),
	}
	if v := evt.Data(); v != nil {
		rec.ElementType = v.Type().String()
	}
	if err := s.journal.Append(rec); err != nil {
		observability.LogJournalError(s.logger, "append", err)
	}
}
