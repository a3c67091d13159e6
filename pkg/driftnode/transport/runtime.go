package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/driftlab/driftnode/pkg/driftnode/buffer"
)

// RuntimeConfig configures the simulated runtime.
type RuntimeConfig struct {
	// Queue is the frame buffer depth per pipe direction and the
	// default subscriber buffer. Default: 16.
	Queue int

	// DropWhenFull makes output delivery non-blocking: outputs to a
	// full subscriber buffer are dropped instead of applying
	// backpressure.
	DropWhenFull bool

	// OnDrop is called when an output is dropped (DropWhenFull mode).
	OnDrop func(outputID string)
}

// Output is a payload observed by a downstream subscriber.
type Output struct {
	ID   string
	Type buffer.ElementType
	Data []byte
}

// View returns a typed view over the output payload. The view is
// permanently valid; the runtime hands each subscriber its own copy of
// the delivery.
func (o Output) View() (*buffer.View, error) {
	return buffer.NewView(o.Type, o.Data, nil)
}

// Runtime simulates the coordinating daemon over an in-process pipe.
// It feeds inputs to the node, signals input closure and stop, and
// fans published outputs out to downstream subscribers.
//
// Runtime exists for tests and examples; a production node talks to
// the real daemon over the WebSocket transport instead.
type Runtime struct {
	cfg      RuntimeConfig
	nodeSide Conn
	conn     Conn

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mu        sync.Mutex
	subs      map[string][]chan Output
	open      map[string]bool
	declared  bool
	stopped   bool
	helloNode string
}

// NewRuntime creates a simulated runtime and starts serving its side
// of the pipe.
func NewRuntime(cfg RuntimeConfig) *Runtime {
	if cfg.Queue <= 0 {
		cfg.Queue = 16
	}
	nodeSide, runtimeSide := Pipe(cfg.Queue)
	ctx, cancel := context.WithCancel(context.Background())
	rt := &Runtime{
		cfg:      cfg,
		nodeSide: nodeSide,
		conn:     runtimeSide,
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[string][]chan Output),
		open:     make(map[string]bool),
	}
	rt.wg.Go(rt.serve)
	return rt
}

// NodeConn returns the node side of the pipe, for wiring a Node to
// this runtime.
func (rt *Runtime) NodeConn() Conn {
	return rt.nodeSide
}

// HelloNode returns the node id announced by the hello handshake, or
// empty if none arrived yet.
func (rt *Runtime) HelloNode() string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.helloNode
}

// DeclareInputs registers the node's input set. Once every declared
// input is closed, the runtime signals stop on its own, modeling
// stream exhaustion.
func (rt *Runtime) DeclareInputs(ids ...string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.declared = true
	for _, id := range ids {
		rt.open[id] = true
	}
}

// SendInput delivers a typed payload on the given input channel.
func (rt *Runtime) SendInput(id string, typ buffer.ElementType, data []byte) error {
	if typ.Valid() && len(data)%typ.ByteWidth() != 0 {
		return fmt.Errorf("runtime: payload length %d not a multiple of %s width", len(data), typ)
	}
	return rt.conn.Send(rt.ctx, &Frame{Kind: KindInput, ID: id, Type: typ, Data: buffer.PackRaw(data)})
}

// SendInputRaw delivers a raw byte payload.
func (rt *Runtime) SendInputRaw(id string, data []byte) error {
	return rt.SendInput(id, buffer.Raw, data)
}

// SendInputUint8 delivers a uint8 payload.
func (rt *Runtime) SendInputUint8(id string, data []uint8) error {
	return rt.conn.Send(rt.ctx, &Frame{Kind: KindInput, ID: id, Type: buffer.Uint8, Data: buffer.PackUint8s(data)})
}

// SendInputInt32 delivers an int32 payload.
func (rt *Runtime) SendInputInt32(id string, data []int32) error {
	return rt.conn.Send(rt.ctx, &Frame{Kind: KindInput, ID: id, Type: buffer.Int32, Data: buffer.PackInt32s(data)})
}

// SendInputFloat32 delivers a float32 payload.
func (rt *Runtime) SendInputFloat32(id string, data []float32) error {
	return rt.conn.Send(rt.ctx, &Frame{Kind: KindInput, ID: id, Type: buffer.Float32, Data: buffer.PackFloat32s(data)})
}

// SendInputUint64 delivers a uint64 payload.
func (rt *Runtime) SendInputUint64(id string, data []uint64) error {
	return rt.conn.Send(rt.ctx, &Frame{Kind: KindInput, ID: id, Type: buffer.Uint64, Data: buffer.PackUint64s(data)})
}

// CloseInput signals that an input will produce no further data. When
// all declared inputs are closed, a stop follows automatically.
func (rt *Runtime) CloseInput(id string) error {
	if err := rt.conn.Send(rt.ctx, &Frame{Kind: KindInputClosed, ID: id}); err != nil {
		return err
	}
	rt.mu.Lock()
	delete(rt.open, id)
	exhausted := rt.declared && len(rt.open) == 0 && !rt.stopped
	if exhausted {
		rt.stopped = true
	}
	rt.mu.Unlock()
	if exhausted {
		return rt.conn.Send(rt.ctx, &Frame{Kind: KindStop})
	}
	return nil
}

// Stop signals the node to terminate its event loop.
func (rt *Runtime) Stop() error {
	rt.mu.Lock()
	if rt.stopped {
		rt.mu.Unlock()
		return nil
	}
	rt.stopped = true
	rt.mu.Unlock()
	return rt.conn.Send(rt.ctx, &Frame{Kind: KindStop})
}

// SendError delivers a non-fatal diagnostic to the node.
func (rt *Runtime) SendError(msg string) error {
	return rt.conn.Send(rt.ctx, &Frame{Kind: KindError, Message: msg})
}

// Subscribe registers a downstream subscriber for an output id and
// returns its delivery channel. A depth of zero uses the configured
// queue depth. The channel closes when the runtime shuts down.
func (rt *Runtime) Subscribe(outputID string, depth int) <-chan Output {
	if depth <= 0 {
		depth = rt.cfg.Queue
	}
	ch := make(chan Output, depth)
	rt.mu.Lock()
	rt.subs[outputID] = append(rt.subs[outputID], ch)
	rt.mu.Unlock()
	return ch
}

// serve consumes frames published by the node and routes them.
func (rt *Runtime) serve() {
	defer rt.closeSubs()
	for {
		f, err := rt.conn.Recv(rt.ctx)
		if err != nil {
			return
		}
		switch f.Kind {
		case KindHello:
			rt.mu.Lock()
			rt.helloNode = f.Node
			rt.mu.Unlock()
		case KindOutput:
			rt.dispatch(f)
		}
	}
}

// dispatch fans one output out to every subscriber of its id. Each
// subscriber gets its own payload copy so deliveries never alias.
func (rt *Runtime) dispatch(f *Frame) {
	rt.mu.Lock()
	subs := append([]chan Output(nil), rt.subs[f.ID]...)
	rt.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	var wg conc.WaitGroup
	for _, ch := range subs {
		ch := ch
		wg.Go(func() {
			data := buffer.PackRaw(f.Data)
			out := Output{ID: f.ID, Type: f.Type, Data: data}
			if rt.cfg.DropWhenFull {
				select {
				case ch <- out:
				default:
					if rt.cfg.OnDrop != nil {
						rt.cfg.OnDrop(f.ID)
					}
				}
				return
			}
			select {
			case ch <- out:
			case <-rt.ctx.Done():
			}
		})
	}
	wg.Wait()
}

func (rt *Runtime) closeSubs() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for _, chans := range rt.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	rt.subs = make(map[string][]chan Output)
}

// Close shuts the runtime down: the node side observes orderly closure
// and subscriber channels are closed.
func (rt *Runtime) Close() error {
	err := rt.conn.Close()
	rt.cancel()
	rt.wg.Wait()
	return err
}
