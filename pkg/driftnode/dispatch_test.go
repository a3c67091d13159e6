package driftnode_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlab/driftnode/pkg/driftnode"
	"github.com/driftlab/driftnode/pkg/driftnode/buffer"
	"github.com/driftlab/driftnode/pkg/driftnode/config"
	"github.com/driftlab/driftnode/pkg/driftnode/transport"
)

// TestSendOutputRoundTrip verifies a dispatched int32 payload arrives
// downstream with element count 3, not byte count 12.
func TestSendOutputRoundTrip(t *testing.T) {
	ctx := context.Background()
	rt := transport.NewRuntime(transport.RuntimeConfig{Queue: 16})
	defer rt.Close()

	node := newTestNode(t, rt)
	defer node.Close()

	downstream := rt.Subscribe("x", 2)

	require.NoError(t, node.SendOutputInt32(ctx, "x", []int32{1, 2, 3}))

	select {
	case out := <-downstream:
		assert.Equal(t, "x", out.ID)
		v, err := out.View()
		require.NoError(t, err)
		assert.Equal(t, 3, v.Len())
		got, ok := v.Int32s()
		require.True(t, ok)
		assert.Equal(t, []int32{1, 2, 3}, got)
	case <-time.After(time.Second):
		t.Fatal("downstream never observed the output")
	}
}

// TestSendOutputCallerBufferReusable verifies no aliasing persists
// past the call: mutating the caller's slice after SendOutput must not
// change what downstream observes.
func TestSendOutputCallerBufferReusable(t *testing.T) {
	ctx := context.Background()
	rt := transport.NewRuntime(transport.RuntimeConfig{Queue: 16})
	defer rt.Close()

	node := newTestNode(t, rt)
	defer node.Close()

	downstream := rt.Subscribe("x", 2)

	data := []float32{1, 2}
	require.NoError(t, node.SendOutputFloat32(ctx, "x", data))
	data[0] = 99

	out := <-downstream
	v, err := out.View()
	require.NoError(t, err)
	got, ok := v.Float32s()
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2}, got)
}

func TestSendOutputAllElementTypes(t *testing.T) {
	ctx := context.Background()
	rt := transport.NewRuntime(transport.RuntimeConfig{Queue: 16})
	defer rt.Close()

	node := newTestNode(t, rt)
	defer node.Close()

	downstream := rt.Subscribe("out", 8)

	require.NoError(t, node.SendOutputRaw(ctx, "out", []byte{9}))
	require.NoError(t, node.SendOutputUint8(ctx, "out", []uint8{8}))
	require.NoError(t, node.SendOutputInt32(ctx, "out", []int32{-7}))
	require.NoError(t, node.SendOutputFloat32(ctx, "out", []float32{6.5}))
	require.NoError(t, node.SendOutputUint64(ctx, "out", []uint64{5}))

	want := []buffer.ElementType{buffer.Raw, buffer.Uint8, buffer.Int32, buffer.Float32, buffer.Uint64}
	for _, typ := range want {
		select {
		case out := <-downstream:
			assert.Equal(t, typ, out.Type)
			assert.Equal(t, 1, len(out.Data)/typ.ByteWidth())
		case <-time.After(time.Second):
			t.Fatalf("missing %s output", typ)
		}
	}
}

// TestSendOutputAfterClose verifies dispatch on a closed node returns
// an error without crashing.
func TestSendOutputAfterClose(t *testing.T) {
	ctx := context.Background()
	rt := transport.NewRuntime(transport.RuntimeConfig{Queue: 16})
	defer rt.Close()

	node := newTestNode(t, rt)
	require.NoError(t, node.Close())

	err := node.SendOutputFloat32(ctx, "x", []float32{1})
	require.Error(t, err)
	assert.ErrorIs(t, err, driftnode.ErrNodeClosed)

	var derr *driftnode.DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "x", derr.OutputID)
}

// TestSendOutputClosedConnection verifies dispatch over a dead
// transport surfaces a DispatchError rather than a panic.
func TestSendOutputClosedConnection(t *testing.T) {
	ctx := context.Background()
	rt := transport.NewRuntime(transport.RuntimeConfig{Queue: 16})

	node := newTestNode(t, rt)
	defer node.Close()

	require.NoError(t, rt.Close())

	err := node.SendOutputInt32(ctx, "x", []int32{1})
	require.Error(t, err)
	var derr *driftnode.DispatchError
	assert.ErrorAs(t, err, &derr)
}

// TestSendOutputUndeclaredID verifies ids outside the declared output
// set are rejected locally.
func TestSendOutputUndeclaredID(t *testing.T) {
	ctx := context.Background()
	rt := transport.NewRuntime(transport.RuntimeConfig{Queue: 16})
	defer rt.Close()

	desc := config.Descriptor{
		NodeID:     "test-node",
		RuntimeURL: "inproc://runtime",
		Outputs:    []string{"result"},
	}
	node, err := driftnode.New(ctx, desc, driftnode.WithConn(rt.NodeConn()))
	require.NoError(t, err)
	defer node.Close()

	require.NoError(t, node.SendOutputFloat32(ctx, "result", []float32{1}))

	err = node.SendOutputFloat32(ctx, "bogus", []float32{1})
	assert.ErrorIs(t, err, driftnode.ErrIDRejected)
}

// TestSendOutputSizePrecondition verifies the generic entry point
// rejects payloads that are not whole elements.
func TestSendOutputSizePrecondition(t *testing.T) {
	ctx := context.Background()
	rt := transport.NewRuntime(transport.RuntimeConfig{Queue: 16})
	defer rt.Close()

	node := newTestNode(t, rt)
	defer node.Close()

	err := node.SendOutput(ctx, "x", buffer.Int32, []byte{1, 2, 3})
	assert.ErrorIs(t, err, driftnode.ErrPayloadSize)

	require.NoError(t, node.SendOutput(ctx, "x", buffer.Int32, buffer.PackInt32s([]int32{4})))
}

// TestSendOutputRateLimit verifies the optional rate limiter delays
// but does not reject dispatches within its burst.
func TestSendOutputRateLimit(t *testing.T) {
	ctx := context.Background()
	rt := transport.NewRuntime(transport.RuntimeConfig{Queue: 16})
	defer rt.Close()

	node := newTestNode(t, rt, driftnode.WithSendRateLimit(100, 1))
	defer node.Close()

	start := time.Now()
	require.NoError(t, node.SendOutputUint8(ctx, "x", []uint8{1}))
	require.NoError(t, node.SendOutputUint8(ctx, "x", []uint8{2}))
	// Second send waits for a token at 100/s.
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}
