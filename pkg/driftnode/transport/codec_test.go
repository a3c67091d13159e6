package transport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlab/driftnode/pkg/driftnode/buffer"
	"github.com/driftlab/driftnode/pkg/driftnode/transport"
)

func TestFrameCodec(t *testing.T) {
	tests := []struct {
		name  string
		frame transport.Frame
	}{
		{"hello", transport.Frame{
			Kind: transport.KindHello, Node: "camera", Dataflow: "df-1", Token: "secret",
		}},
		{"input with payload", transport.Frame{
			Kind: transport.KindInput, ID: "sensor", Type: buffer.Float32,
			Data: buffer.PackFloat32s([]float32{1.5, -2.5}),
		}},
		{"input closed", transport.Frame{
			Kind: transport.KindInputClosed, ID: "sensor",
		}},
		{"stop", transport.Frame{Kind: transport.KindStop}},
		{"output", transport.Frame{
			Kind: transport.KindOutput, ID: "result", Type: buffer.Int32,
			Data: buffer.PackInt32s([]int32{7}),
		}},
		{"error", transport.Frame{
			Kind: transport.KindError, Message: "daemon unavailable",
		}},
	}

	pool := transport.NewPool()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := transport.EncodeFrame(&tt.frame)
			require.NoError(t, err)

			got, err := transport.DecodeFrame(msg, pool)
			require.NoError(t, err)

			assert.Equal(t, tt.frame.Kind, got.Kind)
			assert.Equal(t, tt.frame.ID, got.ID)
			assert.Equal(t, tt.frame.Type, got.Type)
			assert.Equal(t, tt.frame.Message, got.Message)
			assert.Equal(t, tt.frame.Node, got.Node)
			assert.Equal(t, tt.frame.Dataflow, got.Dataflow)
			assert.Equal(t, tt.frame.Token, got.Token)
			if len(tt.frame.Data) > 0 {
				assert.Equal(t, tt.frame.Data, got.Data)
			} else {
				assert.Empty(t, got.Data)
			}
		})
	}
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		msg  []byte
	}{
		{"empty", nil},
		{"short", []byte{1, 2}},
		{"header length past end", []byte{0xff, 0xff, 0xff, 0x7f, '{', '}'}},
		{"invalid json", []byte{2, 0, 0, 0, 'n', 'o'}},
		{"unknown kind", append([]byte{16, 0, 0, 0}, []byte(`{"kind":"bogus"}`)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transport.DecodeFrame(tt.msg, nil)
			assert.Error(t, err)
		})
	}
}

// TestPoolReuse verifies buffers round-trip through the pool with
// preserved alignment.
func TestPoolReuse(t *testing.T) {
	pool := transport.NewPool()

	b := pool.Get(16)
	require.Len(t, b, 16)
	pool.Put(b)

	b2 := pool.Get(8)
	require.Len(t, b2, 8)

	copy(b2, buffer.PackUint64s([]uint64{42}))
	v, err := buffer.NewView(buffer.Uint64, b2, nil)
	require.NoError(t, err)
	got, ok := v.Uint64s()
	require.True(t, ok)
	assert.Equal(t, []uint64{42}, got)
}
