package driftnode_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/driftlab/driftnode/pkg/driftnode"
	"github.com/driftlab/driftnode/pkg/driftnode/config"
	"github.com/driftlab/driftnode/pkg/driftnode/transport"
)

// newTestNode wires a node to a simulated runtime, bypassing dialing.
func newTestNode(t *testing.T, rt *transport.Runtime, opts ...driftnode.Option) *driftnode.Node {
	t.Helper()
	desc := config.Descriptor{
		NodeID:     "test-node",
		DataflowID: "test-flow",
		RuntimeURL: "inproc://runtime",
	}
	opts = append([]driftnode.Option{driftnode.WithConn(rt.NodeConn())}, opts...)
	node, err := driftnode.New(context.Background(), desc, opts...)
	require.NoError(t, err)
	return node
}
