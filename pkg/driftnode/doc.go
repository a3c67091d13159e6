/*
Package driftnode is the client runtime a computation node uses to
exchange typed data with other nodes through a coordinating dataflow
runtime.

# Overview

A node connects once per process, pulls events from a single blocking
stream, reads typed zero-copy views over input payloads, and publishes
typed outputs that the runtime fans out to downstream subscribers:

	node, err := driftnode.FromEnv(ctx)
	if err != nil {
	    log.Fatal(err)
	}
	defer node.Close()

	events := node.Events()
	for {
	    evt := events.Next(ctx)
	    switch evt.Kind() {
	    case driftnode.KindInput:
	        if vals, ok := evt.Float32s(); ok {
	            sum := float32(0)
	            for _, v := range vals {
	                sum += v
	            }
	            node.SendOutputFloat32(ctx, "result", []float32{sum})
	        }
	    case driftnode.KindStop:
	        evt.Release()
	        return
	    }
	    evt.Release()
	}

# Events and ownership

Next returns exactly one event per call, in transport arrival order.
The caller owns the event and must call Release exactly once; Release
returns the backing buffer to the pool and invalidates every view
derived from the event. Views accessed after Release report invalidity
instead of returning stale data.

Requesting a payload as a type other than its stored element type
yields (nil, false) — a checked reinterpretation, never an unchecked
cast.

# Failure surfaces

Transport faults become data: stream failures surface as Error events
and dispatch failures as DispatchError values. The only hard failure is
construction, which wraps ErrConnect when the runtime is unreachable or
the connection descriptor is malformed.

# Testing

The transport package ships a simulated runtime for exercising nodes
without a daemon:

	rt := transport.NewRuntime(transport.RuntimeConfig{})
	defer rt.Close()
	node, _ := driftnode.New(ctx, desc, driftnode.WithConn(rt.NodeConn()))
*/
package driftnode
