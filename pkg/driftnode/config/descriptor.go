package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Environment variables the coordinator's bootstrap sets for a node.
const (
	EnvNodeID     = "DRIFTNODE_NODE_ID"
	EnvDataflowID = "DRIFTNODE_DATAFLOW_ID"
	EnvRuntimeURL = "DRIFTNODE_RUNTIME_URL"
	EnvToken      = "DRIFTNODE_TOKEN"
	EnvOutputs    = "DRIFTNODE_OUTPUTS"
)

// Validation errors for descriptors.
var (
	ErrMissingNodeID     = errors.New("missing node id")
	ErrMissingRuntimeURL = errors.New("missing runtime url")
)

// Descriptor is the connection descriptor a node needs to reach its
// runtime. It is produced by the external bootstrap (environment
// variables or a config file); validation here is shape-only.
type Descriptor struct {
	// NodeID is the node's identity within the dataflow.
	NodeID string

	// DataflowID identifies the dataflow instance, when the
	// coordinator assigns one.
	DataflowID string

	// RuntimeURL locates the runtime daemon (scheme selects the
	// transport, e.g. ws://host:port/node).
	RuntimeURL string

	// Token authenticates the node against the runtime. Optional.
	Token string

	// Outputs is the node's declared output set. When non-empty,
	// dispatch rejects ids outside it.
	Outputs []string
}

// Validate checks the descriptor's shape.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.NodeID) == "" {
		return ErrMissingNodeID
	}
	if strings.TrimSpace(d.RuntimeURL) == "" {
		return ErrMissingRuntimeURL
	}
	return nil
}

// FromEnv builds a connection descriptor from the environment
// variables set by the coordinator's bootstrap.
func FromEnv() (Descriptor, error) {
	d := Descriptor{
		NodeID:     os.Getenv(EnvNodeID),
		DataflowID: os.Getenv(EnvDataflowID),
		RuntimeURL: os.Getenv(EnvRuntimeURL),
		Token:      os.Getenv(EnvToken),
	}
	if raw := os.Getenv(EnvOutputs); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				d.Outputs = append(d.Outputs, id)
			}
		}
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, fmt.Errorf("bootstrap environment: %w", err)
	}
	return d, nil
}

// DescriptorFrom extracts a descriptor from a loaded Config, for nodes
// bootstrapped from a file instead of the environment.
func DescriptorFrom(cfg Config) Descriptor {
	return Descriptor{
		NodeID:     cfg.String("node_id", ""),
		DataflowID: cfg.String("dataflow_id", ""),
		RuntimeURL: cfg.String("runtime_url", ""),
		Token:      cfg.String("token", ""),
		Outputs:    cfg.StringSlice("outputs", nil),
	}
}
