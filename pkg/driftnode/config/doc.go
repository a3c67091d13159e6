/*
Package config provides node bootstrap configuration: typed extraction
from map[string]any and the connection Descriptor a node needs to
reach its runtime.

# Descriptor

The coordinator's bootstrap hands a node its identity and runtime
address through environment variables:

	desc, err := config.FromEnv()
	if err != nil {
	    log.Fatal(err)
	}

or through a config file:

	cfg, err := config.FromFile("node.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	desc := config.DescriptorFrom(cfg)

Validation is shape-only: a node id and a runtime URL must be present;
whether the runtime accepts them is decided when connecting.

# Typed extraction

Config wraps a map[string]any and provides typed accessor methods that
handle missing keys and type mismatches by returning default values:

	timeout := cfg.Duration("send_timeout", 5*time.Second)
	outputs := cfg.StringSlice("outputs", nil)

Config is safe for concurrent read access; the underlying map is not
modified after creation.
*/
package config
