package driftnode

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/driftlab/driftnode/pkg/driftnode/journal"
	"github.com/driftlab/driftnode/pkg/driftnode/observability"
	"github.com/driftlab/driftnode/pkg/driftnode/transport"
)

// nodeConfig holds construction options for a Node.
type nodeConfig struct {
	logger      *slog.Logger
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager
	journal     journal.Store
	limiter     *rate.Limiter
	sendTimeout time.Duration
	conn        transport.Conn
}

func defaultNodeConfig() nodeConfig {
	return nodeConfig{
		logger:      slog.Default(),
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
		sendTimeout: 5 * time.Second,
	}
}

// Option configures node construction.
type Option func(*nodeConfig)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *nodeConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder. Default: no-op.
//
// Use observability.NewMetricsRecorder() for OpenTelemetry metrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *nodeConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpanManager sets the tracing span manager. Default: no-op.
func WithSpanManager(s observability.SpanManager) Option {
	return func(c *nodeConfig) {
		if s != nil {
			c.spans = s
		}
	}
}

// WithJournal records received events and dispatched outputs to the
// given store. The node never closes the store; the caller owns it.
func WithJournal(store journal.Store) Option {
	return func(c *nodeConfig) {
		c.journal = store
	}
}

// WithSendTimeout bounds how long a dispatch call may block on
// backpressure before failing. Zero disables the bound.
// Default: 5s.
func WithSendTimeout(d time.Duration) Option {
	return func(c *nodeConfig) {
		if d >= 0 {
			c.sendTimeout = d
		}
	}
}

// WithSendRateLimit throttles dispatch to the given sustained rate and
// burst. Default: unlimited.
func WithSendRateLimit(limit rate.Limit, burst int) Option {
	return func(c *nodeConfig) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithConn uses an already-established transport connection instead of
// dialing the descriptor's runtime URL. Tests pair this with
// transport.NewRuntime.
func WithConn(conn transport.Conn) Option {
	return func(c *nodeConfig) {
		c.conn = conn
	}
}
