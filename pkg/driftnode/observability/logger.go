// Package observability provides structured logging, metrics, and
// distributed tracing for driftnode.
//
// Logging uses slog from the standard library; metrics and tracing use
// OpenTelemetry. All features are opt-in and have no-op
// implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds node context to a logger.
// Returns a new logger with node_id and dataflow_id fields.
func EnrichLogger(logger *slog.Logger, nodeID, dataflowID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	attrs := []any{slog.String("node_id", nodeID)}
	if dataflowID != "" {
		attrs = append(attrs, slog.String("dataflow_id", dataflowID))
	}
	return logger.With(attrs...)
}

// LogNodeStart logs a node connecting to its runtime.
func LogNodeStart(logger *slog.Logger, sessionID, runtimeURL string) {
	if logger == nil {
		return
	}
	logger.Info("node connected",
		slog.String("session_id", sessionID),
		slog.String("runtime_url", runtimeURL),
	)
}

// LogNodeClose logs node teardown.
func LogNodeClose(logger *slog.Logger, sessionID string, err error) {
	if logger == nil {
		return
	}
	if err != nil {
		logger.Warn("node closed with error",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Info("node closed",
		slog.String("session_id", sessionID),
	)
}

// LogEventReceived logs one event pulled from the stream.
func LogEventReceived(logger *slog.Logger, kind, inputID string, elements int) {
	if logger == nil {
		return
	}
	logger.Debug("event received",
		slog.String("kind", kind),
		slog.String("input_id", inputID),
		slog.Int("elements", elements),
	)
}

// LogStreamEnd logs orderly stream exhaustion.
func LogStreamEnd(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Info("event stream ended")
}

// LogStreamError logs a stream fault surfaced as an Error event.
func LogStreamError(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Error("event stream error",
		slog.String("error", err.Error()),
	)
}

// LogDispatch logs a successful output send.
func LogDispatch(logger *slog.Logger, outputID string, elements int, dur time.Duration) {
	if logger == nil {
		return
	}
	logger.Debug("output dispatched",
		slog.String("output_id", outputID),
		slog.Int("elements", elements),
		slog.Float64("duration_ms", float64(dur.Microseconds())/1000),
	)
}

// LogDispatchError logs a failed output send.
func LogDispatchError(logger *slog.Logger, outputID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("output dispatch failed",
		slog.String("output_id", outputID),
		slog.String("error", err.Error()),
	)
}

// LogJournalError logs a journal failure (non-fatal).
func LogJournalError(logger *slog.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("journal failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}
