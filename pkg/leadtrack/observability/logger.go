// Package observability provides logging, metrics, and tracing for the
// leadtrack dispatch layer.
//
// Features:
//   - Structured logging via slog
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
// Every log helper accepts a nil logger.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds dispatch context to a logger.
// Returns a new logger with dispatch_id and event fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "9b1d...", "generate_lead")
//	enriched.Debug("normalized") // includes dispatch_id, event
func EnrichLogger(logger *slog.Logger, dispatchID, event string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("dispatch_id", dispatchID),
		slog.String("event", event),
	)
}

// LogInitialized logs the one-time bootstrap of the loader scripts.
func LogInitialized(logger *slog.Logger, containerID, pixelID string, placeholders bool) {
	if logger == nil {
		return
	}
	logger.Info("tracking initialized",
		slog.String("container_id", containerID),
		slog.String("pixel_id", pixelID),
		slog.Bool("placeholders", placeholders),
	)
}

// LogDispatchStart logs the start of a fan-out.
func LogDispatchStart(logger *slog.Logger, dispatchID, event string) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch starting",
		slog.String("dispatch_id", dispatchID),
		slog.String("event", event),
	)
}

// LogDispatchComplete logs the end of a fan-out with per-outcome counts.
func LogDispatchComplete(logger *slog.Logger, dispatchID, event string, durationMs float64, dispatched, skipped, failed int) {
	if logger == nil {
		return
	}
	logger.Info("dispatch completed",
		slog.String("dispatch_id", dispatchID),
		slog.String("event", event),
		slog.Float64("duration_ms", durationMs),
		slog.Int("dispatched", dispatched),
		slog.Int("skipped", skipped),
		slog.Int("failed", failed),
	)
}

// LogAdapterDispatched logs a successful adapter call.
func LogAdapterDispatched(logger *slog.Logger, adapter string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("adapter dispatched",
		slog.String("adapter", adapter),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogAdapterSkipped logs an adapter whose destination was not available.
func LogAdapterSkipped(logger *slog.Logger, adapter, reason string) {
	if logger == nil {
		return
	}
	logger.Debug("adapter skipped",
		slog.String("adapter", adapter),
		slog.String("reason", reason),
	)
}

// LogAdapterError logs an adapter failure (non-fatal).
func LogAdapterError(logger *slog.Logger, adapter string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("adapter failed",
		slog.String("adapter", adapter),
		slog.String("error", err.Error()),
	)
}

// LogPayload logs the payload an adapter sent. Only emitted at debug level.
func LogPayload(logger *slog.Logger, adapter string, payload any) {
	if logger == nil {
		return
	}
	logger.Debug("adapter payload",
		slog.String("adapter", adapter),
		slog.Any("payload", payload),
	)
}

// LogLoaderReady logs a loader script that installed its global.
func LogLoaderReady(logger *slog.Logger, script string, attempts int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("loader ready",
		slog.String("script", script),
		slog.Int("attempts", attempts),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogLoaderFailed logs a loader script that could not be fetched.
// The destination stays unavailable.
func LogLoaderFailed(logger *slog.Logger, script, url string, attempts int, err error) {
	if logger == nil {
		return
	}
	logger.Warn("loader failed",
		slog.String("script", script),
		slog.String("url", url),
		slog.Int("attempts", attempts),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
