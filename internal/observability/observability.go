// Package observability defines the dependency-free logging and metrics
// interfaces the orchestrator components are written against, together with
// adapters for OpenTelemetry and zap. Components depend only on the
// interfaces; wiring picks a backend.
package observability

import (
	"context"
	"time"
)

// Logger is the interface for operational logging, warnings, and error
// reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger is a context-aware logger that supports automatic trace
// correlation when the backing implementation provides it.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// AppLogger is what the wiring layer works with: leveled logging plus
// child-logger derivation and flush. Components keep depending on the
// narrower Logger.
type AppLogger interface {
	Logger
	With(args ...any) Logger
	Sync()
}

// MetricsCollector is the interface for recording operational metrics.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}
