package observability

import (
	"strings"

	"go.uber.org/zap"
)

// ZapLogger implements Logger on top of a zap.SugaredLogger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a zap-backed logger. mode "prod"/"production" selects
// the JSON production config, anything else the development console config.
func NewZapLogger(mode string) (*ZapLogger, error) {
	var cfg zap.Config

	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &ZapLogger{sugar: zapLogger.Sugar()}, nil
}

// Sync flushes buffered log entries.
func (l *ZapLogger) Sync() {
	_ = l.sugar.Sync()
}

// With returns a logger with the given key/value pairs attached to every
// entry.
func (l *ZapLogger) With(args ...any) Logger {
	return &ZapLogger{sugar: l.sugar.With(args...)}
}

// Debug logs a debug message with key/value pairs.
func (l *ZapLogger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

// Info logs an info message with key/value pairs.
func (l *ZapLogger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

// Warn logs a warning with key/value pairs.
func (l *ZapLogger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

// Error logs an error with key/value pairs.
func (l *ZapLogger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

var _ AppLogger = (*ZapLogger)(nil)
