package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler captures slog records for assertions.
type recordingHandler struct {
	records *[]slog.Record
	attrs   []slog.Attr
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{records: &[]slog.Record{}}
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *recordingHandler) Handle(_ context.Context, record slog.Record) error {
	record.AddAttrs(h.attrs...)
	*h.records = append(*h.records, record)

	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &recordingHandler{records: h.records, attrs: append(h.attrs, attrs...)}
}

func (h *recordingHandler) WithGroup(string) slog.Handler {
	return h
}

func attrsOf(record slog.Record) map[string]string {
	attrs := map[string]string{}
	record.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})

	return attrs
}

func Test_SlogBridgeLogger_EmitsLeveledRecords(t *testing.T) {
	// arrange
	handler := newRecordingHandler()
	logger := NewSlogBridgeLoggerWithHandler(handler)

	// act
	logger.Info("converged", "list_id", "l-1")
	logger.Error("failed", "error", "boom")

	// assert
	require.Len(t, *handler.records, 2)
	assert.Equal(t, slog.LevelInfo, (*handler.records)[0].Level)
	assert.Equal(t, "converged", (*handler.records)[0].Message)
	assert.Equal(t, "l-1", attrsOf((*handler.records)[0])["list_id"])
	assert.Equal(t, slog.LevelError, (*handler.records)[1].Level)
}

func Test_SlogBridgeLogger_WithAttachesFieldsToEveryRecord(t *testing.T) {
	// arrange
	handler := newRecordingHandler()
	logger := NewSlogBridgeLoggerWithHandler(handler).With("component", "convergence")

	// act
	logger.Warn("deferred")

	// assert
	require.Len(t, *handler.records, 1)
	assert.Equal(t, "convergence", attrsOf((*handler.records)[0])["component"])
}

func Test_SlogBridgeLogger_ContextVariantsNeedNoCorrelation(t *testing.T) {
	// arrange
	handler := newRecordingHandler()
	logger := NewSlogBridgeLoggerWithHandler(handler)

	// act
	logger.InfoContext(context.Background(), "handled", "offset", "12")

	// assert
	require.Len(t, *handler.records, 1)
	assert.Equal(t, "12", attrsOf((*handler.records)[0])["offset"])
}
