package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Output: &buf, Level: "warn"})
	logger.Info("dropped")
	logger.Warn("kept", slog.String("message_id", "m1"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "m1", entry["message_id"])
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(LoggerOptions{Output: &buf, Format: "text"}).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

type recordingHandler struct {
	level   slog.Level
	records *[]slog.Record
	attrs   []slog.Attr
}

func (h recordingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }

func (h recordingHandler) Handle(_ context.Context, r slog.Record) error {
	r.AddAttrs(h.attrs...)
	*h.records = append(*h.records, r)
	return nil
}

func (h recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return h
}

func (h recordingHandler) WithGroup(string) slog.Handler { return h }

func TestFanout(t *testing.T) {
	var debug, errs []slog.Record
	logger := slog.New(fanout{
		recordingHandler{level: slog.LevelDebug, records: &debug},
		recordingHandler{level: slog.LevelError, records: &errs},
	}).With(slog.String("run_id", "r1"))

	logger.Debug("detail")
	logger.Error("boom")

	assert.Len(t, debug, 2)
	require.Len(t, errs, 1)
	assert.Equal(t, "boom", errs[0].Message)
	assert.Equal(t, 1, errs[0].NumAttrs())
}

func TestDeltaTemporality(t *testing.T) {
	assert.Equal(t, metricdata.DeltaTemporality, deltaTemporality(metric.InstrumentKindCounter))
	assert.Equal(t, metricdata.DeltaTemporality, deltaTemporality(metric.InstrumentKindHistogram))
	assert.Equal(t, metricdata.CumulativeTemporality, deltaTemporality(metric.InstrumentKindUpDownCounter))
}

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), Options{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	// A second shutdown is a no-op.
	assert.NoError(t, shutdown(context.Background()))
}
