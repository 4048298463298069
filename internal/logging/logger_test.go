package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_LogStartup(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "info")

	logger.LogStartup("stockai-go", "1.0.0", 8080)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "Application startup", entry["msg"])
	assert.Equal(t, "stockai-go", entry["service"])
	assert.Equal(t, float64(8080), entry["port"])
	assert.Equal(t, "startup", entry["event"])
}

func TestLogger_LogAnalysis(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "info")

	logger.LogAnalysis("AAPL", "BUY", 0.9, "included", 1500*time.Millisecond)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "AAPL", entry["symbol"])
	assert.Equal(t, "BUY", entry["action"])
	assert.Equal(t, 0.9, entry["confidence"])
	assert.Equal(t, float64(1500), entry["duration_ms"])
	assert.Equal(t, "analysis", entry["event"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, "warn")

	logger.WithSymbol("MSFT").Info("hidden")
	assert.Zero(t, buf.Len())

	logger.WithError(errors.New("boom")).Warn("visible")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "boom", entry["error"])
}

func TestParseLogrusLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"info", logrus.InfoLevel},
		{"", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogrusLevel(tt.input))
		})
	}
}

func TestNewLogrus(t *testing.T) {
	logger := NewLogrus("debug")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	_, ok := logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

type recordingOTLPLogger struct {
	otellog.Logger
	records []otellog.Record
}

func (m *recordingOTLPLogger) Enabled(context.Context, otellog.EnabledParameters) bool {
	return true
}

func (m *recordingOTLPLogger) Emit(_ context.Context, record otellog.Record) {
	m.records = append(m.records, record)
}

func TestOTLPHandler_Handle(t *testing.T) {
	sink := &recordingOTLPLogger{}
	logger := NewLoggerFromHandler(newOTLPHandler(sink, slog.LevelInfo))

	logger.WithComponent("scanner").Debug("dropped")
	logger.WithComponent("scanner").Warn("scan slow", "symbols", 3)

	require.Len(t, sink.records, 1)
	rec := sink.records[0]
	assert.Equal(t, "scan slow", rec.Body().AsString())
	assert.Equal(t, otellog.SeverityWarn, rec.Severity())

	attrs := map[string]string{}
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	assert.Equal(t, "scanner", attrs["component"])
	assert.Equal(t, "3", attrs["symbols"])
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, otellog.SeverityDebug, severity(slog.LevelDebug))
	assert.Equal(t, otellog.SeverityInfo, severity(slog.LevelInfo))
	assert.Equal(t, otellog.SeverityWarn, severity(slog.LevelWarn))
	assert.Equal(t, otellog.SeverityError, severity(slog.LevelError))
	assert.Equal(t, otellog.SeverityError, severity(slog.Level(12)))
}

func TestExporterOptions(t *testing.T) {
	opts, err := exporterOptions("")
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	opts, err = exporterOptions("http://collector:4318")
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	opts, err = exporterOptions("https://otlp.example.com/base/")
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	_, err = exporterOptions("http://")
	assert.Error(t, err)
}
