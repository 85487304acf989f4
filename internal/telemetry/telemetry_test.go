package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesJSONWithAgentFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", "agent-1", 7, &buf)
	logger.Info().Msg("hello")

	out := buf.String()
	assert.Contains(t, out, `"agent":"agent-1"`)
	assert.Contains(t, out, `"node_id":7`)
	assert.Contains(t, out, `"hello"`)
}

func TestNewLoggerFallsBackToInfoOnBadLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("not-a-level", "agent-1", 1, &buf)
	logger.Debug().Msg("should not appear")
	assert.Empty(t, buf.String())
}

func TestMetricsObserveStateChangeTogglesGauges(t *testing.T) {
	m := NewMetrics("agent-1")
	m.ObserveStateChange("", "Stopped")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CurrentState.WithLabelValues("Stopped")))

	m.ObserveStateChange("Stopped", "Playing")
	assert.Equal(t, float64(0), testutil.ToFloat64(m.CurrentState.WithLabelValues("Stopped")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CurrentState.WithLabelValues("Playing")))
}

func TestLogExporterShutdownIsNoop(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", "a", 1, &buf)
	exp := NewLogExporter(logger)
	require.NoError(t, exp.Shutdown(context.Background()))
}

func TestLogSinkWritesQueuedEventThroughLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", "a", 1, &buf)
	sink := NewLogSink(logger)

	sink.HandleEvent(LogEvent{Level: zerolog.InfoLevel, Message: "tick", Fields: map[string]any{"n": 3}})
	assert.Contains(t, buf.String(), "tick")
	assert.Contains(t, buf.String(), `"n":3`)
}
