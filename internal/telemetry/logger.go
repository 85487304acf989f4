// File: internal/telemetry/logger.go
// Package telemetry wires the agent's ambient observability stack: a
// zerolog logger, a prometheus metrics registry, and an OpenTelemetry
// tracer backed by a zerolog span exporter — grounded on the pack's
// env-driven zerolog setup (cuemby-warren's pkg/log).
//
// Only Metrics.ObserveStateChange runs inside do_work, through the agent's
// leaf-change hook; the rest is used by cmd/agent around ticks and by its
// Control/Debug HTTP surface.
//
// Author: momentics <momentics@gmail.com>
package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds a zerolog.Logger at the given level string (one of the
// agent's LogLevel property values), writing JSON to out (os.Stdout when
// nil), tagged with the agent's name and node id.
func NewLogger(levelName, agentName string, nodeID int64, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return zerolog.New(out).
		With().
		Timestamp().
		Str("agent", agentName).
		Int64("node_id", nodeID).
		Logger()
}

// WithRunInstance attaches a process run-instance identifier (spec's
// supplemented ambient stack: google/uuid as a per-process correlation
// tag distinct from the Snowflake message correlation ids) to logger.
func WithRunInstance(logger zerolog.Logger, runInstanceID string) zerolog.Logger {
	return logger.With().Str("run_instance", runInstanceID).Logger()
}

// consoleTimeFormat mirrors cuemby-warren's ConsoleWriter formatting for
// the rare occasions a human runs the agent interactively rather than
// under a log-shipping supervisor.
const consoleTimeFormat = time.RFC3339

// NewConsoleLogger is NewLogger's human-readable counterpart, writing to
// stdout; cmd/agent always uses it.
func NewConsoleLogger(levelName, agentName string, nodeID int64) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: consoleTimeFormat}).
		With().
		Timestamp().
		Str("agent", agentName).
		Int64("node_id", nodeID).
		Logger()
}
