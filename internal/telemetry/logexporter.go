// File: internal/telemetry/logexporter.go
// Author: momentics <momentics@gmail.com>
//
// A trace.SpanExporter that writes finished spans through zerolog instead
// of a network collector: the agent's fleet has no local OTLP collector
// sidecar, so spans are emitted as structured log lines an operator's log
// pipeline can already ingest.
package telemetry

import (
	"context"

	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogExporter implements sdktrace.SpanExporter by logging each span as one
// structured event.
type LogExporter struct {
	logger zerolog.Logger
}

// NewLogExporter returns an exporter writing through logger.
func NewLogExporter(logger zerolog.Logger) *LogExporter {
	return &LogExporter{logger: logger}
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		evt := e.logger.Info().
			Str("span", s.Name()).
			Str("trace_id", s.SpanContext().TraceID().String()).
			Str("span_id", s.SpanContext().SpanID().String()).
			Dur("duration", s.EndTime().Sub(s.StartTime()))
		for _, attr := range s.Attributes() {
			evt = evt.Str(string(attr.Key), attr.Value.Emit())
		}
		evt.Msg("span")
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter; there is no connection to
// drain.
func (e *LogExporter) Shutdown(ctx context.Context) error { return nil }
