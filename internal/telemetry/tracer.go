// File: internal/telemetry/tracer.go
// Author: momentics <momentics@gmail.com>
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Tracer bundles the agent's span provider and a fixed run-instance id used
// to correlate every tick span emitted by one process lifetime.
type Tracer struct {
	Provider      *sdktrace.TracerProvider
	RunInstanceID string
	tracer        trace.Tracer
}

// NewTracer builds a tracer provider whose batcher flushes through a
// LogExporter, since the fleet has no collector sidecar. RunInstanceID is a
// fresh google/uuid minted once per process.
func NewTracer(logger zerolog.Logger, agentName string) *Tracer {
	runID := uuid.NewString()
	exporter := NewLogExporter(logger)
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	return &Tracer{
		Provider:      provider,
		RunInstanceID: runID,
		tracer:        provider.Tracer(agentName),
	}
}

// StartTick opens one span covering a single do_work tick, tagged with the
// run-instance id so spans from concurrent agent processes never collide.
func (t *Tracer) StartTick(ctx context.Context, tickIndex int64) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "do_work",
		trace.WithAttributes(
			attribute.String("run_instance", t.RunInstanceID),
			attribute.Int64("tick", tickIndex),
		),
	)
}

// Shutdown flushes and stops the underlying provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	return t.Provider.Shutdown(ctx)
}
