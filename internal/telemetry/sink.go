// File: internal/telemetry/sink.go
// Author: momentics <momentics@gmail.com>
//
// LogEvent/LogSink decouple Logger calls from the do_work hot path:
// cmd/agent pushes a LogEvent onto a concurrency.EventLoop (backed by the
// lock-free MPMC ring) instead of writing to zerolog inline, and a
// dedicated goroutine drains and logs them in batches.
package telemetry

import (
	"github.com/rs/zerolog"

	"github.com/momentics/rtc-agent/api"
)

// LogEvent is the payload pushed onto the shared EventLoop for async
// logging. It implements api.Event via Data.
type LogEvent struct {
	Level   zerolog.Level
	Message string
	Fields  map[string]any
}

// Data implements api.Event.
func (e LogEvent) Data() any { return e }

// LogSink drains LogEvents from the EventLoop and writes them through
// logger, implementing internal/concurrency.EventHandler.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink wraps logger as an EventLoop handler.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// HandleEvent implements concurrency.EventHandler.
func (s *LogSink) HandleEvent(ev api.Event) {
	le, ok := ev.Data().(LogEvent)
	if !ok {
		return
	}
	evt := s.logger.WithLevel(le.Level)
	for k, v := range le.Fields {
		evt = evt.Interface(k, v)
	}
	evt.Msg(le.Message)
}
