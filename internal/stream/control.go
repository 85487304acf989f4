// File: internal/stream/control.go
// Author: momentics <momentics@gmail.com>
package stream

import (
	"github.com/momentics/rtc-agent/api"
	"github.com/momentics/rtc-agent/internal/codec"
)

// Dispatcher is the narrow HSM surface stream adapters drive.
type Dispatcher interface {
	// SetSourceCorrelationID stamps the correlation id of the message about
	// to be dispatched, so handlers that respond can echo it.
	SetSourceCorrelationID(id int64)
	// Dispatch delivers eventTag/payload through DispatchSafe's error
	// envelope (Termination propagates, other errors raise a synthetic
	// Error event).
	Dispatch(eventTag string, payload any) error
}

// ControlStreamAdapter owns (subscription, fragment assembler, cursor) for
// the control stream and decodes EventMessages, dispatching each through
// the HSM (spec §4.7).
type ControlStreamAdapter struct {
	sub       api.Subscription
	dispatch  Dispatcher
	handler   TaggedHandler
	assembler api.Handler
}

// ControlConfig configures a ControlStreamAdapter's optional filters.
type ControlConfig struct {
	// TagFilterPattern, if non-empty, is ControlFilter: only messages whose
	// Tag matches exactly are forwarded.
	TagFilterPattern string
	// LateMessageThresholdNs, if positive, diverts stale messages to the
	// synthetic LateMessage event instead of their original event tag.
	LateMessageThresholdNs int64
	Clock                  Clock
}

// NewControlStreamAdapter wires filter composition LateFilter(TagFilter(handler))
// around the HSM dispatch handler, per spec §4.7.
func NewControlStreamAdapter(sub api.Subscription, dispatch Dispatcher, assemble api.AssemblerFactory, cfg ControlConfig) *ControlStreamAdapter {
	a := &ControlStreamAdapter{sub: sub, dispatch: dispatch}

	base := TaggedHandler(func(msg *codec.EventMessage) error {
		a.dispatch.SetSourceCorrelationID(msg.CorrelationID)
		return a.dispatch.Dispatch(msg.Key, msg)
	})
	late := LateHandler(func(msg *codec.EventMessage) error {
		a.dispatch.SetSourceCorrelationID(msg.CorrelationID)
		return a.dispatch.Dispatch("LateMessage", msg)
	})

	handler := NewTagFilter(cfg.TagFilterPattern, base)
	handler = NewLateFilter(cfg.LateMessageThresholdNs, cfg.Clock, late, handler)
	a.handler = handler

	inner := &fragmentHandler{decode: codec.DecodeEventMessage, next: a.handler}
	if assemble != nil {
		a.assembler = assemble(inner)
	} else {
		a.assembler = inner
	}
	return a
}

// Poll delegates one read to the subscription, returning fragments consumed.
func (a *ControlStreamAdapter) Poll(limit int) (int, error) {
	return a.sub.Poll(a.assembler, limit)
}

// Close releases the underlying subscription.
func (a *ControlStreamAdapter) Close() error {
	return a.sub.Close()
}
