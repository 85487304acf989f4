// File: internal/stream/filter.go
// Package stream implements the inbound stream adapters (spec §4.7):
// subscription + fragment assembler + optional tag/late filters, composed
// outer-to-inner as LateFilter(TagFilter(handler)).
//
// Author: momentics <momentics@gmail.com>
package stream

import (
	"github.com/momentics/rtc-agent/api"
	"github.com/momentics/rtc-agent/internal/codec"
)

// TaggedHandler processes one decoded EventMessage.
type TaggedHandler func(msg *codec.EventMessage) error

// LateHandler is invoked in place of the normal handler when a message's
// timestamp is older than the configured threshold.
type LateHandler func(msg *codec.EventMessage) error

// NewTagFilter wraps inner so it only runs for messages whose Tag matches
// pattern exactly, or passes everything through when pattern is empty
// (ControlFilter unset — spec §4.7).
func NewTagFilter(pattern string, inner TaggedHandler) TaggedHandler {
	if pattern == "" {
		return inner
	}
	return func(msg *codec.EventMessage) error {
		if msg.Tag != pattern {
			return nil
		}
		return inner(msg)
	}
}

// Clock is the narrow time source LateFilter needs.
type Clock interface {
	Now() int64
}

// NewLateFilter wraps inner so messages older than clk.Now()-thresholdNs are
// diverted to late instead. A non-positive thresholdNs disables the filter.
func NewLateFilter(thresholdNs int64, clk Clock, late LateHandler, inner TaggedHandler) TaggedHandler {
	if thresholdNs <= 0 {
		return inner
	}
	return func(msg *codec.EventMessage) error {
		if clk.Now()-msg.TimestampNs > thresholdNs {
			return late(msg)
		}
		return inner(msg)
	}
}

// fragmentHandler adapts a TaggedHandler (EventMessage-typed) into the
// api.Handler the transport's FragmentAssembler calls, decoding every
// catenated message in the reassembled buffer.
type fragmentHandler struct {
	decode func(data []byte) (*codec.EventMessage, int, error)
	next   TaggedHandler
}

func (h *fragmentHandler) Handle(data any) error {
	buf, ok := data.(api.Buffer)
	if !ok {
		return nil
	}
	raw := buf.Bytes()
	for len(raw) > 0 {
		msg, consumed, err := h.decode(raw)
		if err != nil {
			return err
		}
		if msg == nil || consumed == 0 {
			break
		}
		if err := h.next(msg); err != nil {
			return err
		}
		raw = raw[consumed:]
	}
	return nil
}
