// File: internal/hsm/canonical.go
// Author: momentics <momentics@gmail.com>
//
// The canonical agent state table (spec §4.4):
//
//	Root
//	└── Top
//	    ├── Ready
//	    │   ├── Stopped          -- initial substate of Ready
//	    │   └── Processing
//	    │       ├── Paused       -- initial substate of Processing
//	    │       └── Playing
//	    ├── Error
//	    └── Exit
package hsm

import (
	"fmt"

	"github.com/momentics/rtc-agent/internal/agenterrors"
	"github.com/momentics/rtc-agent/internal/codec"
	"github.com/momentics/rtc-agent/internal/property"
)

// Canonical state IDs.
const (
	RootID StateID = iota
	TopID
	ReadyID
	StoppedID
	ProcessingID
	PausedID
	PlayingID
	ErrorID
	ExitID
)

// Event tags recognized by the canonical table.
const (
	EventPlay       = "Play"
	EventPause      = "Pause"
	EventStop       = "Stop"
	EventHeartbeat  = "Heartbeat"
	EventState      = "State"
	EventProperties = "Properties"
	EventExit       = "Exit"
	EventOnClose    = "AgentOnClose"
	EventError      = "Error"
	EventLateMsg    = "LateMessage"
)

// StateName returns the canonical state's display name, used as the
// payload of Heartbeat/State/StateChange status events.
func StateName(id StateID) string {
	switch id {
	case RootID:
		return "Root"
	case TopID:
		return "Top"
	case ReadyID:
		return "Ready"
	case StoppedID:
		return "Stopped"
	case ProcessingID:
		return "Processing"
	case PausedID:
		return "Paused"
	case PlayingID:
		return "Playing"
	case ErrorID:
		return "Error"
	case ExitID:
		return "Exit"
	default:
		return "Unknown"
	}
}

// StatusPublisher is the narrow surface the canonical table needs from the
// outbound proxy (internal/proxy.StatusProxy) to emit status events.
type StatusPublisher interface {
	PublishEvent(key string, value any, tag string, correlationID int64, tsNs int64) error
}

// PropertyAccess is the narrow surface the canonical table needs from the
// property store (internal/property.Store).
type PropertyAccess interface {
	Get(key string) (any, error)
	Set(key string, value any) error
	Names() []string
	TypeOf(key string) (property.Type, error)
}

// TimerAccess is the narrow surface the canonical table needs from the
// timer queue (internal/timer.Timer).
type TimerAccess interface {
	ScheduleIn(delayNs int64, eventTag string) (uint64, error)
	ScheduleAt(deadlineNs int64, eventTag string) (uint64, error)
	CancelAll()
}

// Clock is the narrow surface the canonical table needs from the agent's
// clock.
type Clock interface {
	Now() int64
}

// IDGenerator is the narrow surface the canonical table needs from the
// correlation-id generator.
type IDGenerator interface {
	Next() int64
}

// Deps wires the canonical table's handlers to the rest of the agent.
type Deps struct {
	AgentName  string
	Clock      Clock
	Timer      TimerAccess
	IDs        IDGenerator
	Properties PropertyAccess
	Status     StatusPublisher
}

// Context is the HSM's user_context (spec §3): Machine.UserContext is set
// to a *Context for every dispatch in the canonical table.
type Context struct {
	Deps Deps
	// SourceCorrelationID is the correlation id of the inbound message
	// currently being handled, so responses can echo it; stream adapters
	// set this before calling Dispatch.
	SourceCorrelationID int64
}

func (c *Context) publishStatus(key string, value any, correlationID int64) error {
	return c.Deps.Status.PublishEvent(key, value, c.Deps.AgentName, correlationID, c.Deps.Clock.Now())
}

// BuildCanonicalTable constructs the Root/Top/Ready/Stopped/Processing/
// Paused/Playing/Error/Exit table wired against deps. Property read and
// write handlers (spec §4.9) are added separately by
// RegisterPropertyHandlers once the table's property names are known.
func BuildCanonicalTable(onTermination func(*Context) error) Table {
	table := Table{
		RootID: {
			Parent:   NoParent,
			Handlers: map[string]EventHandler{},
		},
		TopID: {
			Parent: RootID,
			OnEntry: func(m *Machine) error {
				ctx := m.UserContext.(*Context)
				_, err := ctx.Deps.Timer.ScheduleIn(0, EventHeartbeat)
				return err
			},
			OnExit: func(m *Machine) error {
				ctx := m.UserContext.(*Context)
				ctx.Deps.Timer.CancelAll()
				return nil
			},
			OnInitial: func(m *Machine) error {
				m.Transition(ReadyID)
				return nil
			},
			Handlers: map[string]EventHandler{
				EventHeartbeat: func(m *Machine, tag string, payload any) (HandlerResult, error) {
					ctx := m.UserContext.(*Context)
					now := ctx.Deps.Clock.Now()
					corrID := ctx.Deps.IDs.Next()
					if err := ctx.publishStatus(EventHeartbeat, StateName(m.Current()), corrID); err != nil {
						return EventHandled, err
					}
					period, err := ctx.Deps.Properties.Get("HeartbeatPeriodNs")
					if err != nil {
						return EventHandled, err
					}
					periodNs, _ := period.(int64)
					if _, err := ctx.Deps.Timer.ScheduleAt(now+periodNs, EventHeartbeat); err != nil {
						return EventHandled, err
					}
					return EventHandled, nil
				},
				EventState: func(m *Machine, tag string, payload any) (HandlerResult, error) {
					ctx := m.UserContext.(*Context)
					err := ctx.publishStatus(EventState, StateName(m.Current()), ctx.Deps.IDs.Next())
					return EventHandled, err
				},
				EventProperties: func(m *Machine, tag string, payload any) (HandlerResult, error) {
					ctx := m.UserContext.(*Context)
					for _, name := range ctx.Deps.Properties.Names() {
						value, err := ctx.Deps.Properties.Get(name)
						if err != nil {
							return EventHandled, err
						}
						if err := ctx.publishStatus(name, value, ctx.Deps.IDs.Next()); err != nil {
							return EventHandled, err
						}
					}
					return EventHandled, nil
				},
				EventExit: func(m *Machine, tag string, payload any) (HandlerResult, error) {
					m.Transition(ExitID)
					return EventHandled, nil
				},
				EventOnClose: func(m *Machine, tag string, payload any) (HandlerResult, error) {
					m.Transition(ExitID)
					return EventHandled, nil
				},
				EventError: func(m *Machine, tag string, payload any) (HandlerResult, error) {
					ctx := m.UserContext.(*Context)
					err := ctx.publishStatus(EventError, fmt.Sprint(payload), ctx.Deps.IDs.Next())
					return EventHandled, err
				},
			},
		},
		ReadyID: {
			Parent: TopID,
			OnInitial: func(m *Machine) error {
				m.Transition(StoppedID)
				return nil
			},
			Handlers: map[string]EventHandler{},
		},
		StoppedID: {
			Parent: ReadyID,
			Handlers: map[string]EventHandler{
				EventPlay: func(m *Machine, tag string, payload any) (HandlerResult, error) {
					m.Transition(PlayingID)
					return EventHandled, nil
				},
			},
		},
		ProcessingID: {
			Parent: ReadyID,
			OnInitial: func(m *Machine) error {
				m.Transition(PausedID)
				return nil
			},
			Handlers: map[string]EventHandler{
				EventStop: func(m *Machine, tag string, payload any) (HandlerResult, error) {
					m.Transition(StoppedID)
					return EventHandled, nil
				},
			},
		},
		PausedID: {
			Parent: ProcessingID,
			Handlers: map[string]EventHandler{
				EventPlay: func(m *Machine, tag string, payload any) (HandlerResult, error) {
					m.Transition(PlayingID)
					return EventHandled, nil
				},
			},
		},
		PlayingID: {
			Parent: ProcessingID,
			Handlers: map[string]EventHandler{
				EventPause: func(m *Machine, tag string, payload any) (HandlerResult, error) {
					m.Transition(PausedID)
					return EventHandled, nil
				},
			},
		},
		ErrorID: {
			Parent:   TopID,
			Handlers: map[string]EventHandler{},
		},
		ExitID: {
			Parent: TopID,
			OnEntry: func(m *Machine) error {
				ctx := m.UserContext.(*Context)
				if onTermination != nil {
					if err := onTermination(ctx); err != nil {
						return err
					}
				}
				return agenterrors.Termination
			},
			Handlers: map[string]EventHandler{},
		},
	}

	return table
}

// RegisterPropertyHandlers adds, for each declared property name, a
// Root-level handler implementing both directions of spec §4.9's property
// protocol: a payload with Format == NOTHING is a read, so the current
// value is echoed back unchanged; any other Format is a write, so the
// payload is decoded, type-checked against the property's declared type,
// and applied via Properties.Set (which itself enforces access mode and
// runs on_set) before the post-write value is echoed back the same way a
// read would be. A type mismatch short-circuits before Set is attempted;
// access and validation failures come back from Set. Either way the error
// is returned to DispatchSafe's Error envelope and nothing is echoed.
func RegisterPropertyHandlers(table Table, names []string) {
	root := table[RootID]
	for _, name := range names {
		key := name
		root.Handlers[key] = func(m *Machine, tag string, payload any) (HandlerResult, error) {
			ctx := m.UserContext.(*Context)
			if msg, ok := payload.(*codec.EventMessage); ok && msg.Format != codec.FormatNothing {
				value, err := decodePropertyWrite(ctx.Deps.Properties, key, msg)
				if err != nil {
					return EventHandled, err
				}
				if err := ctx.Deps.Properties.Set(key, value); err != nil {
					return EventHandled, err
				}
			}
			value, err := ctx.Deps.Properties.Get(key)
			if err != nil {
				return EventHandled, err
			}
			corrID := ctx.SourceCorrelationID
			if corrID == 0 {
				corrID = ctx.Deps.IDs.Next()
			}
			return EventHandled, ctx.publishStatus(key, value, corrID)
		}
	}
	table[RootID] = root
}

// decodePropertyWrite extracts msg's value and checks it against key's
// declared type before a write is attempted, returning PropertyTypeError
// on mismatch rather than letting a wrong-shaped value reach the store.
func decodePropertyWrite(props PropertyAccess, key string, msg *codec.EventMessage) (any, error) {
	declared, err := props.TypeOf(key)
	if err != nil {
		return nil, err
	}
	if msg.Format != codec.FormatFromPropertyType(declared) {
		return nil, agenterrors.PropertyTypeError(key, declared.String(), msg.Format.String())
	}
	switch msg.Format {
	case codec.FormatInt64:
		return msg.Int64Value, nil
	case codec.FormatFloat64:
		return msg.Float64Value, nil
	case codec.FormatString, codec.FormatSymbol:
		return msg.StringValue, nil
	case codec.FormatBool:
		return msg.BoolValue, nil
	case codec.FormatBytes:
		return msg.BytesValue, nil
	default:
		return nil, agenterrors.PropertyTypeError(key, declared.String(), msg.Format.String())
	}
}
