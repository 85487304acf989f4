// File: internal/agent/agent.go
// Package agent is the composition root (spec §4.10, C11): it owns every
// other component and implements the host runner's hook interface
// (name/on_start/do_work/on_error/on_close), holding the work scheduler
// that ties them together each tick.
//
// Author: momentics <momentics@gmail.com>
package agent

import (
	"time"

	"github.com/momentics/rtc-agent/api"
	"github.com/momentics/rtc-agent/internal/agenterrors"
	"github.com/momentics/rtc-agent/internal/bufpool"
	"github.com/momentics/rtc-agent/internal/clock"
	"github.com/momentics/rtc-agent/internal/config"
	"github.com/momentics/rtc-agent/internal/hsm"
	"github.com/momentics/rtc-agent/internal/idgen"
	"github.com/momentics/rtc-agent/internal/property"
	"github.com/momentics/rtc-agent/internal/proxy"
	"github.com/momentics/rtc-agent/internal/publication"
	"github.com/momentics/rtc-agent/internal/strategy"
	"github.com/momentics/rtc-agent/internal/stream"
	"github.com/momentics/rtc-agent/internal/timer"
)

// CommunicationResources bundles every transport handle the Agent needs,
// built by the host from the config's URIs/stream ids before on_start runs
// (spec §3 Ownership: "Subscriptions and publications are exclusively
// owned by the Agent's CommunicationResources struct").
type CommunicationResources struct {
	StatusPub  api.Publication
	ControlSub api.Subscription
	SubData    []api.Subscription
	PubData    []api.Publication
	Assemble   api.AssemblerFactory
}

// Metrics is the narrow surface the agent needs from telemetry.Metrics,
// kept narrow so internal/agent does not import internal/telemetry.
type Metrics interface {
	ObserveStateChange(oldName, newName string)
}

// hsmDispatcher adapts a *hsm.Machine + *hsm.Context pair to
// stream.Dispatcher, so stream adapters can stamp correlation ids and
// dispatch without depending on the hsm package's concrete types.
type hsmDispatcher struct {
	machine *hsm.Machine
	ctx     *hsm.Context
}

func (d *hsmDispatcher) SetSourceCorrelationID(id int64) { d.ctx.SourceCorrelationID = id }
func (d *hsmDispatcher) Dispatch(eventTag string, payload any) error {
	return d.machine.DispatchSafe(eventTag, payload)
}

// Agent is the single-threaded RTC agent: every field here is touched only
// from the host's single work thread (spec §5).
type Agent struct {
	cfg   *config.Config
	clock *clock.Source
	ids   *idgen.Generator
	props *property.Store
	timer *timer.Timer
	regs  *publication.Registry

	machine    *hsm.Machine
	hsmCtx     *hsm.Context
	dispatcher *hsmDispatcher

	control *stream.ControlStreamAdapter
	inputs  []*stream.InputStreamAdapter

	status   *proxy.StatusProxy
	propProx *proxy.PropertyProxy

	metrics Metrics

	fragmentLimit int

	startedAt time.Time
	lastStats api.WorkStats
	lastErr   *api.Error
}

const defaultFragmentLimit = 64
const scratchBufferSize = 512

// New builds the agent's entire component graph from cfg and comms,
// wiring the canonical HSM table with this agent's own Clock/Timer/IDs/
// PropertyStore/StatusProxy. metrics may be nil to disable state-change
// observation.
func New(cfg *config.Config, comms CommunicationResources, metrics Metrics) *Agent {
	clk := clock.New()
	ids := idgen.New(cfg.NodeID, func() int64 { return clk.Now() / 1_000_000 })
	props := property.New(clk)
	tmr := timer.New(clk, 128)
	regs := publication.New()

	declareProperties(props, cfg)

	// The status proxy and the property proxy each acquire two scratch
	// buffers (scalar and tensor header) once and hold them for the agent's
	// lifetime; acquisitions beyond the pooled buffers are fresh allocations.
	pool := bufpool.New(2+len(comms.PubData), scratchBufferSize)
	status := proxy.NewStatusProxy(comms.StatusPub, pool, scratchBufferSize)
	pubData := make([]api.Publication, len(comms.PubData))
	copy(pubData, comms.PubData)
	propProx := proxy.NewPropertyProxy(pubData, pool, scratchBufferSize)

	a := &Agent{
		cfg:           cfg,
		clock:         clk,
		ids:           ids,
		props:         props,
		timer:         tmr,
		regs:          regs,
		status:        status,
		propProx:      propProx,
		metrics:       metrics,
		fragmentLimit: defaultFragmentLimit,
		startedAt:     time.Now(),
	}

	hsmCtx := &hsm.Context{
		Deps: hsm.Deps{
			AgentName:  cfg.Name,
			Clock:      clk,
			Timer:      tmr,
			IDs:        ids,
			Properties: props,
			Status:     status,
		},
	}
	table := hsm.BuildCanonicalTable(nil)
	hsm.RegisterPropertyHandlers(table, props.Names())

	machine, err := hsm.New(table, hsm.TopID, hsmCtx, func(old, newID hsm.StateID) {
		a.onLeafChange(old, newID)
	})
	if err != nil {
		// Construction-time table wiring is a programming error, not a
		// runtime condition the host can recover from.
		panic(err)
	}
	a.machine = machine
	a.hsmCtx = hsmCtx
	a.dispatcher = &hsmDispatcher{machine: machine, ctx: hsmCtx}

	a.control = stream.NewControlStreamAdapter(comms.ControlSub, a.dispatcher, comms.Assemble, stream.ControlConfig{
		TagFilterPattern:       cfg.ControlFilter,
		LateMessageThresholdNs: cfg.LateMessageThresholdNs,
		Clock:                  clk,
	})
	for _, sub := range comms.SubData {
		a.inputs = append(a.inputs, stream.NewInputStreamAdapter(sub, a.dispatcher, comms.Assemble))
	}

	for i := range cfg.PubData {
		regs.Register("PubData", i, strategy.NewOnUpdate(), comms.PubData[i])
	}

	return a
}

// onLeafChange fires for every leaf transition, including the constructor's
// own NoParent -> initial-leaf settle (spec §8 scenario 1: a StateChange
// status event tagged with the agent's initial state fires before anything
// else). It is wired into hsm.New itself rather than assigned to
// machine.OnLeafChange afterward, since the constructor's settle runs
// synchronously inside New and a post-hoc assignment would never observe
// it. a.status/a.ids/a.clock/a.cfg are already populated in the struct
// literal above by the time this fires, even during construction.
func (a *Agent) onLeafChange(old, newID hsm.StateID) {
	if old == newID {
		return
	}
	newName := hsm.StateName(newID)
	_ = a.status.PublishEvent("StateChange", newName, a.cfg.Name, a.ids.Next(), a.clock.Now())
	if a.metrics != nil {
		oldName := ""
		if old != hsm.NoParent {
			oldName = hsm.StateName(old)
		}
		a.metrics.ObserveStateChange(oldName, newName)
	}
}

func declareProperties(props *property.Store, cfg *config.Config) {
	props.Declare(property.Descriptor{Name: "Name", Type: property.TypeString, Access: api.Readable}, cfg.Name)
	props.Declare(property.Descriptor{Name: "NodeId", Type: property.TypeInt64, Access: api.Readable}, cfg.NodeID)
	props.Declare(property.Descriptor{Name: "HeartbeatPeriodNs", Type: property.TypeInt64, Access: api.ReadWrite}, cfg.HeartbeatPeriodNs)
	props.Declare(property.Descriptor{Name: "LogLevel", Type: property.TypeSymbol, Access: api.ReadWrite}, cfg.LogLevel)
}

// Name implements the host's name() hook.
func (a *Agent) Name() string { return a.cfg.Name }

// OnStart implements the host's on_start() hook. Stream adapters and
// proxies are already built by New; on_start exists so the host's call
// sequence matches spec §6 even though this agent performs that wiring
// eagerly at construction.
func (a *Agent) OnStart() error {
	return nil
}

// DoWork implements the host's do_work() hook, executing one tick in the
// order mandated by spec §4.10: input, property, timer, control.
func (a *Agent) DoWork() (int, error) {
	a.clock.Fetch()

	inputN, err := a.inputPoll()
	if err != nil {
		return a.recordTick(inputN, 0, 0, 0), a.handleTickError(err)
	}

	// A publication failure is reported through the Error event but does
	// not abort the rest of the tick.
	propN, err := a.propertyPoll()
	if err != nil {
		if tErr := a.handleTickError(err); tErr != nil {
			return a.recordTick(inputN, propN, 0, 0), tErr
		}
	}

	timerN := a.timerPoll()

	controlN, err := a.controlPoll()
	if err != nil {
		return a.recordTick(inputN, propN, timerN, controlN), a.handleTickError(err)
	}

	return a.recordTick(inputN, propN, timerN, controlN), nil
}

func (a *Agent) recordTick(inputN, propN, timerN, controlN int) int {
	a.lastStats = api.WorkStats{
		Input:    inputN,
		Property: propN,
		Timer:    timerN,
		Control:  controlN,
		Total:    inputN + propN + timerN + controlN,
	}
	return a.lastStats.Total
}

func (a *Agent) handleTickError(err error) error {
	if agenterrors.IsTermination(err) {
		return err
	}
	a.lastErr = api.NewError(api.ErrCodeInternal, err.Error()).WithContext("phase", "do_work")
	return a.machine.DispatchSafe("Error", err)
}

func (a *Agent) inputPoll() (int, error) {
	if len(a.inputs) == 0 {
		return 0, nil
	}
	adapters := make([]interface {
		Poll(int) (int, error)
	}, len(a.inputs))
	for i, ad := range a.inputs {
		adapters[i] = ad
	}
	return stream.PollToQuiescence(a.fragmentLimit, adapters...)
}

func (a *Agent) propertyPoll() (int, error) {
	var firstErr error
	n := a.regs.Poll(a.clock.Now(), a.props, a.ids, nil,
		func(cfg *publication.Config, value any, correlationID int64) error {
			return a.propProx.PublishEvent(cfg.StreamIndex, cfg.Key, value, a.cfg.Name, correlationID, a.clock.Now())
		},
		func(cfg *publication.Config, err error) {
			if firstErr == nil {
				firstErr = err
			}
		},
	)
	return n, firstErr
}

func (a *Agent) timerPoll() int {
	return a.timer.Poll(func(eventTag string, nowNs int64) {
		_ = a.machine.DispatchSafe(eventTag, nowNs)
	})
}

func (a *Agent) controlPoll() (int, error) {
	return a.control.Poll(a.fragmentLimit)
}

// OnError implements the host's on_error(err) hook.
func (a *Agent) OnError(err error) {
	a.lastErr = api.NewError(api.ErrCodeInternal, err.Error()).WithContext("phase", "on_error")
	_ = a.machine.DispatchSafe("Error", err)
}

// OnClose implements the host's on_close() hook: it cancels all timers and
// closes the control and input stream adapters, and with them their
// subscriptions. The status and data publications are not closed here.
func (a *Agent) OnClose() error {
	a.timer.CancelAll()
	var firstErr error
	if err := a.control.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	for _, in := range a.inputs {
		if err := in.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Current exposes the HSM's current leaf state name for debug probes.
func (a *Agent) Current() string { return hsm.StateName(a.machine.Current()) }

// LastStats reports the most recently completed tick's work breakdown, for
// debug probes and the host's idle-strategy diagnostics.
func (a *Agent) LastStats() api.WorkStats { return a.lastStats }

// Info reports descriptive build/runtime metadata for external tools.
func (a *Agent) Info() api.AgentInfo {
	return api.AgentInfo{Name: a.cfg.Name, NodeID: a.cfg.NodeID, StartedAt: a.startedAt}
}

// LastError reports the most recent do_work/on_error failure, or nil if
// none occurred yet.
func (a *Agent) LastError() *api.Error { return a.lastErr }
