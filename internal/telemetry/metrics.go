// File: internal/telemetry/metrics.go
// Author: momentics <momentics@gmail.com>
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the agent's process-wide Prometheus collectors, registered
// once at construction. CurrentState is updated through ObserveStateChange;
// nothing in this repository increments the counters.
type Metrics struct {
	Registry *prometheus.Registry

	TicksTotal      prometheus.Counter
	WorkItemsTotal  prometheus.Counter
	InputPolled     prometheus.Counter
	PropertyPolled  prometheus.Counter
	TimersFired     prometheus.Counter
	ControlPolled   prometheus.Counter
	BackPressureHit prometheus.Counter
	CurrentState    *prometheus.GaugeVec
}

// NewMetrics constructs and registers every collector against a fresh
// registry, so cmd/agent can expose it on /metrics without importing the
// global default registry.
func NewMetrics(agentName string) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"agent": agentName}

	m := &Metrics{
		Registry: reg,
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rtc_agent_ticks_total",
			Help:        "Number of do_work ticks executed.",
			ConstLabels: labels,
		}),
		WorkItemsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rtc_agent_work_items_total",
			Help:        "Sum of per-tick work counts across all pollers.",
			ConstLabels: labels,
		}),
		InputPolled: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rtc_agent_input_fragments_total",
			Help:        "Input stream fragments processed.",
			ConstLabels: labels,
		}),
		PropertyPolled: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rtc_agent_property_publications_total",
			Help:        "Property values published by the registry poller.",
			ConstLabels: labels,
		}),
		TimersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rtc_agent_timers_fired_total",
			Help:        "Timer entries fired.",
			ConstLabels: labels,
		}),
		ControlPolled: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rtc_agent_control_fragments_total",
			Help:        "Control stream fragments processed.",
			ConstLabels: labels,
		}),
		BackPressureHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rtc_agent_back_pressure_total",
			Help:        "Publication attempts that observed back-pressure.",
			ConstLabels: labels,
		}),
		CurrentState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "rtc_agent_state",
			Help:        "1 for the HSM's current leaf state, 0 otherwise.",
			ConstLabels: labels,
		}, []string{"state"}),
	}

	reg.MustRegister(
		m.TicksTotal, m.WorkItemsTotal, m.InputPolled, m.PropertyPolled,
		m.TimersFired, m.ControlPolled, m.BackPressureHit, m.CurrentState,
	)
	return m
}

// ObserveStateChange zeroes the previous state's gauge and sets the new
// one, called from the HSM's OnLeafChange hook.
func (m *Metrics) ObserveStateChange(oldName, newName string) {
	if oldName != "" {
		m.CurrentState.WithLabelValues(oldName).Set(0)
	}
	m.CurrentState.WithLabelValues(newName).Set(1)
}
