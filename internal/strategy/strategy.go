// Package strategy implements the per-property publication strategies
// (spec §4.5): a closed, runtime-discriminated PublishStrategy sum type
// with should_publish/next_time decisions made against the canonical tick
// time, kept allocation-free so the registry's element type stays stable.
//
// Author: momentics <momentics@gmail.com>
package strategy

// Kind discriminates the PublishStrategy variants.
type Kind int

const (
	OnUpdate Kind = iota
	Periodic
	Scheduled
	RateLimited
)

// Strategy is a closed tagged union over the four publication strategies.
// IntervalNs is used by Periodic and RateLimited; AtNs is used by
// Scheduled. Zero value is OnUpdate.
type Strategy struct {
	Kind       Kind
	IntervalNs int64
	AtNs       int64
}

// NewOnUpdate publishes exactly once per property update per stream.
func NewOnUpdate() Strategy { return Strategy{Kind: OnUpdate} }

// NewPeriodic publishes at least once every intervalNs; first publication
// is immediate.
func NewPeriodic(intervalNs int64) Strategy {
	return Strategy{Kind: Periodic, IntervalNs: intervalNs}
}

// NewScheduled publishes once at the absolute deadline atNs.
func NewScheduled(atNs int64) Strategy {
	return Strategy{Kind: Scheduled, AtNs: atNs}
}

// NewRateLimited is OnUpdate with a floor: publishes on update, but never
// more often than minIntervalNs.
func NewRateLimited(minIntervalNs int64) Strategy {
	return Strategy{Kind: RateLimited, IntervalNs: minIntervalNs}
}

// ShouldPublish decides, for the canonical tick time now, whether a
// publication should occur given the config's last publication time,
// scheduled next time, and the property's last-update timestamp.
func (s Strategy) ShouldPublish(lastPublishedNs, nextScheduledNs, propTsNs, nowNs int64) bool {
	switch s.Kind {
	case OnUpdate:
		return propTsNs == nowNs && lastPublishedNs != propTsNs
	case Periodic:
		return lastPublishedNs < 0 || (lastPublishedNs != nowNs && nowNs-lastPublishedNs >= s.IntervalNs)
	case Scheduled:
		return nowNs >= s.AtNs && lastPublishedNs != nowNs
	case RateLimited:
		return propTsNs == nowNs && (lastPublishedNs < 0 || nowNs-lastPublishedNs >= s.IntervalNs)
	default:
		return false
	}
}

// NextTime computes the refreshed next_scheduled_ns after a decision at now.
func (s Strategy) NextTime(nowNs int64) int64 {
	switch s.Kind {
	case OnUpdate:
		return -1
	case Periodic:
		return nowNs + s.IntervalNs
	case Scheduled:
		return s.AtNs
	case RateLimited:
		return nowNs + s.IntervalNs
	default:
		return -1
	}
}
