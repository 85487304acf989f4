// Package publication implements the publication registry and property
// poller (spec §4.6): an ordered list of (key, stream_index, strategy,
// last_published_ns, next_scheduled_ns) driving per-tick re-publication
// decisions.
//
// The ordered list is backed by github.com/eapache/queue, the teacher's own
// FIFO structure, repurposed here to hold PublicationConfig pointers rather
// than reactor events.
//
// Author: momentics <momentics@gmail.com>
package publication

import (
	"github.com/eapache/queue"

	"github.com/momentics/rtc-agent/api"
	"github.com/momentics/rtc-agent/internal/strategy"
)

// Config is one registered publication: a property key bound to an output
// stream under a publication strategy.
type Config struct {
	Key             string
	StreamIndex     int
	Strategy        strategy.Strategy
	PublicationRef  api.Publication
	LastPublishedNs int64
	NextScheduledNs int64
}

// PropertyStore is the subset of property.Store the poller depends on.
type PropertyStore interface {
	Get(key string) (any, error)
	LastUpdate(key string) (int64, error)
}

// IDGenerator is the subset of idgen.Generator the poller depends on.
type IDGenerator interface {
	Next() int64
}

// PublishFunc performs the actual wire publication for cfg's strategy
// decision, given the current property value and a fresh correlation id.
type PublishFunc func(cfg *Config, value any, correlationID int64) error

// Registry is the ordered, deterministic-iteration sequence of publication
// configs.
type Registry struct {
	q *queue.Queue
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{q: queue.New()}
}

// Register appends a new config in O(1). Re-registration is additive:
// duplicates across (key, stream_index, strategy) are permitted.
func (r *Registry) Register(key string, streamIndex int, strat strategy.Strategy, pubRef api.Publication) *Config {
	cfg := &Config{
		Key:             key,
		StreamIndex:     streamIndex,
		Strategy:        strat,
		PublicationRef:  pubRef,
		LastPublishedNs: -1,
		NextScheduledNs: strat.NextTime(0),
	}
	r.q.Add(cfg)
	return cfg
}

// Unregister removes the first config matching (key, streamIndex). Returns
// whether one was found.
func (r *Registry) Unregister(key string, streamIndex int) bool {
	removed := false
	rebuilt := queue.New()
	for i := 0; i < r.q.Length(); i++ {
		cfg := r.q.Get(i).(*Config)
		if !removed && cfg.Key == key && cfg.StreamIndex == streamIndex {
			removed = true
			continue
		}
		rebuilt.Add(cfg)
	}
	r.q = rebuilt
	return removed
}

// UnregisterKey removes every config for key, returning the count removed.
func (r *Registry) UnregisterKey(key string) int {
	removed := 0
	rebuilt := queue.New()
	for i := 0; i < r.q.Length(); i++ {
		cfg := r.q.Get(i).(*Config)
		if cfg.Key == key {
			removed++
			continue
		}
		rebuilt.Add(cfg)
	}
	r.q = rebuilt
	return removed
}

// List enumerates configs preserving registration order.
func (r *Registry) List() []*Config {
	out := make([]*Config, r.q.Length())
	for i := range out {
		out[i] = r.q.Get(i).(*Config)
	}
	return out
}

// Len reports the number of registered configs.
func (r *Registry) Len() int {
	return r.q.Length()
}

// Poll iterates the registry in registration order and publishes every
// config whose strategy decides to fire. A single config's publish failure
// is reported to onError (if non-nil) and does not abort the pass. Returns
// the number of successful publications.
func (r *Registry) Poll(nowNs int64, store PropertyStore, ids IDGenerator, gate func() bool, publish PublishFunc, onError func(*Config, error)) int {
	if r.q.Length() == 0 {
		return 0
	}
	if gate != nil && !gate() {
		return 0
	}

	n := 0
	for i := 0; i < r.q.Length(); i++ {
		cfg := r.q.Get(i).(*Config)

		propTs, err := store.LastUpdate(cfg.Key)
		if err != nil {
			if onError != nil {
				onError(cfg, err)
			}
			continue
		}

		if !cfg.Strategy.ShouldPublish(cfg.LastPublishedNs, cfg.NextScheduledNs, propTs, nowNs) {
			continue
		}

		value, err := store.Get(cfg.Key)
		if err != nil {
			if onError != nil {
				onError(cfg, err)
			}
			continue
		}

		if err := publish(cfg, value, ids.Next()); err != nil {
			if onError != nil {
				onError(cfg, err)
			}
			continue
		}

		cfg.LastPublishedNs = nowNs
		cfg.NextScheduledNs = cfg.Strategy.NextTime(nowNs)
		n++
	}
	return n
}
