// Package clock provides the agent's single time source: a monotonic
// nanosecond sample taken once per do_work tick and read by every other
// component for the remainder of that tick (spec §4.1, the "canonical tick
// time").
//
// The raw monotonic/epoch source is an injectable collaborator (out of
// scope per the agent's own spec) rather than a hard dependency on
// time.Now, so tests can pin the clock precisely.
//
// Author: momentics <momentics@gmail.com>
package clock

import "time"

// NanosFunc returns the current instant in nanoseconds since an arbitrary
// epoch; only monotonicity across calls within a process matters.
type NanosFunc func() int64

// Source samples and caches the current instant. Now returns 0 until the
// first Fetch.
type Source struct {
	nanos    NanosFunc
	cachedNs int64
}

// New returns a Source backed by the real OS monotonic clock, expressed as
// epoch nanoseconds: the wall-clock time at construction plus the monotonic
// time elapsed since.
func New() *Source {
	start := time.Now()
	epochNs := start.UnixNano()
	return NewWithSource(func() int64 { return epochNs + int64(time.Since(start)) })
}

// NewWithSource returns a Source backed by an injected nanosecond function,
// for deterministic tests.
func NewWithSource(nanos NanosFunc) *Source {
	return &Source{nanos: nanos}
}

// Fetch samples the underlying source and caches it. Called exactly once
// per tick by the work scheduler.
func (s *Source) Fetch() int64 {
	s.cachedNs = s.nanos()
	return s.cachedNs
}

// Now returns the cached sample from the most recent Fetch.
func (s *Source) Now() int64 {
	return s.cachedNs
}
