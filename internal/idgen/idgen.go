// Package idgen generates per-process unique, monotonically increasing
// 64-bit correlation IDs using a Snowflake-style layout: timestamp bits,
// node bits, sequence bits (spec §4.1).
//
// Author: momentics <momentics@gmail.com>
package idgen

import "sync"

const (
	nodeBits     = 10
	sequenceBits = 12

	maxNode     = (1 << nodeBits) - 1
	maxSequence = (1 << sequenceBits) - 1

	nodeShift = sequenceBits
	timeShift = sequenceBits + nodeBits
)

// NowMillisFunc is the wall-clock source; overridable in tests so sequence
// overflow can be exercised deterministically.
type NowMillisFunc func() int64

// Generator emits 64-bit correlation IDs. Next is guarded by a mutex, so it
// is safe for concurrent use, although the agent only calls it from its
// single work thread.
type Generator struct {
	mu        sync.Mutex
	nodeID    int64
	nowMillis NowMillisFunc
	lastMs    int64
	sequence  int64
}

// New returns a Generator for the given node ID (truncated to nodeBits).
func New(nodeID int64, nowMillis NowMillisFunc) *Generator {
	return &Generator{
		nodeID:    nodeID & maxNode,
		nowMillis: nowMillis,
		lastMs:    -1,
	}
}

// Next returns the next ID. Infallible and non-blocking under realistic
// rates; on sequence exhaustion within a millisecond it spins until the
// clock advances.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.nowMillis()
	if ms == g.lastMs {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			for ms <= g.lastMs {
				ms = g.nowMillis()
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastMs = ms

	return (ms << timeShift) | (g.nodeID << nodeShift) | g.sequence
}
