// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake Publication/Subscription pair for testing the core against the
// messaging fabric boundary (api.Publication, api.Subscription) without a
// real transport. A Publication keeps what it publishes, in submission order,
// until Drain is called; a Subscription delivers what was Fed to it. Neither
// is linked to the other. Both have optional injected failure modes.

package fake

import (
	"sync"

	"github.com/momentics/rtc-agent/api"
)

// Publication is an in-process, single-peer api.Publication.
type Publication struct {
	mu           sync.Mutex
	outbox       [][]byte
	connected    bool
	backPressure bool
	closed       bool
}

// NewPublication returns a connected publication with no back-pressure.
func NewPublication() *Publication {
	return &Publication{connected: true}
}

// SetConnected toggles the ErrNotConnected failure mode.
func (p *Publication) SetConnected(connected bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = connected
}

// SetBackPressured toggles the ErrBackPressured failure mode.
func (p *Publication) SetBackPressured(bp bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.backPressure = bp
}

// TryClaim implements api.Publication.
func (p *Publication) TryClaim(length int) (api.Claim, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return api.Claim{}, api.ErrTransportClosed
	}
	if !p.connected {
		return api.Claim{}, api.ErrNotConnected
	}
	if p.backPressure {
		return api.Claim{}, api.ErrBackPressured
	}
	return api.NewClaim(make([]byte, length), p), nil
}

// Offer implements api.Publication.
func (p *Publication) Offer(segments ...[]byte) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return -1, api.ErrTransportClosed
	}
	if !p.connected {
		return -1, api.ErrNotConnected
	}
	if p.backPressure {
		return -1, api.ErrBackPressured
	}
	total := 0
	for _, s := range segments {
		total += len(s)
	}
	buf := make([]byte, 0, total)
	for _, s := range segments {
		buf = append(buf, s...)
	}
	p.outbox = append(p.outbox, buf)
	return int64(len(p.outbox)), nil
}

// Commit implements api.Committer for claims acquired via TryClaim.
func (p *Publication) Commit(c api.Claim, n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	dup := make([]byte, n)
	copy(dup, c.Data[:n])
	p.outbox = append(p.outbox, dup)
	return nil
}

// Abort implements api.Committer.
func (p *Publication) Abort(c api.Claim) error { return nil }

// Close implements api.Publication.
func (p *Publication) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Drain removes and returns everything published so far, for assertions or
// for feeding a paired Subscription.
func (p *Publication) Drain() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.outbox
	p.outbox = nil
	return out
}

// Subscription is an in-process api.Subscription fed by a preloaded queue of
// messages, simulating fragments already reassembled by the transport.
type Subscription struct {
	mu      sync.Mutex
	queue   [][]byte
	closed  bool
	pollErr error
}

// NewSubscription returns an empty subscription.
func NewSubscription() *Subscription { return &Subscription{} }

// Feed appends messages to be delivered by subsequent Poll calls.
func (s *Subscription) Feed(messages ...[]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, messages...)
}

// SetPollError makes the next Poll calls fail with err.
func (s *Subscription) SetPollError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pollErr = err
}

// Poll implements api.Subscription.
func (s *Subscription) Poll(h api.Handler, limit int) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, api.ErrTransportClosed
	}
	if s.pollErr != nil {
		err := s.pollErr
		s.mu.Unlock()
		return 0, err
	}
	n := limit
	if n > len(s.queue) {
		n = len(s.queue)
	}
	batch := s.queue[:n]
	s.queue = s.queue[n:]
	s.mu.Unlock()

	delivered := 0
	for _, msg := range batch {
		if err := h.Handle(api.Buffer{Data: msg}); err != nil {
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}

// Close implements api.Subscription.
func (s *Subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Pending reports how many messages remain queued.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
