// Package timer implements the agent's polled deadline scheduler (spec
// §4.3): a reverse-sorted sequence of timer entries (latest deadline first,
// earliest at the tail) supporting O(1) pop of the next-due entry and
// O(log n) binary-searched insertion.
//
// Author: momentics <momentics@gmail.com>
package timer

import (
	"sort"

	"github.com/momentics/rtc-agent/internal/agenterrors"
	"github.com/momentics/rtc-agent/internal/clock"
)

// Entry is one scheduled deadline.
type Entry struct {
	DeadlineNs int64
	ID         uint64
	EventTag   string
}

// Handler is invoked once per fired timer with its event tag and the tick
// time at which it fired.
type Handler func(eventTag string, nowNs int64)

// Timer is the sorted-queue deadline scheduler. Not safe for concurrent
// use; owned exclusively by the agent's single work thread.
type Timer struct {
	clock   *clock.Source
	entries []Entry // descending by DeadlineNs; entries[len-1] is earliest
	nextID  uint64
	scratch []Entry // reused buffer for the fired batch, see Poll
}

// New returns an empty timer queue pre-sized to capacity entries (typically
// < 100 per spec §4.3) so steady-state scheduling does not allocate.
func New(clk *clock.Source, capacity int) *Timer {
	return &Timer{
		clock:   clk,
		entries: make([]Entry, 0, capacity),
		scratch: make([]Entry, 0, capacity),
	}
}

// ScheduleAt creates a timer firing at the absolute deadline. Fails with
// InvalidDeadline if deadline is before the current tick time.
func (t *Timer) ScheduleAt(deadlineNs int64, eventTag string) (uint64, error) {
	now := t.clock.Now()
	if deadlineNs < now {
		return 0, agenterrors.InvalidDeadline(deadlineNs)
	}
	t.nextID++
	id := t.nextID
	t.insert(Entry{DeadlineNs: deadlineNs, ID: id, EventTag: eventTag})
	return id, nil
}

// ScheduleIn creates a timer firing delayNs after the current tick time.
// Fails with InvalidDelay if delayNs is negative.
func (t *Timer) ScheduleIn(delayNs int64, eventTag string) (uint64, error) {
	if delayNs < 0 {
		return 0, agenterrors.InvalidDelay(delayNs)
	}
	return t.ScheduleAt(t.clock.Now()+delayNs, eventTag)
}

// insert places e in descending-deadline order. Among equal deadlines, a
// new entry is placed ahead of (further from the tail than) any existing
// entry with the same deadline, preserving first-scheduled-fires-first.
func (t *Timer) insert(e Entry) {
	idx := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].DeadlineNs <= e.DeadlineNs
	})
	t.entries = append(t.entries, Entry{})
	copy(t.entries[idx+1:], t.entries[idx:])
	t.entries[idx] = e
}

// Cancel removes the timer with the given id. Returns whether it was found.
func (t *Timer) Cancel(id uint64) bool {
	for i, e := range t.entries {
		if e.ID == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// CancelEvent removes all timers with the given event tag, returning the
// count removed.
func (t *Timer) CancelEvent(eventTag string) int {
	removed := 0
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.EventTag == eventTag {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	t.entries = kept
	return removed
}

// CancelAll drains the queue.
func (t *Timer) CancelAll() {
	t.entries = t.entries[:0]
}

// Len reports the number of pending timers.
func (t *Timer) Len() int {
	return len(t.entries)
}

// Poll fires every timer whose deadline has elapsed as of the current tick
// time, in non-decreasing deadline order (ties in insertion order), and
// returns the count fired. Timers scheduled from within a handler during
// this call are not considered for firing until the next Poll, even if
// their deadline has already elapsed — Poll operates on a snapshot of the
// entries present at entry.
func (t *Timer) Poll(h Handler) int {
	now := t.clock.Now()

	n := len(t.entries)
	cut := n
	for cut > 0 && t.entries[cut-1].DeadlineNs <= now {
		cut--
	}
	toFire := n - cut
	if toFire == 0 {
		return 0
	}

	if cap(t.scratch) < toFire {
		t.scratch = make([]Entry, toFire)
	}
	batch := t.scratch[:toFire]
	copy(batch, t.entries[cut:])
	t.entries = t.entries[:cut]

	for i := len(batch) - 1; i >= 0; i-- {
		h(batch[i].EventTag, now)
	}
	return toFire
}
