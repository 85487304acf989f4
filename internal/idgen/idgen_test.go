package idgen

import "testing"

func TestNextIsMonotonicallyIncreasing(t *testing.T) {
	ms := int64(1000)
	g := New(7, func() int64 { return ms })

	prev := g.Next()
	for i := 0; i < 5000; i++ {
		// Advance the clock every 1000 ids: on a frozen clock the 12-bit
		// sequence runs out after 4096 ids and Next spins until it moves.
		if i%1000 == 999 {
			ms++
		}
		id := g.Next()
		if id <= prev {
			t.Fatalf("Next() not increasing: prev=%d got=%d at i=%d", prev, id, i)
		}
		prev = id
	}
}

func TestNextSpinsOnSequenceExhaustion(t *testing.T) {
	ms := int64(1000)
	calls := 0
	g := New(1, func() int64 {
		calls++
		// The clock reads 1000 until the spin loop polls it again after
		// the sequence has wrapped; from then on it reads 1001.
		if calls > maxSequence+2 {
			return ms + 1
		}
		return ms
	})

	for i := 0; i <= maxSequence; i++ {
		g.Next()
	}
	// This call exhausts the sequence at ms=1000, so Next must spin until
	// the clock reports 1001.
	id := g.Next()
	if id <= 0 {
		t.Fatalf("Next() after rollover = %d, want > 0", id)
	}
	if got := id >> timeShift; got != ms+1 {
		t.Fatalf("Next() after rollover has time %d, want %d", got, ms+1)
	}
}

func TestNodeIDIsTruncated(t *testing.T) {
	g := New(maxNode+123, func() int64 { return 1 })
	if g.nodeID > maxNode || g.nodeID < 0 {
		t.Fatalf("nodeID %d out of range [0,%d]", g.nodeID, maxNode)
	}
}
