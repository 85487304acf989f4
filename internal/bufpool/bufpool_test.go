package bufpool

import "testing"

func TestAcquireReturnsPooledBufferWhenAvailable(t *testing.T) {
	p := New(1, 16)
	buf := p.Acquire(8)
	if len(buf) != 8 {
		t.Fatalf("len = %d, want 8", len(buf))
	}
}

func TestAcquireAllocatesFreshBufferWhenPoolEmpty(t *testing.T) {
	p := New(0, 16)
	buf := p.Acquire(8)
	if len(buf) != 8 {
		t.Fatalf("len = %d, want 8", len(buf))
	}
}

func TestAcquireAllocatesFreshBufferWhenRequestExceedsPooledCapacity(t *testing.T) {
	p := New(1, 4)
	buf := p.Acquire(32)
	if cap(buf) < 32 {
		t.Fatalf("cap = %d, want >= 32", cap(buf))
	}
}

func TestReleaseDiscardsBeyondCapacity(t *testing.T) {
	p := New(1, 16)
	first := p.Acquire(16)
	p.Release(first)
	p.Release(make([]byte, 16))

	a := p.Acquire(16)
	b := p.Acquire(16)
	if len(a) != 16 || len(b) != 16 {
		t.Fatalf("expected both acquisitions to satisfy len 16, got %d and %d", len(a), len(b))
	}
}
