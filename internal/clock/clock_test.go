package clock

import "testing"

func TestFetchCachesAndNowReflectsIt(t *testing.T) {
	n := int64(100)
	c := NewWithSource(func() int64 { return n })
	if got := c.Now(); got != 0 {
		t.Fatalf("Now() before Fetch = %d, want 0", got)
	}

	sampled := c.Fetch()
	if sampled != 100 {
		t.Fatalf("Fetch() = %d, want 100", sampled)
	}
	if got := c.Now(); got != sampled {
		t.Fatalf("Now() = %d, want %d (cached sample)", got, sampled)
	}

	// Now() is stable until the next Fetch, even if the source advances.
	n = 200
	for i := 0; i < 3; i++ {
		if got := c.Now(); got != sampled {
			t.Fatalf("Now() drifted to %d without a Fetch", got)
		}
	}
}

func TestFetchReflectsSourceOnEachCall(t *testing.T) {
	n := int64(10)
	c := NewWithSource(func() int64 { return n })

	if got := c.Fetch(); got != 10 {
		t.Fatalf("Fetch() = %d, want 10", got)
	}
	n = 20
	if got := c.Fetch(); got != 20 {
		t.Fatalf("Fetch() = %d, want 20", got)
	}
}

func TestRealClockProducesIncreasingSamples(t *testing.T) {
	c := New()
	first := c.Fetch()
	second := c.Fetch()
	if second < first {
		t.Fatalf("Fetch() went backwards: %d then %d", first, second)
	}
}
