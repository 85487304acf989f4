package publication

import (
	"testing"

	"github.com/momentics/rtc-agent/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values map[string]any
	tsNs   map[string]int64
}

func (s *fakeStore) Get(key string) (any, error)          { return s.values[key], nil }
func (s *fakeStore) LastUpdate(key string) (int64, error) { return s.tsNs[key], nil }

type fakeIDGen struct{ n int64 }

func (g *fakeIDGen) Next() int64 { g.n++; return g.n }

func TestRegisterIsAdditiveAndPreservesOrder(t *testing.T) {
	r := New()
	r.Register("A", 0, strategy.NewOnUpdate(), nil)
	r.Register("B", 0, strategy.NewOnUpdate(), nil)
	r.Register("A", 0, strategy.NewOnUpdate(), nil)

	keys := make([]string, 0)
	for _, c := range r.List() {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{"A", "B", "A"}, keys)
}

func TestRegisterUnregisterRoundTrips(t *testing.T) {
	r := New()
	r.Register("A", 0, strategy.NewOnUpdate(), nil)
	r.Register("B", 1, strategy.NewOnUpdate(), nil)

	require.True(t, r.Unregister("A", 0))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, "B", r.List()[0].Key)
}

func TestUnregisterKeyRemovesAllMatches(t *testing.T) {
	r := New()
	r.Register("A", 0, strategy.NewOnUpdate(), nil)
	r.Register("A", 1, strategy.NewOnUpdate(), nil)
	r.Register("B", 0, strategy.NewOnUpdate(), nil)

	removed := r.UnregisterKey("A")
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, r.Len())
}

func TestPollPublishesAccordingToStrategyAndAdvancesState(t *testing.T) {
	r := New()
	cfg := r.Register("Temp", 0, strategy.NewOnUpdate(), nil)

	store := &fakeStore{values: map[string]any{"Temp": int64(42)}, tsNs: map[string]int64{"Temp": 100}}
	ids := &fakeIDGen{}

	var published []int64
	n := r.Poll(100, store, ids, nil, func(c *Config, value any, correlationID int64) error {
		published = append(published, correlationID)
		return nil
	}, nil)

	assert.Equal(t, 1, n)
	assert.Equal(t, int64(100), cfg.LastPublishedNs)
	assert.Len(t, published, 1)

	// Second poll at the same tick time with no new update must not re-fire.
	n2 := r.Poll(100, store, ids, nil, func(c *Config, value any, correlationID int64) error {
		t.Fatal("should not publish again without a property update")
		return nil
	}, nil)
	assert.Equal(t, 0, n2)
}

func TestPollHonorsGatePredicate(t *testing.T) {
	r := New()
	r.Register("Temp", 0, strategy.NewOnUpdate(), nil)
	store := &fakeStore{values: map[string]any{"Temp": int64(1)}, tsNs: map[string]int64{"Temp": 100}}

	n := r.Poll(100, store, &fakeIDGen{}, func() bool { return false }, func(*Config, any, int64) error {
		t.Fatal("gate closed; must not publish")
		return nil
	}, nil)
	assert.Equal(t, 0, n)
}

func TestPollReportsFailureWithoutAbortingPass(t *testing.T) {
	r := New()
	r.Register("A", 0, strategy.NewOnUpdate(), nil)
	r.Register("B", 0, strategy.NewOnUpdate(), nil)
	store := &fakeStore{
		values: map[string]any{"A": 1, "B": 2},
		tsNs:   map[string]int64{"A": 100, "B": 100},
	}

	var errored []string
	n := r.Poll(100, store, &fakeIDGen{}, nil, func(c *Config, value any, correlationID int64) error {
		if c.Key == "A" {
			return assertErr{}
		}
		return nil
	}, func(c *Config, err error) {
		errored = append(errored, c.Key)
	})

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"A"}, errored)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
