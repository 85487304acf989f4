package property

import (
	"errors"
	"testing"

	"github.com/momentics/rtc-agent/api"
	"github.com/momentics/rtc-agent/internal/agenterrors"
	"github.com/momentics/rtc-agent/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreAt(t *testing.T, ns int64) (*Store, *clock.Source) {
	t.Helper()
	clk := clock.New()
	s := New(clk)
	clk.Fetch()
	return s, clk
}

func TestGetUndeclaredFails(t *testing.T) {
	s, _ := newStoreAt(t, 0)
	_, err := s.Get("Missing")
	require.Error(t, err)
	var agentErr *agenterrors.AgentError
	require.True(t, errors.As(err, &agentErr))
	assert.Equal(t, agenterrors.KindPropertyNotFound, agentErr.Kind)
}

func TestSetReadOnlyFails(t *testing.T) {
	s, _ := newStoreAt(t, 0)
	s.Declare(Descriptor{Name: "Name", Type: TypeString, Access: api.Readable}, "svc")

	err := s.Set("Name", "other")
	require.Error(t, err)
	var agentErr *agenterrors.AgentError
	require.True(t, errors.As(err, &agentErr))
	assert.Equal(t, agenterrors.KindPropertyAccessDenied, agentErr.Kind)
}

func TestSetUpdatesLastUpdateMonotonically(t *testing.T) {
	s, clk := newStoreAt(t, 0)
	s.Declare(Descriptor{Name: "HeartbeatPeriodNs", Type: TypeInt64, Access: api.ReadWrite}, int64(10))

	clk.Fetch()
	require.NoError(t, s.Set("HeartbeatPeriodNs", int64(20)))
	first, err := s.LastUpdate("HeartbeatPeriodNs")
	require.NoError(t, err)

	clk.Fetch()
	require.NoError(t, s.Set("HeartbeatPeriodNs", int64(30)))
	second, err := s.LastUpdate("HeartbeatPeriodNs")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, second, first)

	val, err := s.Get("HeartbeatPeriodNs")
	require.NoError(t, err)
	assert.Equal(t, int64(30), val)
}

func TestOnSetCanRejectOrTransform(t *testing.T) {
	s, _ := newStoreAt(t, 0)
	s.Declare(Descriptor{
		Name:   "LogLevel",
		Type:   TypeSymbol,
		Access: api.ReadWrite,
		OnSet: func(key string, current, proposed any) (any, error) {
			lvl, _ := proposed.(string)
			if lvl != "Info" && lvl != "Debug" {
				return nil, agenterrors.PropertyValidation(key, "unsupported level")
			}
			return lvl, nil
		},
	}, "Info")

	require.NoError(t, s.Set("LogLevel", "Debug"))
	val, err := s.Get("LogLevel")
	require.NoError(t, err)
	assert.Equal(t, "Debug", val)

	err = s.Set("LogLevel", "Trace")
	require.Error(t, err)
}

func TestOnGetOverridesStoredValue(t *testing.T) {
	s, _ := newStoreAt(t, 0)
	calls := 0
	s.Declare(Descriptor{
		Name:   "GCBytes",
		Type:   TypeInt64,
		Access: api.Readable,
		OnGet: func(key string, stored any) any {
			calls++
			return int64(calls)
		},
	}, nil)

	v1, err := s.Get("GCBytes")
	require.NoError(t, err)
	v2, err := s.Get("GCBytes")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
}

func TestNamesPreservesDeclarationOrder(t *testing.T) {
	s, _ := newStoreAt(t, 0)
	s.Declare(Descriptor{Name: "A", Type: TypeInt64, Access: api.Readable}, int64(1))
	s.Declare(Descriptor{Name: "B", Type: TypeInt64, Access: api.Readable}, int64(2))
	s.Declare(Descriptor{Name: "C", Type: TypeInt64, Access: api.Readable}, int64(3))

	assert.Equal(t, []string{"A", "B", "C"}, s.Names())
}
