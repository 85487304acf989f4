package config

import (
	"testing"

	"github.com/momentics/rtc-agent/internal/agenterrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	env := map[string]string{
		"BLOCK_NAME":        "agent-1",
		"BLOCK_ID":          "7",
		"STATUS_URI":        "aeron:ipc",
		"STATUS_STREAM_ID":  "1",
		"CONTROL_URI":       "aeron:ipc",
		"CONTROL_STREAM_ID": "2",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoadFailsOnMissingRequiredVar(t *testing.T) {
	_, err := Load(Overlay{})
	var agentErr *agenterrors.AgentError
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, agenterrors.KindEnvironmentVariable, agentErr.Kind)
}

func TestLoadAppliesDefaultsWhenOptionalVarsUnset(t *testing.T) {
	setRequiredEnv(t)
	c, err := Load(Overlay{})
	require.NoError(t, err)
	assert.Equal(t, "agent-1", c.Name)
	assert.Equal(t, int64(7), c.NodeID)
	assert.Equal(t, int64(10_000_000_000), c.HeartbeatPeriodNs)
	assert.Equal(t, int64(1_000_000_000), c.LateMessageThresholdNs)
	assert.Equal(t, "Info", c.LogLevel)
}

func TestLoadReadsIndexedDataConnectionsUntilGap(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SUB_DATA_URI_0", "aeron:udp?endpoint=0")
	t.Setenv("SUB_DATA_STREAM_0", "10")
	t.Setenv("SUB_DATA_URI_1", "aeron:udp?endpoint=1")
	t.Setenv("SUB_DATA_STREAM_1", "11")

	c, err := Load(Overlay{})
	require.NoError(t, err)
	require.Len(t, c.SubData, 2)
	assert.Equal(t, int64(10), c.SubData[0].StreamID)
	assert.Equal(t, int64(11), c.SubData[1].StreamID)
}

func TestOverlayValuesTakePrecedenceOverEnv(t *testing.T) {
	setRequiredEnv(t)
	c, err := Load(Overlay{Name: "overlay-name"})
	require.NoError(t, err)
	assert.Equal(t, "overlay-name", c.Name)
}

func TestLoadOverlayReturnsZeroValueForMissingFile(t *testing.T) {
	o, err := LoadOverlay("/nonexistent/path.yaml")
	require.NoError(t, err)
	assert.Equal(t, Overlay{}, o)
}
