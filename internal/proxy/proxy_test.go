package proxy

import (
	"testing"

	"github.com/momentics/rtc-agent/api"
	"github.com/momentics/rtc-agent/fake"
	"github.com/momentics/rtc-agent/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusProxyPublishesScalarAndCommits(t *testing.T) {
	pub := fake.NewPublication()
	p := NewStatusProxy(pub, nil, 64)

	err := p.PublishEvent("Gain", int64(42), "agent-1", 7, 1000)
	require.NoError(t, err)

	out := pub.Drain()
	require.Len(t, out, 1)

	decoded, _, err := codec.DecodeEventMessage(out[0])
	require.NoError(t, err)
	assert.Equal(t, "Gain", decoded.Key)
	assert.Equal(t, int64(42), decoded.Int64Value)
	assert.Equal(t, int64(7), decoded.CorrelationID)
}

func TestStatusProxySilentlySwallowsNotConnected(t *testing.T) {
	pub := fake.NewPublication()
	pub.SetConnected(false)
	p := NewStatusProxy(pub, nil, 64)

	err := p.PublishEvent("Gain", int64(1), "tag", 1, 0)
	assert.NoError(t, err)
}

func TestStatusProxyRetriesThenFailsOnSustainedBackPressure(t *testing.T) {
	pub := fake.NewPublication()
	pub.SetBackPressured(true)
	p := NewStatusProxy(pub, nil, 64)

	err := p.PublishEvent("Gain", int64(1), "tag", 1, 0)
	assert.Error(t, err)
}

func TestStatusProxyPublishesTensorViaVectoredOffer(t *testing.T) {
	pub := fake.NewPublication()
	p := NewStatusProxy(pub, nil, 64)

	tensor := &codec.TensorMessage{Tag: "cam0", Dims: []int32{2}, Data: []byte{5, 6}}
	err := p.PublishTensor(tensor)
	require.NoError(t, err)

	out := pub.Drain()
	require.Len(t, out, 1)
	decoded, _, err := codec.DecodeTensorMessage(out[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6}, decoded.Data)
}

func TestPropertyProxyRejectsUnknownStreamIndex(t *testing.T) {
	p := NewPropertyProxy(nil, nil, 64)
	err := p.PublishEvent(0, "Gain", int64(1), "tag", 1, 0)
	assert.Error(t, err)
}

func TestPropertyProxyPublishesToCorrectStreamIndex(t *testing.T) {
	pub0 := fake.NewPublication()
	pub1 := fake.NewPublication()
	p := NewPropertyProxy([]api.Publication{pub0, pub1}, nil, 64)

	require.NoError(t, p.PublishEvent(1, "Gain", int64(9), "tag", 1, 0))
	assert.Empty(t, pub0.Drain())
	assert.Len(t, pub1.Drain(), 1)
}

func TestStatusProxyAcquiresScratchBuffersFromInjectedPool(t *testing.T) {
	pub := fake.NewPublication()
	pool := fake.NewBytePool()

	p := NewStatusProxy(pub, pool, 64)
	require.NoError(t, p.PublishEvent("Gain", int64(1), "tag", 1, 0))

	acquired, _ := pool.Counts()
	assert.Equal(t, 2, acquired)
}
