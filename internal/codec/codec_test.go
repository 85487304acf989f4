package codec

import (
	"testing"

	"github.com/momentics/rtc-agent/internal/property"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMessageRoundTripsInt64(t *testing.T) {
	msg := &EventMessage{
		TimestampNs:   123,
		CorrelationID: 456,
		Tag:           "agent-1",
		Key:           "Gain",
		Format:        FormatInt64,
		Int64Value:    -99,
	}
	buf := make([]byte, msg.EncodedLen())
	n, err := msg.Encode(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)

	decoded, consumed, err := DecodeEventMessage(buf)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.Equal(t, n, consumed)
	assert.Equal(t, msg.Tag, decoded.Tag)
	assert.Equal(t, msg.Key, decoded.Key)
	assert.Equal(t, msg.Int64Value, decoded.Int64Value)
}

func TestEventMessageRoundTripsString(t *testing.T) {
	msg := &EventMessage{Tag: "t", Key: "Name", Format: FormatString, StringValue: "hello-agent"}
	buf := make([]byte, msg.EncodedLen())
	_, err := msg.Encode(buf)
	require.NoError(t, err)

	decoded, _, err := DecodeEventMessage(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello-agent", decoded.StringValue)
}

func TestDecodeEventMessageReturnsNilOnIncompleteBuffer(t *testing.T) {
	msg, n, err := DecodeEventMessage([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Equal(t, 0, n)
}

func TestDecodeEventMessageReportsUnknownFormat(t *testing.T) {
	msg := &EventMessage{Tag: "t", Key: "k", Format: FormatBool, BoolValue: true}
	buf := make([]byte, msg.EncodedLen())
	_, err := msg.Encode(buf)
	require.NoError(t, err)
	buf[eventHeaderLen-1] = 0xFF // corrupt the format byte

	_, _, err = DecodeEventMessage(buf)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestTensorMessageHeaderEncodesAndDataStaysVectored(t *testing.T) {
	msg := &TensorMessage{
		TimestampNs:   1,
		CorrelationID: 2,
		Tag:           "cam0",
		ElementFormat: FormatBytes,
		MajorOrder:    ColumnMajor,
		Dims:          []int32{3, 4},
		Origin:        "camera",
		Data:          []byte{9, 9, 9},
	}
	hdr := make([]byte, msg.HeaderLen())
	n, err := msg.EncodeHeader(hdr)
	require.NoError(t, err)
	assert.Equal(t, len(hdr), n)

	full := append(append([]byte{}, hdr...), msg.Data...)
	decoded, consumed, err := DecodeTensorMessage(full)
	require.NoError(t, err)
	assert.Equal(t, len(full), consumed)
	assert.Equal(t, msg.Dims, decoded.Dims)
	assert.Equal(t, msg.Origin, decoded.Origin)
	assert.Equal(t, msg.Data, decoded.Data)
}

func TestFormatFromPropertyTypeCoversAllTypes(t *testing.T) {
	assert.Equal(t, FormatInt64, FormatFromPropertyType(property.TypeInt64))
	assert.Equal(t, FormatFloat64, FormatFromPropertyType(property.TypeFloat64))
	assert.Equal(t, FormatString, FormatFromPropertyType(property.TypeString))
	assert.Equal(t, FormatSymbol, FormatFromPropertyType(property.TypeSymbol))
	assert.Equal(t, FormatBool, FormatFromPropertyType(property.TypeBool))
	assert.Equal(t, FormatBytes, FormatFromPropertyType(property.TypeBytes))
}
