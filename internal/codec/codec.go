// File: internal/codec/codec.go
// Package codec implements the thin typed adapter over the host fleet's
// SBE-style wire schema (spec §6 "message codec, consumed as-is"): a
// binary.BigEndian header-plus-body layout mirroring the framing style of
// the transport's own frame codec, specialized to EventMessage and
// TensorMessage instead of WebSocket frames.
//
// Author: momentics <momentics@gmail.com>
package codec

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/momentics/rtc-agent/internal/property"
)

// MajorOrder is the element ordering of a TensorMessage's raw bytes.
type MajorOrder uint8

const (
	RowMajor MajorOrder = iota
	ColumnMajor
)

// Format tags the wire type of an EventMessage's value, aligned one-to-one
// with property.Type plus a NOTHING tag marking a read request.
type Format uint8

const (
	FormatNothing Format = iota
	FormatInt64
	FormatFloat64
	FormatString
	FormatSymbol
	FormatBool
	FormatBytes
)

func (f Format) String() string {
	switch f {
	case FormatNothing:
		return "Nothing"
	case FormatInt64:
		return "Int64"
	case FormatFloat64:
		return "Float64"
	case FormatString:
		return "String"
	case FormatSymbol:
		return "Symbol"
	case FormatBool:
		return "Bool"
	case FormatBytes:
		return "Bytes"
	default:
		return "Unknown"
	}
}

func FormatFromPropertyType(t property.Type) Format {
	switch t {
	case property.TypeInt64:
		return FormatInt64
	case property.TypeFloat64:
		return FormatFloat64
	case property.TypeString:
		return FormatString
	case property.TypeSymbol:
		return FormatSymbol
	case property.TypeBool:
		return FormatBool
	case property.TypeBytes:
		return FormatBytes
	default:
		return FormatNothing
	}
}

var (
	// ErrTruncated signals a destination buffer shorter than the encoded
	// message needs; Encode and EncodeHeader return it. Decoders report an
	// incomplete input as (nil, 0, nil) instead.
	ErrTruncated = errors.New("codec: truncated message")
	// ErrUnknownFormat signals a Format byte the decoder does not recognize.
	ErrUnknownFormat = errors.New("codec: unknown format byte")
)

// EventMessage is the decoded form of a control/status wire message: a
// timestamped, correlated (tag, key, value) tuple.
type EventMessage struct {
	TimestampNs   int64
	CorrelationID int64
	Tag           string
	Key           string
	Format        Format
	Int64Value    int64
	Float64Value  float64
	StringValue   string
	BoolValue     bool
	BytesValue    []byte
}

// eventHeaderLen is timestamp(8) + correlation(8) + tagLen(2) + keyLen(2) + format(1).
const eventHeaderLen = 8 + 8 + 2 + 2 + 1

// DecodeEventMessage decodes one EventMessage from the head of raw,
// returning the message and the number of bytes consumed. Returns
// (nil, 0, nil) if raw does not yet hold a complete message, mirroring the
// transport frame codec's incomplete-frame convention.
func DecodeEventMessage(raw []byte) (*EventMessage, int, error) {
	if len(raw) < eventHeaderLen {
		return nil, 0, nil
	}
	msg := &EventMessage{}
	off := 0
	msg.TimestampNs = int64(binary.BigEndian.Uint64(raw[off:]))
	off += 8
	msg.CorrelationID = int64(binary.BigEndian.Uint64(raw[off:]))
	off += 8
	tagLen := int(binary.BigEndian.Uint16(raw[off:]))
	off += 2
	keyLen := int(binary.BigEndian.Uint16(raw[off:]))
	off += 2
	msg.Format = Format(raw[off])
	off++

	if len(raw) < off+tagLen+keyLen {
		return nil, 0, nil
	}
	msg.Tag = string(raw[off : off+tagLen])
	off += tagLen
	msg.Key = string(raw[off : off+keyLen])
	off += keyLen

	switch msg.Format {
	case FormatNothing:
	case FormatInt64:
		if len(raw) < off+8 {
			return nil, 0, nil
		}
		msg.Int64Value = int64(binary.BigEndian.Uint64(raw[off:]))
		off += 8
	case FormatFloat64:
		if len(raw) < off+8 {
			return nil, 0, nil
		}
		bits := binary.BigEndian.Uint64(raw[off:])
		msg.Float64Value = floatFromBits(bits)
		off += 8
	case FormatString, FormatSymbol:
		if len(raw) < off+4 {
			return nil, 0, nil
		}
		n := int(binary.BigEndian.Uint32(raw[off:]))
		off += 4
		if len(raw) < off+n {
			return nil, 0, nil
		}
		msg.StringValue = string(raw[off : off+n])
		off += n
	case FormatBool:
		if len(raw) < off+1 {
			return nil, 0, nil
		}
		msg.BoolValue = raw[off] != 0
		off++
	case FormatBytes:
		if len(raw) < off+4 {
			return nil, 0, nil
		}
		n := int(binary.BigEndian.Uint32(raw[off:]))
		off += 4
		if len(raw) < off+n {
			return nil, 0, nil
		}
		msg.BytesValue = append([]byte(nil), raw[off:off+n]...)
		off += n
	default:
		return nil, 0, ErrUnknownFormat
	}
	return msg, off, nil
}

// EncodedLen reports how many bytes Encode will write, so callers can size
// a claimed publication buffer before encoding into it.
func (m *EventMessage) EncodedLen() int {
	n := eventHeaderLen + len(m.Tag) + len(m.Key)
	switch m.Format {
	case FormatInt64, FormatFloat64:
		n += 8
	case FormatString, FormatSymbol:
		n += 4 + len(m.StringValue)
	case FormatBool:
		n++
	case FormatBytes:
		n += 4 + len(m.BytesValue)
	}
	return n
}

// Encode writes m into dst, which must be at least EncodedLen() bytes, and
// returns the number of bytes written. Encode never allocates.
func (m *EventMessage) Encode(dst []byte) (int, error) {
	need := m.EncodedLen()
	if len(dst) < need {
		return 0, ErrTruncated
	}
	off := 0
	binary.BigEndian.PutUint64(dst[off:], uint64(m.TimestampNs))
	off += 8
	binary.BigEndian.PutUint64(dst[off:], uint64(m.CorrelationID))
	off += 8
	binary.BigEndian.PutUint16(dst[off:], uint16(len(m.Tag)))
	off += 2
	binary.BigEndian.PutUint16(dst[off:], uint16(len(m.Key)))
	off += 2
	dst[off] = byte(m.Format)
	off++
	off += copy(dst[off:], m.Tag)
	off += copy(dst[off:], m.Key)

	switch m.Format {
	case FormatNothing:
	case FormatInt64:
		binary.BigEndian.PutUint64(dst[off:], uint64(m.Int64Value))
		off += 8
	case FormatFloat64:
		binary.BigEndian.PutUint64(dst[off:], floatToBits(m.Float64Value))
		off += 8
	case FormatString, FormatSymbol:
		binary.BigEndian.PutUint32(dst[off:], uint32(len(m.StringValue)))
		off += 4
		off += copy(dst[off:], m.StringValue)
	case FormatBool:
		if m.BoolValue {
			dst[off] = 1
		} else {
			dst[off] = 0
		}
		off++
	case FormatBytes:
		binary.BigEndian.PutUint32(dst[off:], uint32(len(m.BytesValue)))
		off += 4
		off += copy(dst[off:], m.BytesValue)
	default:
		return 0, ErrUnknownFormat
	}
	return off, nil
}

// TensorMessage is the decoded form of an input-stream data message: a
// timestamped, typed, multi-dimensional array carried as raw element bytes.
type TensorMessage struct {
	TimestampNs   int64
	CorrelationID int64
	Tag           string
	ElementFormat Format
	MajorOrder    MajorOrder
	Dims          []int32
	Origin        string
	Data          []byte
}

const tensorHeaderLen = 8 + 8 + 2 + 1 + 1 + 2 + 2 // ts, corr, tagLen, fmt, order, dimCount, originLen

// DecodeTensorMessage decodes one TensorMessage from the head of raw. The
// returned Data aliases raw and must be copied by the caller before the
// buffer is reused (spec §3 Ownership).
func DecodeTensorMessage(raw []byte) (*TensorMessage, int, error) {
	if len(raw) < tensorHeaderLen {
		return nil, 0, nil
	}
	msg := &TensorMessage{}
	off := 0
	msg.TimestampNs = int64(binary.BigEndian.Uint64(raw[off:]))
	off += 8
	msg.CorrelationID = int64(binary.BigEndian.Uint64(raw[off:]))
	off += 8
	tagLen := int(binary.BigEndian.Uint16(raw[off:]))
	off += 2
	msg.ElementFormat = Format(raw[off])
	off++
	msg.MajorOrder = MajorOrder(raw[off])
	off++
	dimCount := int(binary.BigEndian.Uint16(raw[off:]))
	off += 2
	originLen := int(binary.BigEndian.Uint16(raw[off:]))
	off += 2

	need := tagLen + dimCount*4 + originLen + 4
	if len(raw) < off+need {
		return nil, 0, nil
	}
	msg.Tag = string(raw[off : off+tagLen])
	off += tagLen

	msg.Dims = make([]int32, dimCount)
	for i := range msg.Dims {
		msg.Dims[i] = int32(binary.BigEndian.Uint32(raw[off:]))
		off += 4
	}
	msg.Origin = string(raw[off : off+originLen])
	off += originLen

	dataLen := int(binary.BigEndian.Uint32(raw[off:]))
	off += 4
	if len(raw) < off+dataLen {
		return nil, 0, nil
	}
	msg.Data = raw[off : off+dataLen]
	off += dataLen
	return msg, off, nil
}

// HeaderLen reports the byte length of the TensorMessage's own header plus
// tag/dims/origin, excluding the raw element payload — the piece that must
// be copied into a scratch buffer before a vectored Offer (spec §4.8).
func (m *TensorMessage) HeaderLen() int {
	return tensorHeaderLen + len(m.Tag) + len(m.Dims)*4 + len(m.Origin) + 4
}

// EncodeHeader writes every field except Data into dst, which must be at
// least HeaderLen() bytes, returning the number of bytes written. Callers
// pass (EncodeHeader's output, m.Data) as the two segments of a vectored
// Publication.Offer, avoiding a copy of the (potentially large) element
// payload.
func (m *TensorMessage) EncodeHeader(dst []byte) (int, error) {
	need := m.HeaderLen()
	if len(dst) < need {
		return 0, ErrTruncated
	}
	off := 0
	binary.BigEndian.PutUint64(dst[off:], uint64(m.TimestampNs))
	off += 8
	binary.BigEndian.PutUint64(dst[off:], uint64(m.CorrelationID))
	off += 8
	binary.BigEndian.PutUint16(dst[off:], uint16(len(m.Tag)))
	off += 2
	dst[off] = byte(m.ElementFormat)
	off++
	dst[off] = byte(m.MajorOrder)
	off++
	binary.BigEndian.PutUint16(dst[off:], uint16(len(m.Dims)))
	off += 2
	binary.BigEndian.PutUint16(dst[off:], uint16(len(m.Origin)))
	off += 2
	off += copy(dst[off:], m.Tag)
	for _, d := range m.Dims {
		binary.BigEndian.PutUint32(dst[off:], uint32(d))
		off += 4
	}
	off += copy(dst[off:], m.Origin)
	binary.BigEndian.PutUint32(dst[off:], uint32(len(m.Data)))
	off += 4
	return off, nil
}

func floatToBits(f float64) uint64   { return math.Float64bits(f) }
func floatFromBits(b uint64) float64 { return math.Float64frombits(b) }
