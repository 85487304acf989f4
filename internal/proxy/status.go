// File: internal/proxy/status.go
// Package proxy implements the outbound publication-side encoding (spec
// §4.8): StatusProxy (one publication) and PropertyProxy (many, indexed),
// both claim-and-commit for scalars and vectored-offer for tensors, with a
// bounded retry on back-pressure.
//
// Author: momentics <momentics@gmail.com>
package proxy

import (
	"github.com/momentics/rtc-agent/api"
	"github.com/momentics/rtc-agent/internal/codec"
)

// maxClaimAttempts bounds the back-pressure retry loop within a single tick
// (spec §5: "bounded retry (≤ 10) ... the loop does not sleep").
const maxClaimAttempts = 10

// StatusProxy owns a single output publication and its scratch buffer for
// status events (Heartbeat, State, Properties echo, StateChange, Error).
type StatusProxy struct {
	pub        api.Publication
	scratch    []byte
	tensorHead []byte
}

// NewStatusProxy returns a proxy with pre-sized scratch buffers acquired
// once from pool, avoiding any allocation in the steady-state publish path.
// pool may be nil, in which case buffers are allocated directly.
func NewStatusProxy(pub api.Publication, pool api.BytePool, scratchSize int) *StatusProxy {
	return &StatusProxy{
		pub:        pub,
		scratch:    acquire(pool, scratchSize),
		tensorHead: acquire(pool, scratchSize),
	}
}

func acquire(pool api.BytePool, n int) []byte {
	if pool == nil {
		return make([]byte, n)
	}
	return pool.Acquire(n)
}

// PublishEvent encodes and publishes a scalar value (spec §4.8 scalar path).
// NotConnected is swallowed silently; BackPressured is retried up to
// maxClaimAttempts before being propagated.
func (p *StatusProxy) PublishEvent(key string, value any, tag string, correlationID int64, tsNs int64) error {
	msg := toEventMessage(key, value, tag, correlationID, tsNs)
	return p.publishScalar(msg)
}

// PublishTensor encodes and offers a tensor value via the vectored path
// (spec §4.8 array/tensor path): the element payload is never copied.
func (p *StatusProxy) PublishTensor(tensor *codec.TensorMessage) error {
	return publishTensor(p.pub, &p.tensorHead, tensor)
}

func (p *StatusProxy) publishScalar(msg *codec.EventMessage) error {
	return publishScalar(p.pub, &p.scratch, msg)
}

// toEventMessage maps a Go value to an EventMessage, selecting the Format
// from the value's Go type: a string is always sent as FormatString (also
// for Symbol properties), and an unsupported type is sent as an empty
// String.
func toEventMessage(key string, value any, tag string, correlationID int64, tsNs int64) *codec.EventMessage {
	msg := &codec.EventMessage{
		TimestampNs:   tsNs,
		CorrelationID: correlationID,
		Tag:           tag,
		Key:           key,
	}
	switch v := value.(type) {
	case nil:
		msg.Format = codec.FormatNothing
	case int64:
		msg.Format = codec.FormatInt64
		msg.Int64Value = v
	case int:
		msg.Format = codec.FormatInt64
		msg.Int64Value = int64(v)
	case float64:
		msg.Format = codec.FormatFloat64
		msg.Float64Value = v
	case bool:
		msg.Format = codec.FormatBool
		msg.BoolValue = v
	case string:
		msg.Format = codec.FormatString
		msg.StringValue = v
	case []byte:
		msg.Format = codec.FormatBytes
		msg.BytesValue = v
	default:
		msg.Format = codec.FormatString
		msg.StringValue = ""
	}
	return msg
}

// publishScalar is shared by StatusProxy and PropertyProxy: claim, encode,
// commit, with bounded retry on back-pressure.
func publishScalar(pub api.Publication, scratch *[]byte, msg *codec.EventMessage) error {
	need := msg.EncodedLen()
	if cap(*scratch) < need {
		*scratch = make([]byte, need)
	}
	buf := (*scratch)[:need]

	var lastErr error
	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		claim, err := pub.TryClaim(need)
		switch {
		case err == api.ErrNotConnected:
			return nil
		case err == api.ErrBackPressured:
			lastErr = err
			continue
		case err != nil:
			return err
		}
		n, encErr := msg.Encode(buf)
		if encErr != nil {
			_ = claim.Abort()
			return encErr
		}
		copy(claim.Data, buf[:n])
		return claim.Commit(n)
	}
	return lastErr
}

// publishTensor is shared by StatusProxy and PropertyProxy: the header is
// encoded into a scratch buffer, then offered alongside the tensor's raw
// element bytes as a vectored write, avoiding a copy of the payload.
func publishTensor(pub api.Publication, headScratch *[]byte, tensor *codec.TensorMessage) error {
	need := tensor.HeaderLen()
	if cap(*headScratch) < need {
		*headScratch = make([]byte, need)
	}
	hdr := (*headScratch)[:need]
	n, err := tensor.EncodeHeader(hdr)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		_, offerErr := pub.Offer(hdr[:n], tensor.Data)
		switch {
		case offerErr == api.ErrNotConnected:
			return nil
		case offerErr == api.ErrBackPressured:
			lastErr = offerErr
			continue
		case offerErr != nil:
			return offerErr
		}
		return nil
	}
	return lastErr
}
