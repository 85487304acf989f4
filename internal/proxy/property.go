// File: internal/proxy/property.go
// Author: momentics <momentics@gmail.com>
package proxy

import (
	"github.com/momentics/rtc-agent/api"
	"github.com/momentics/rtc-agent/internal/agenterrors"
	"github.com/momentics/rtc-agent/internal/codec"
)

// PropertyProxy owns several output publications selected by stream index
// (spec §4.8): used by the publication registry's property poller, where
// each PublicationConfig names which of N output streams to write to.
type PropertyProxy struct {
	pubs       []api.Publication
	scratch    []byte
	tensorHead []byte
}

// NewPropertyProxy returns a proxy over pubs with pre-sized scratch buffers
// acquired once from pool. pool may be nil, in which case buffers are
// allocated directly.
func NewPropertyProxy(pubs []api.Publication, pool api.BytePool, scratchSize int) *PropertyProxy {
	return &PropertyProxy{
		pubs:       pubs,
		scratch:    acquire(pool, scratchSize),
		tensorHead: acquire(pool, scratchSize),
	}
}

// PublishEvent publishes a scalar value on the publication at streamIndex.
func (p *PropertyProxy) PublishEvent(streamIndex int, key string, value any, tag string, correlationID int64, tsNs int64) error {
	pub, err := p.at(streamIndex)
	if err != nil {
		return err
	}
	msg := toEventMessage(key, value, tag, correlationID, tsNs)
	return publishScalar(pub, &p.scratch, msg)
}

// PublishTensor offers a tensor value on the publication at streamIndex via
// the vectored path.
func (p *PropertyProxy) PublishTensor(streamIndex int, tensor *codec.TensorMessage) error {
	pub, err := p.at(streamIndex)
	if err != nil {
		return err
	}
	return publishTensor(pub, &p.tensorHead, tensor)
}

func (p *PropertyProxy) at(streamIndex int) (api.Publication, error) {
	if streamIndex < 0 || streamIndex >= len(p.pubs) {
		return nil, agenterrors.StreamNotFound("PubData", streamIndex)
	}
	return p.pubs[streamIndex], nil
}
