// File: internal/stream/input.go
// Author: momentics <momentics@gmail.com>
package stream

import (
	"github.com/momentics/rtc-agent/api"
	"github.com/momentics/rtc-agent/internal/codec"
)

// InputStreamAdapter owns (subscription, fragment assembler, cursor) for one
// data input port and decodes TensorMessages, dispatching the tensor's tag
// as the event symbol (spec §4.7: "input streams carry data, not commands").
type InputStreamAdapter struct {
	sub       api.Subscription
	dispatch  Dispatcher
	assembler api.Handler
}

func NewInputStreamAdapter(sub api.Subscription, dispatch Dispatcher, assemble api.AssemblerFactory) *InputStreamAdapter {
	a := &InputStreamAdapter{sub: sub, dispatch: dispatch}

	base := func(data any) error {
		buf, ok := data.(api.Buffer)
		if !ok {
			return nil
		}
		raw := buf.Bytes()
		for len(raw) > 0 {
			msg, consumed, err := codec.DecodeTensorMessage(raw)
			if err != nil {
				return err
			}
			if msg == nil || consumed == 0 {
				break
			}
			a.dispatch.SetSourceCorrelationID(msg.CorrelationID)
			if err := a.dispatch.Dispatch(msg.Tag, msg); err != nil {
				return err
			}
			raw = raw[consumed:]
		}
		return nil
	}

	var inner api.Handler = handlerFunc(base)
	if assemble != nil {
		a.assembler = assemble(inner)
	} else {
		a.assembler = inner
	}
	return a
}

// Poll delegates one read to the subscription, returning fragments consumed.
func (a *InputStreamAdapter) Poll(limit int) (int, error) {
	return a.sub.Poll(a.assembler, limit)
}

// Close releases the underlying subscription.
func (a *InputStreamAdapter) Close() error {
	return a.sub.Close()
}

// handlerFunc adapts a plain function to api.Handler.
type handlerFunc func(data any) error

func (f handlerFunc) Handle(data any) error { return f(data) }

// PollToQuiescence repeatedly polls every adapter in adapters with limit
// until a full sweep yields zero fragments, implementing the drain-until-
// empty discipline of spec §4.7/§4.10's input_poll.
func PollToQuiescence(limit int, adapters ...interface{ Poll(int) (int, error) }) (int, error) {
	total := 0
	for {
		sweep := 0
		for _, a := range adapters {
			n, err := a.Poll(limit)
			if err != nil {
				return total, err
			}
			sweep += n
		}
		total += sweep
		if sweep == 0 {
			return total, nil
		}
	}
}
