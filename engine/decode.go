package engine

import (
	"context"
	"time"

	"github.com/lixenwraith/sketchwall/asset"
	"github.com/lixenwraith/sketchwall/core"
	"github.com/lixenwraith/sketchwall/entity"
	"github.com/lixenwraith/sketchwall/event"
)

// deliverRetry is the backoff while the inbox is full; decode results are never dropped
const deliverRetry = 2 * time.Millisecond

// startDecode runs one decode on a worker goroutine, bounded by DecodeWorkers
func (e *Engine) startDecode(h entity.Handle, src asset.Source) {
	core.Go(func() {
		select {
		case e.decodeSem <- struct{}{}:
		case <-e.decodeCtx.Done():
			e.deliver(h, nil, e.decodeCtx.Err())
			return
		}
		defer func() { <-e.decodeSem }()

		ctx, cancel := context.WithTimeout(e.decodeCtx, e.opts.DecodeTimeout)
		v, err := e.opts.Decoder.Decode(ctx, src)
		cancel()
		if err != nil && v != nil {
			v.Release()
			v = nil
		}
		e.deliver(h, v, err)
	})
}

// deliver hands a result to the loop, or releases it once teardown has begun
func (e *Engine) deliver(h entity.Handle, v *asset.Visual, err error) {
	ev := event.Event{
		Type:    event.EventDecoded,
		Payload: &event.DecodedPayload{Handle: uint64(h), Visual: v, Err: err},
	}
	for {
		e.deliverMu.Lock()
		if e.closed {
			e.deliverMu.Unlock()
			if v != nil {
				v.Release()
			}
			return
		}
		ok := e.inbox.Push(ev)
		e.deliverMu.Unlock()
		if ok {
			return
		}
		time.Sleep(deliverRetry)
	}
}
