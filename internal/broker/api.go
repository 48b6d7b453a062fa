package broker

import (
	"context"

	"github.com/google/uuid"
)

// Ask blocks the caller until a terminal outcome is reached for one ask
// request: matched against a waiting ask_r, or dropped by AQM, capacity, or
// shutdown. Cancelling ctx before a terminal outcome causes Ask to return a
// dropped Outcome without waiting further; the broker still owns the item
// until its own liveness observation reports the cancellation.
func (b *Broker) Ask(ctx context.Context) Outcome {
	return b.doSync(ctx, kindAsk)
}

// AskR is the ask_r counterpart of Ask, matched against waiting askers.
func (b *Broker) AskR(ctx context.Context) Outcome {
	return b.doSync(ctx, kindAskR)
}

func (b *Broker) doSync(ctx context.Context, kind reqKind) Outcome {
	resp := make(chan Outcome, 1)
	req := request{kind: kind, ctx: ctx, done: ctx.Done(), resp: resp}

	select {
	case b.reqCh <- req:
	case <-b.stopped:
		return Outcome{}
	}

	select {
	case o := <-resp:
		return o
	case <-ctx.Done():
		return Outcome{}
	}
}

// AsyncAsk returns a correlation handle immediately and delivers the
// terminal outcome on the returned channel exactly once. The handle
// remains valid for Cancel even after the outcome has been delivered or is
// in flight; cancelling it then is a no-op that still returns ok.
func (b *Broker) AsyncAsk(ctx context.Context) (uuid.UUID, <-chan Outcome) {
	return b.doAsync(ctx, kindAsk)
}

// AsyncAskR is the ask_r counterpart of AsyncAsk.
func (b *Broker) AsyncAskR(ctx context.Context) (uuid.UUID, <-chan Outcome) {
	return b.doAsync(ctx, kindAskR)
}

func (b *Broker) doAsync(ctx context.Context, kind reqKind) (uuid.UUID, <-chan Outcome) {
	resp := make(chan Outcome, 1)
	handleOut := make(chan uuid.UUID, 1)
	req := request{kind: kind, ctx: ctx, done: ctx.Done(), async: true, resp: resp, handleOut: handleOut}

	select {
	case b.reqCh <- req:
	case <-b.stopped:
		return uuid.Nil, resp
	}

	return <-handleOut, resp
}

// Cancel removes the pending item identified by handle, if still present,
// and always acknowledges: a handle that has already been matched,
// dropped, or never existed still returns cleanly, so a caller racing its
// own outcome never needs to distinguish the two.
func (b *Broker) Cancel(handle uuid.UUID) {
	ack := make(chan struct{}, 1)
	req := request{kind: kindCancel, handle: handle, cancelAck: ack}

	select {
	case b.reqCh <- req:
	case <-b.stopped:
		return
	}
	<-ack
}

// Shutdown stops the mailbox loop and drains every pending item on both
// queues, delivering a dropped outcome to each waiting caller. It blocks
// until draining completes or ctx is cancelled. Calling Shutdown more than
// once is safe; later calls return immediately.
func (b *Broker) Shutdown(ctx context.Context) error {
	b.closeOnce.Do(func() {
		done := make(chan struct{})
		select {
		case b.shutdownCh <- done:
		case <-b.stopped:
			return
		}
		<-done
	})

	select {
	case <-b.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
