package broker

import (
	"time"

	"github.com/google/uuid"

	"github.com/redpanda-data/sojourn-broker/internal/liveness"
	"github.com/redpanda-data/sojourn-broker/internal/metrics"
	"github.com/redpanda-data/sojourn-broker/internal/queue"
)

// run is the mailbox loop: the single goroutine that owns all broker
// state. It processes exactly one request, one liveness-death
// notification, or one timer tick per iteration, so a match decision
// always sees a consistent view of both queues.
func (b *Broker) run() {
	ticker := b.clock.NewTicker(time.Duration(b.intervalMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case req := <-b.reqCh:
			t := b.now()
			b.sweepIfDue(t)
			b.dispatch(req, t)

		case tok := <-b.liveness.Died():
			t := b.now()
			b.sweepIfDue(t)
			b.handleDeath(tok, t)

		case <-ticker.C:
			t := b.now()
			b.runTimeoutSweep(t)
			b.nextDeadline = t + b.intervalMS

		case done := <-b.shutdownCh:
			b.doShutdown()
			close(done)
			close(b.stopped)
			return
		}
	}
}

func (b *Broker) sweepIfDue(t int64) {
	if t < b.nextDeadline {
		return
	}
	b.runTimeoutSweep(t)
	b.nextDeadline = t + b.intervalMS
}

func (b *Broker) runTimeoutSweep(t int64) {
	b.timeoutSide(SideAsk, t)
	b.timeoutSide(SideAskR, t)
}

func (b *Broker) timeoutSide(side Side, t int64) {
	q := b.queueFor(side)
	before := q.Len()
	dropped := q.Timeout(t)
	for _, d := range dropped {
		b.notifyDropped(side, d)
	}
	if before > 0 && q.Len() == 0 {
		q.Join(t)
	}
	b.metrics.ObserveQueueLength(sideMetric(side), q.Len())
}

func (b *Broker) dispatch(req request, t int64) {
	switch req.kind {
	case kindAsk:
		b.serviceRequest(SideAsk, req, t)
	case kindAskR:
		b.serviceRequest(SideAskR, req, t)
	case kindCancel:
		b.serviceCancel(req, t)
	}
}

// serviceRequest implements the matching rule: check the opposite side
// first; match if it has a waiter, else enqueue on the caller's own side.
// Asynchronous callers are handed their correlation handle immediately,
// regardless of which branch is taken, since they need it to cancel
// whether or not they end up waiting.
func (b *Broker) serviceRequest(side Side, req request, t int64) {
	var handle *uuid.UUID
	if req.async {
		h := uuid.New()
		handle = &h
		req.handleOut <- h
	}

	opp := side.opposite()
	oppQ := b.queueFor(opp)

	before := oppQ.Len()
	waiter, ok, dropped := oppQ.Dequeue(t)
	for _, d := range dropped {
		b.notifyDropped(opp, d)
	}
	if before > 0 && oppQ.Len() == 0 {
		oppQ.Join(t)
	}
	b.metrics.ObserveQueueLength(sideMetric(opp), oppQ.Len())

	if ok {
		b.completeMatch(opp, waiter, req, t)
		return
	}

	b.enqueueCaller(side, req, handle, t)
}

// completeMatch delivers the two matched outcomes with the passive side
// (the waiter, already queued) observing the match strictly before the
// active side (the caller who just arrived): a waiter that has been
// sitting in the queue longer should never learn about its own match
// after the party that only just showed up.
func (b *Broker) completeMatch(passiveSide Side, waiter queue.Item, activeReq request, t int64) {
	ref := uuid.New()
	tag := waiter.Tag.(waiterTag)
	tok := waiter.Peer.(tokenHandle).tok
	b.forgetMonitor(tok, tag.handle)

	sojourn := t - waiter.StartTime
	tag.deliver(Outcome{Matched: true, Ref: ref, SojournMS: sojourn})
	activeReq.deliver(Outcome{Matched: true, Ref: ref, SojournMS: 0})

	b.metrics.RecordMatch(sideMetric(passiveSide), sojourn)
	b.logger.With("ref", ref, "sojourn_ms", sojourn).Debugf("matched %s", passiveSide)
}

// enqueueCaller installs a liveness observation for req and pushes it onto
// side's queue, notifying any items the enqueue itself drops. handle is
// non-nil for asynchronous callers, whose handle was already delivered by
// serviceRequest.
func (b *Broker) enqueueCaller(side Side, req request, handle *uuid.UUID, t int64) {
	tok := b.liveness.Observe(req.ctx, req.done)
	if handle != nil {
		b.byHandle[*handle] = tok
	}
	tag := waiterTag{deliver: req.deliver, handle: handle}
	b.monitors[tok] = pending{side: side, tag: tag}

	item := queue.Item{StartTime: t, Peer: tokenHandle{tok: tok}, Tag: tag}
	dropped := b.queueFor(side).Enqueue(t, item)

	q := b.queueFor(side)
	b.metrics.ObserveQueueLength(sideMetric(side), q.Len())

	for _, d := range dropped {
		b.notifyDropped(side, d)
	}
}

func (b *Broker) notifyDropped(side Side, d queue.Dropped) {
	tag := d.Item.Tag.(waiterTag)
	tok := d.Item.Peer.(tokenHandle).tok
	b.forgetMonitor(tok, tag.handle)
	reason := metrics.ReasonAQM
	if d.Reason == queue.ReasonCapacity {
		reason = metrics.ReasonCapacity
	}
	b.metrics.RecordDrop(sideMetric(side), reason, d.SojournMS)
	b.logger.With("reason", reason, "sojourn_ms", d.SojournMS).Debugf("dropped %s item", side)
	tag.deliver(Outcome{Matched: false, SojournMS: d.SojournMS})
}

func (b *Broker) serviceCancel(req request, t int64) {
	if tok, ok := b.byHandle[req.handle]; ok {
		if p, exists := b.monitors[tok]; exists {
			q := b.queueFor(p.side)
			if q.Cancel(tokenHandle{tok: tok}) {
				b.forgetMonitor(tok, p.tag.handle)
				if q.Len() == 0 {
					q.Join(t)
				}
				b.metrics.ObserveQueueLength(sideMetric(p.side), q.Len())
			}
		}
	}
	req.cancelAck <- struct{}{}
}

func (b *Broker) handleDeath(tok liveness.Token, t int64) {
	p, ok := b.monitors[tok]
	if !ok {
		return
	}
	q := b.queueFor(p.side)
	if q.RemoveSilently(tokenHandle{tok: tok}) {
		delete(b.monitors, tok)
		if h := p.tag.handle; h != nil {
			delete(b.byHandle, *h)
		}
		if q.Len() == 0 {
			q.Join(t)
		}
		b.metrics.ObserveQueueLength(sideMetric(p.side), q.Len())
	}
}

func (b *Broker) forgetMonitor(tok liveness.Token, handle *uuid.UUID) {
	delete(b.monitors, tok)
	if handle != nil {
		delete(b.byHandle, *handle)
	}
	b.liveness.Forget(tok)
}

func (b *Broker) doShutdown() {
	b.logger.Infoln("draining pending callers for shutdown")
	b.drainAll(SideAsk)
	b.drainAll(SideAskR)
}

// drainAll empties side's queue during shutdown, delivering a dropped
// Outcome to every enqueued caller: both those the AQM strategy's
// on_dequeue hook evicts along the way (notified exactly like any other
// AQM drop, via notifyDropped) and the caller Dequeue itself finally
// serves (notified here as a shutdown drop). No caller is left holding a
// context that will simply hang once the mailbox goroutine exits.
func (b *Broker) drainAll(side Side) {
	t := b.now()
	q := b.queueFor(side)
	for q.Len() > 0 {
		it, ok, dropped := q.Dequeue(t)
		for _, d := range dropped {
			b.notifyDropped(side, d)
		}
		if !ok {
			break
		}
		tag := it.Tag.(waiterTag)
		tok := it.Peer.(tokenHandle).tok
		b.forgetMonitor(tok, tag.handle)
		sojourn := t - it.StartTime
		b.metrics.RecordDrop(sideMetric(side), metrics.ReasonShutdown, sojourn)
		tag.deliver(Outcome{Matched: false, SojournMS: sojourn})
	}
	b.metrics.ObserveQueueLength(sideMetric(side), q.Len())
}

func sideMetric(s Side) metrics.Side {
	if s == SideAsk {
		return metrics.SideAsk
	}
	return metrics.SideAskR
}
