// Package broker implements the sojourn broker state machine: a single
// mailbox goroutine owning two managed queues, matching ask/ask_r
// requests, running periodic AQM timeouts, and tracking the liveness of
// every waiting caller.
//
// One goroutine (run) owns all state and processes exactly one request or
// timer tick at a time, so matching, enqueue, timeout eviction, and
// liveness bookkeeping never race each other and no lock is needed. The
// mailbox dispatches five heterogeneous operations (ask, ask_r, both async
// variants, cancel) plus liveness-death and timer events, each arriving on
// its own channel and all handled one at a time by that goroutine rather
// than batched, since a match's ordering
// relative to a timeout or a death matters and batching would blur it.
package broker

import (
	"context"
	stdlog "log"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/redpanda-data/sojourn-broker/internal/config"
	"github.com/redpanda-data/sojourn-broker/internal/liveness"
	"github.com/redpanda-data/sojourn-broker/internal/log"
	"github.com/redpanda-data/sojourn-broker/internal/metrics"
	"github.com/redpanda-data/sojourn-broker/internal/queue"
	"github.com/redpanda-data/sojourn-broker/internal/timesrc"
)

// Side names one of the two symmetric queues.
type Side string

const (
	SideAsk  Side = "ask"
	SideAskR Side = "ask_r"
)

func (s Side) opposite() Side {
	if s == SideAsk {
		return SideAskR
	}
	return SideAsk
}

// Outcome is the terminal event delivered to a caller: exactly one of
// Matched or (implicitly, Matched==false) dropped.
type Outcome struct {
	Matched bool
	// Ref is shared by both peers of a match; zero value when Matched is
	// false.
	Ref uuid.UUID
	// SojournMS is, for a match, the passive side's own wait time on the
	// passive side's outcome and zero on the active side's; for a drop, the
	// caller's own wait time.
	SojournMS int64
}

// waiterTag is stashed in a queue.Item's opaque Tag field: the delivery
// closure and optional correlation handle needed to hand the caller its
// Outcome. handle is nil for synchronous callers, who never receive one.
type waiterTag struct {
	deliver func(Outcome)
	handle  *uuid.UUID
}

// tokenHandle adapts a liveness.Token to queue.PeerHandle: comparable, and
// distinct from any handle type another package might key its own queues
// with.
type tokenHandle struct {
	tok liveness.Token
}

// request is the single mailbox-loop message type; every public API call
// becomes one of these and is processed by run() in arrival order.
type request struct {
	kind reqKind
	ctx  context.Context
	done <-chan struct{}

	handle uuid.UUID // valid only for kindCancel

	async bool
	// resp receives exactly one Outcome. Buffered 1 so the mailbox loop
	// never blocks on a caller that has walked away.
	resp chan Outcome
	// handleOut, if non-nil, receives the freshly minted correlation
	// handle immediately, before resp fires: an asynchronous caller needs
	// the handle to cancel the request later, well before any match or
	// drop has happened.
	handleOut chan uuid.UUID
	// cancelAck acknowledges a cancel request once the mailbox loop has
	// applied it, so Cancel can return only after the item is actually
	// gone rather than merely enqueued for removal.
	cancelAck chan struct{}
}

// deliver satisfies both async and sync request shapes: it always sends
// exactly one Outcome on resp. resp is buffered 1 and written at most once,
// so this never blocks the mailbox loop on a caller who has walked away.
func (r request) deliver(o Outcome) {
	r.resp <- o
}

type reqKind int

const (
	kindAsk reqKind = iota
	kindAskR
	kindCancel
)

// pending is the broker's bookkeeping for one enqueued item, keyed by its
// liveness token so a death notification can find which side and tag to
// clean up without a reverse index.
type pending struct {
	side Side
	tag  waiterTag
}

// Broker is the sojourn broker state machine. Construct with New; it owns
// a background goroutine started by New and stopped by Shutdown.
type Broker struct {
	clock    timesrc.Source
	liveness liveness.Liveness
	metrics  *metrics.Set
	logger   log.Modular

	ask, askR *queue.Managed

	intervalMS   int64
	nextDeadline int64

	monitors  map[liveness.Token]pending
	byHandle  map[uuid.UUID]liveness.Token

	reqCh      chan request
	shutdownCh chan chan struct{}
	closeOnce  sync.Once
	stopped    chan struct{}
}

// Deps bundles the ambient collaborators a Broker needs beyond its
// validated configuration. All fields are optional; New fills in
// production defaults for anything left zero.
type Deps struct {
	Clock    timesrc.Source
	Liveness liveness.Liveness
	Metrics  *metrics.Set
	Logger   log.Modular
}

// New constructs and starts a Broker from a validated configuration. The
// broker never enters a running state on an invalid configuration: use
// config.Build first and surface its error to the embedder without
// calling New.
func New(cfg config.RuntimeConfig, deps Deps) *Broker {
	if deps.Clock == nil {
		deps.Clock = timesrc.New()
	}
	if deps.Liveness == nil {
		deps.Liveness = liveness.NewChannel(256)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(nil)
	}
	if deps.Logger == nil {
		deps.Logger = log.Wrap(stdlog.New(os.Stderr, "", stdlog.LstdFlags))
	}

	b := &Broker{
		clock:      deps.Clock,
		liveness:   deps.Liveness,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		ask:        queue.New(cfg.Ask.OutMode, cfg.Ask.DropMode, cfg.Ask.Capacity, cfg.Ask.Strategy),
		askR:       queue.New(cfg.AskR.OutMode, cfg.AskR.DropMode, cfg.AskR.Capacity, cfg.AskR.Strategy),
		intervalMS: cfg.IntervalMS,
		monitors:   make(map[liveness.Token]pending),
		byHandle:   make(map[uuid.UUID]liveness.Token),
		reqCh:      make(chan request),
		shutdownCh: make(chan chan struct{}),
		stopped:    make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) queueFor(side Side) *queue.Managed {
	if side == SideAsk {
		return b.ask
	}
	return b.askR
}

func (b *Broker) now() int64 { return b.clock.NowMS() }

func (s Side) String() string { return string(s) }
