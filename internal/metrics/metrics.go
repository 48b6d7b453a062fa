// Package metrics instruments the broker with Prometheus collectors:
// queue depth per side, match/drop counters, and a sojourn histogram.
// Metrics are pure observation — a broker built without a registerer
// behaves identically, just unobserved.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Side names the two symmetric broker queues, used as a metric label.
type Side string

const (
	SideAsk  Side = "ask"
	SideAskR Side = "ask_r"
)

// DropReason labels why an item was dropped.
type DropReason string

const (
	ReasonAQM      DropReason = "aqm"
	ReasonCapacity DropReason = "capacity"
	ReasonShutdown DropReason = "shutdown"
)

// Outcome labels a sojourn observation.
type Outcome string

const (
	OutcomeMatched Outcome = "matched"
	OutcomeDropped Outcome = "dropped"
)

// Set bundles the collectors the broker updates.
type Set struct {
	QueueLength  *prometheus.GaugeVec
	MatchesTotal prometheus.Counter
	DroppedTotal *prometheus.CounterVec
	SojournMS    *prometheus.HistogramVec
}

// New registers a Set against reg. If reg is nil, a private registry is
// used so callers who don't care about metrics never need to construct
// one.
func New(reg prometheus.Registerer) *Set {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Set{
		QueueLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sojourn_broker_queue_length",
			Help: "Current number of items waiting on a broker side.",
		}, []string{"side"}),
		MatchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sojourn_broker_matches_total",
			Help: "Total number of ask/ask_r pairs matched.",
		}),
		DroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sojourn_broker_dropped_total",
			Help: "Total number of items dropped, by side and reason.",
		}, []string{"side", "reason"}),
		SojournMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sojourn_broker_sojourn_ms",
			Help:    "Sojourn time in milliseconds, by side and outcome.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 16),
		}, []string{"side", "outcome"}),
	}
	reg.MustRegister(s.QueueLength, s.MatchesTotal, s.DroppedTotal, s.SojournMS)
	return s
}

// ObserveQueueLength records the current length of side.
func (s *Set) ObserveQueueLength(side Side, n int) {
	s.QueueLength.WithLabelValues(string(side)).Set(float64(n))
}

// RecordMatch increments the match counter and records the passive peer's
// sojourn time; the active peer's sojourn (always zero) is not recorded.
func (s *Set) RecordMatch(passiveSide Side, passiveSojournMS int64) {
	s.MatchesTotal.Inc()
	s.SojournMS.WithLabelValues(string(passiveSide), string(OutcomeMatched)).Observe(float64(passiveSojournMS))
}

// RecordDrop increments the drop counter for side/reason and records the
// sojourn time.
func (s *Set) RecordDrop(side Side, reason DropReason, sojournMS int64) {
	s.DroppedTotal.WithLabelValues(string(side), string(reason)).Inc()
	s.SojournMS.WithLabelValues(string(side), string(OutcomeDropped)).Observe(float64(sojournMS))
}
