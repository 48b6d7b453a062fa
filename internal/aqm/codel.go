package aqm

import "math"

// CoDel implements the controlled-delay AQM algorithm over sojourn time,
// per RFC 8289.
//
// Unlike that reference — where the CoDel decision is fused with the act of
// dequeuing a packet for delivery — decide here only ever inspects the
// head of the queue and reports a drop count; the managed queue performs
// the actual removal and, separately, decides which end to serve from.
type CoDel struct {
	target   int64 // ms
	interval int64 // ms

	dropping       bool
	firstAboveTime int64 // 0 means "not currently above target"
	dropNext       int64
	count          int
	lastCount      int
}

// NewCoDel constructs a CoDel strategy. targetMS and intervalMS must both
// be >= 1 (validated by the config layer).
func NewCoDel(targetMS, intervalMS int64) *CoDel {
	return &CoDel{target: targetMS, interval: intervalMS}
}

// Count exposes the controller's current drop-episode counter, so tests
// can verify that re-entering the dropping state within 16 intervals of
// leaving it resumes the count rather than restarting from 1.
func (s *CoDel) Count() int { return s.count }

func (s *CoDel) decide(t int64, q Sequence) int {
	dropped := 0
	for {
		if q.Len()-dropped == 0 {
			s.firstAboveTime = 0
			s.dropping = false
			return dropped
		}

		head := q.At(dropped)
		sojourn := t - head.StartTimeMS()

		okToDrop := false
		if sojourn < s.target {
			s.firstAboveTime = 0
		} else if s.firstAboveTime == 0 {
			s.firstAboveTime = t + s.interval
		} else if t >= s.firstAboveTime {
			okToDrop = true
		}

		if s.dropping {
			if !okToDrop {
				s.dropping = false
				return dropped
			}
			if t < s.dropNext {
				return dropped
			}
			dropped++
			s.count++
			s.dropNext = controlLaw(s.dropNext, s.interval, s.count)
			continue
		}

		if !okToDrop {
			return dropped
		}

		dropped++
		s.dropping = true
		delta := s.count - s.lastCount
		newCount := 1
		if delta > 1 && t-s.dropNext < 16*s.interval {
			newCount = delta
		}
		s.count = newCount
		s.dropNext = controlLaw(t, s.interval, s.count)
		s.lastCount = s.count
	}
}

func (s *CoDel) OnEnqueue(t int64, q Sequence) int { return s.decide(t, q) }
func (s *CoDel) OnDequeue(t int64, q Sequence) int { return s.decide(t, q) }
func (s *CoDel) OnTimeout(t int64, q Sequence) int { return s.decide(t, q) }

func (s *CoDel) OnJoin(t int64, q Sequence) {
	s.dropping = false
	s.firstAboveTime = 0
	s.dropNext = 0
	s.count = 0
	s.lastCount = 0
}

// controlLaw is CoDel's scheduling function: the next drop is due one
// interval/sqrt(count) after t.
func controlLaw(t, interval int64, count int) int64 {
	return t + int64(float64(interval)/math.Sqrt(float64(count)))
}
