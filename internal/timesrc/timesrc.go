// Package timesrc supplies the broker's millisecond clock.
package timesrc

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Source is a millisecond-resolution clock. Every broker
// component receives now() as a parameter from the caller; nothing reads a
// Source independently, except the mailbox loop's periodic AQM sweep timer,
// which needs the underlying ticker.
type Source interface {
	NowMS() int64
	NewTicker(d time.Duration) *clock.Ticker
}

// Real wraps a clock.Clock (production: the wall clock; tests: a
// clock.Mock advanced by hand).
type Real struct {
	Clock clock.Clock
}

// New returns a Source backed by the real wall clock.
func New() Real {
	return Real{Clock: clock.New()}
}

// NowMS returns the underlying clock's current wall time as Unix
// milliseconds. It follows wall-clock adjustments, so successive readings
// are not guaranteed to be monotonic.
func (r Real) NowMS() int64 {
	return r.Clock.Now().UnixMilli()
}

// NewTicker returns a ticker driven by the underlying clock, so tests using
// a clock.Mock can drive the broker's periodic sweep deterministically.
func (r Real) NewTicker(d time.Duration) *clock.Ticker {
	return r.Clock.Ticker(d)
}

// NewMock returns a Source backed by a clock.Mock, along with the mock
// itself so tests can advance it.
func NewMock() (Real, *clock.Mock) {
	m := clock.NewMock()
	return Real{Clock: m}, m
}
