package aqm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItem struct{ start int64 }

func (f fakeItem) StartTimeMS() int64 { return f.start }

func seqFrom(starts ...int64) Sequence {
	items := make([]Item, len(starts))
	for i, s := range starts {
		items[i] = fakeItem{start: s}
	}
	return Slice(items)
}

func TestNaiveNeverDrops(t *testing.T) {
	n := NewNaive()
	q := seqFrom(0, 1, 2)
	assert.Equal(t, 0, n.OnEnqueue(1000, q))
	assert.Equal(t, 0, n.OnDequeue(1000, q))
	assert.Equal(t, 0, n.OnTimeout(1000, q))
	n.OnJoin(1000, q)
}

func TestTimeoutDropsOverdueHead(t *testing.T) {
	s := NewTimeout(200)
	q := seqFrom(0, 50, 100)

	// Before the deadline: nothing overdue.
	require.Equal(t, 0, s.OnTimeout(150, q))

	// At t=200, only the item enqueued at t=0 (sojourn 200) is overdue.
	require.Equal(t, 1, s.OnTimeout(200, q))
}

func TestTimeoutDropsMultipleOverdueHeads(t *testing.T) {
	s := NewTimeout(200)
	q := seqFrom(0, 10, 205)

	// At t=250: item@0 sojourn=250 (overdue), item@10 sojourn=240 (overdue),
	// item@205 sojourn=45 (not overdue).
	require.Equal(t, 2, s.OnTimeout(250, q))
}

func TestTimeoutHookEquivalence(t *testing.T) {
	q := seqFrom(0, 10, 20)
	sEnq := NewTimeout(15)
	sDeq := NewTimeout(15)
	sTmo := NewTimeout(15)

	require.Equal(t, sEnq.OnEnqueue(30, q), sDeq.OnDequeue(30, q))
	require.Equal(t, sDeq.OnDequeue(30, q), sTmo.OnTimeout(30, q))
}

func TestTimeoutJoinResetsDeadlineWhenEmpty(t *testing.T) {
	s := NewTimeout(100)
	empty := seqFrom()
	s.OnJoin(500, empty)
	assert.Equal(t, int64(0), s.nextDeadline)
}

func TestCoDelActivation(t *testing.T) {
	// Scenario 5: codel(target=5, interval=100), enqueue one item per ms
	// for 200ms without dequeue. No drops while sojourn stays under
	// target; drops begin only once sojourn has been above target for a
	// full interval.
	s := NewCoDel(5, 100)

	var items []Item
	totalDrops := 0
	firstDropAt := int64(-1)
	for tMs := int64(0); tMs < 200; tMs++ {
		items = append(items, fakeItem{start: tMs})
		q := Slice(items)
		d := s.OnEnqueue(tMs, q)
		if d > 0 && firstDropAt == -1 {
			firstDropAt = tMs
		}
		if d > 0 {
			items = items[d:]
		}
		totalDrops += d
		if tMs < 5 {
			require.Equal(t, 0, d, "no drop expected before sojourn can reach target")
		}
	}

	require.Greater(t, firstDropAt, int64(0))
	require.Greater(t, totalDrops, 0)
	// The excursion must persist for a full interval before drops start:
	// the earliest an item's sojourn can be >= target is at t=5, so drops
	// cannot begin before t=5+interval=105.
	require.GreaterOrEqual(t, firstDropAt, int64(105))
}

func TestCoDelCountGrowsUnderSustainedExcursion(t *testing.T) {
	s := NewCoDel(5, 100)
	var items []Item
	for tMs := int64(0); tMs < 400; tMs++ {
		items = append(items, fakeItem{start: tMs})
		q := Slice(items)
		d := s.OnEnqueue(tMs, q)
		if d > 0 {
			items = items[d:]
		}
	}
	// After a long sustained excursion the controller should have entered
	// dropping and accumulated a count greater than 1.
	require.Greater(t, s.Count(), 1)
}

func TestCoDelJoinResets(t *testing.T) {
	s := NewCoDel(5, 100)
	q := seqFrom(0)
	s.OnEnqueue(50, q)
	s.OnJoin(60, seqFrom())
	assert.False(t, s.dropping)
	assert.Equal(t, int64(0), s.firstAboveTime)
	assert.Equal(t, 0, s.count)
}

func TestCoDelTimeoutAtLeastTimeoutFloor(t *testing.T) {
	// target < T, satisfying the constructor's T > target requirement.
	ct := NewCoDelTimeout(5, 1000, 50)
	q := seqFrom(0, 1, 2, 3, 4)

	// At t=60 every item is overdue per timeout(50), but CoDel's interval
	// (1000ms) has not elapsed, so CoDel alone would not have dropped yet.
	d := ct.OnTimeout(60, q)
	require.Equal(t, 5, d)
}

func TestCoDelTimeoutHookEquivalence(t *testing.T) {
	q := seqFrom(0, 10, 20)
	a := NewCoDelTimeout(5, 100, 15)
	b := NewCoDelTimeout(5, 100, 15)

	require.Equal(t, a.OnEnqueue(30, q), b.OnDequeue(30, q))
}
