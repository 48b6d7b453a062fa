// Package aqm implements the active-queue-management strategies applied to
// a managed queue: naive (no drops), timeout (age-based), codel (the CoDel
// controller), and codel_timeout (a composition of the two).
//
// Every strategy exposes the same four-hook contract, so a managed queue
// can hold any of them behind a single interface and call the hooks
// without knowing which strategy it has.
package aqm

// Item is the minimal view a strategy needs of a queued element: its
// enqueue time. The queue package's own item type satisfies this directly.
type Item interface {
	StartTimeMS() int64
}

// Sequence is the read-only view of a queue's contents, oldest item first,
// that a strategy inspects while deciding drops. A strategy never removes
// items itself: it returns how many items — always counted from the head,
// in insertion order — the caller should remove. To let a single decision
// reason about a shrinking queue without mutating anything, callers index
// with At(dropsSoFar) to see the "current" head as if the first
// dropsSoFar items were already gone.
type Sequence interface {
	Len() int
	At(i int) Item
}

// Strategy is the uniform AQM contract. All hooks are given the current
// time and the queue contents as of just before the call, and return how
// many items to drop from the head. Sojourn times for notification
// purposes are recomputed by the caller as t - item.StartTimeMS(), since a
// strategy never needs to construct that value itself.
//
// OnJoin never drops: it has no return value and exists only to reset
// internal strategy state, e.g. CoDel's dropping-state flag when a queue
// empties out and a fresh burst should not inherit an old decision.
type Strategy interface {
	// OnEnqueue is called after a new item has been appended to the tail.
	OnEnqueue(t int64, q Sequence) int
	// OnDequeue is called before serving a waiter.
	OnDequeue(t int64, q Sequence) int
	// OnTimeout is called from the broker's periodic timer.
	OnTimeout(t int64, q Sequence) int
	// OnJoin resets strategy state, e.g. when the queue empties out.
	OnJoin(t int64, q Sequence)
}

// sliceSeq adapts a plain slice of Item to Sequence, used by strategy
// tests that don't want to depend on the queue package's list storage.
type sliceSeq []Item

func (s sliceSeq) Len() int      { return len(s) }
func (s sliceSeq) At(i int) Item { return s[i] }

// Slice wraps a slice of Item as a Sequence.
func Slice(items []Item) Sequence { return sliceSeq(items) }
