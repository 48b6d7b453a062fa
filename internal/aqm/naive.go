package aqm

// Naive never drops. It is the baseline strategy for a queue with no
// capacity concerns beyond whatever the caller's own capacity limit enforces.
type Naive struct{}

// NewNaive returns a Naive strategy. It carries no state.
func NewNaive() *Naive { return &Naive{} }

func (n *Naive) OnEnqueue(t int64, q Sequence) int  { return 0 }
func (n *Naive) OnDequeue(t int64, q Sequence) int  { return 0 }
func (n *Naive) OnTimeout(t int64, q Sequence) int  { return 0 }
func (n *Naive) OnJoin(t int64, q Sequence)         {}
