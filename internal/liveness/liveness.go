// Package liveness abstracts observation of a waiting caller's death, so
// the broker's mailbox loop can remove an enqueued item silently if its
// owner disappears before match or timeout.
//
// Observe accepts either a context.Context or a plain done-channel, since
// a caller's cancellation signal may come from either depending on how it
// reached the broker's API.
package liveness

import (
	"context"
	"sync"
)

// Token identifies one observed party for the lifetime of its
// observation. Tokens are never reused.
type Token uint64

// Liveness lets the broker learn when an observed party has gone away.
// Died delivers each token at most once, then the observation is
// considered released.
type Liveness interface {
	// Observe begins tracking done; when it fires (or ctx is cancelled),
	// the returned token is eventually sent on Died. Observe never blocks.
	Observe(ctx context.Context, done <-chan struct{}) Token
	// Died delivers a token for every observation whose party has gone
	// away. The broker's mailbox loop selects on this channel.
	Died() <-chan Token
	// Forget releases an observation without waiting for the party to
	// die, used once an item reaches any other terminal event.
	Forget(tok Token)
}

// Channel is the production Liveness: each Observe spawns a goroutine
// that waits on done/ctx.Done() and reports the token as died, unless
// Forget releases it first.
type Channel struct {
	mu       sync.Mutex
	next     Token
	released map[Token]chan struct{}

	died chan Token
}

// NewChannel constructs a Channel-backed Liveness with the given death
// notification buffer size.
func NewChannel(buffer int) *Channel {
	return &Channel{
		released: make(map[Token]chan struct{}),
		died:     make(chan Token, buffer),
	}
}

func (c *Channel) Observe(ctx context.Context, done <-chan struct{}) Token {
	c.mu.Lock()
	c.next++
	tok := c.next
	release := make(chan struct{})
	c.released[tok] = release
	c.mu.Unlock()

	go func() {
		select {
		case <-done:
			c.report(tok, release)
		case <-ctx.Done():
			c.report(tok, release)
		case <-release:
		}
	}()
	return tok
}

func (c *Channel) report(tok Token, release chan struct{}) {
	c.mu.Lock()
	_, stillTracked := c.released[tok]
	if stillTracked {
		delete(c.released, tok)
	}
	c.mu.Unlock()
	if stillTracked {
		c.died <- tok
	}
}

func (c *Channel) Died() <-chan Token { return c.died }

func (c *Channel) Forget(tok Token) {
	c.mu.Lock()
	release, ok := c.released[tok]
	if ok {
		delete(c.released, tok)
	}
	c.mu.Unlock()
	if ok {
		close(release)
	}
}

// Manual is a deterministic test double: tests fire Kill(tok) explicitly
// instead of racing goroutines against done channels.
type Manual struct {
	next Token
	died chan Token
}

// NewManual constructs a Manual Liveness test double.
func NewManual() *Manual {
	return &Manual{died: make(chan Token, 64)}
}

func (m *Manual) Observe(ctx context.Context, done <-chan struct{}) Token {
	m.next++
	return m.next
}

func (m *Manual) Died() <-chan Token { return m.died }

func (m *Manual) Forget(tok Token) {}

// Kill delivers a death notification for tok, as if its owning caller had
// disappeared.
func (m *Manual) Kill(tok Token) { m.died <- tok }
