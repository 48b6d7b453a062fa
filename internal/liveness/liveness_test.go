package liveness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChannelReportsDeathOnDoneClose(t *testing.T) {
	c := NewChannel(4)
	done := make(chan struct{})
	tok := c.Observe(context.Background(), done)

	close(done)

	select {
	case got := <-c.Died():
		require.Equal(t, tok, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for death notification")
	}
}

func TestChannelForgetSuppressesDeath(t *testing.T) {
	c := NewChannel(4)
	done := make(chan struct{})
	tok := c.Observe(context.Background(), done)

	c.Forget(tok)
	close(done)

	select {
	case got := <-c.Died():
		t.Fatalf("expected no death notification after Forget, got %v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannelReportsDeathOnContextCancel(t *testing.T) {
	c := NewChannel(4)
	ctx, cancel := context.WithCancel(context.Background())
	tok := c.Observe(ctx, nil)

	cancel()

	select {
	case got := <-c.Died():
		require.Equal(t, tok, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for death notification")
	}
}

func TestManualKill(t *testing.T) {
	m := NewManual()
	tok := m.Observe(context.Background(), nil)
	m.Kill(tok)
	require.Equal(t, tok, <-m.Died())
}
