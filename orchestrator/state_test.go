package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// manualClock advances only when told to.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Sleep(ctx context.Context, d time.Duration) error {
	c.Advance(d)
	return ctx.Err()
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMarkProcessedSuppressesDuplicates(t *testing.T) {
	clock := newManualClock()
	s := NewState(60*time.Second, clock)

	assert.True(t, s.MarkProcessed("message:m1"))
	assert.False(t, s.MarkProcessed("message:m1"))
	assert.True(t, s.MarkProcessed("message:m2"))
}

func TestMarkProcessedExpiresAfterTTL(t *testing.T) {
	clock := newManualClock()
	s := NewState(60*time.Second, clock)

	assert.True(t, s.MarkProcessed("message:m1"))

	clock.Advance(30 * time.Second)
	assert.False(t, s.MarkProcessed("message:m1"))

	clock.Advance(31 * time.Second)
	// Past the window the ID may be processed again.
	assert.True(t, s.MarkProcessed("message:m1"))
}

func TestPairLockIsStablePerPair(t *testing.T) {
	s := NewState(time.Minute, newManualClock())

	l1 := s.PairLock("agent1", "forum1")
	l2 := s.PairLock("agent1", "forum1")
	l3 := s.PairLock("agent2", "forum1")

	assert.Same(t, l1, l2)
	assert.NotSame(t, l1, l3)
}

func TestTryLockExecution(t *testing.T) {
	s := NewState(time.Minute, newManualClock())

	assert.True(t, s.TryLockExecution("p1"))
	assert.False(t, s.TryLockExecution("p1"))
	assert.True(t, s.TryLockExecution("p2"))

	s.UnlockExecution("p1")
	assert.True(t, s.TryLockExecution("p1"))
}
