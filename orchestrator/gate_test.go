package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/conclave-dao/conclave/core"
)

func TestShouldParticipate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limits := GateLimits{MinInterval: 5 * time.Second, MaxAutoMessages: 3}
	trigger := core.Message{ID: "m1", AgentID: "other", Type: core.MessageChat}

	t.Run("replies to another agent", func(t *testing.T) {
		d := ShouldParticipate("me", trigger, nil, limits, now)
		assert.True(t, d.Should)
	})

	t.Run("ignores own message", func(t *testing.T) {
		own := core.Message{ID: "m1", AgentID: "me", Type: core.MessageChat}
		d := ShouldParticipate("me", own, nil, limits, now)
		assert.False(t, d.Should)
		assert.Equal(t, "own message", d.Reason)
	})

	t.Run("ignores system messages", func(t *testing.T) {
		sys := core.Message{ID: "m1", Type: core.MessageSystem}
		d := ShouldParticipate("me", sys, nil, limits, now)
		assert.False(t, d.Should)
	})

	t.Run("ignores messages with a source marker", func(t *testing.T) {
		marked := core.Message{
			ID:       "m1",
			AgentID:  "other",
			Type:     core.MessageChat,
			Metadata: map[string]any{core.MetaSource: "consensus"},
		}
		d := ShouldParticipate("me", marked, nil, limits, now)
		assert.False(t, d.Should)
	})

	t.Run("stops at max auto messages", func(t *testing.T) {
		recent := []core.Message{
			{AgentID: "me", CreatedAt: now.Add(-time.Hour)},
			{AgentID: "me", CreatedAt: now.Add(-2 * time.Hour)},
			{AgentID: "me", CreatedAt: now.Add(-3 * time.Hour)},
		}
		d := ShouldParticipate("me", trigger, recent, limits, now)
		assert.False(t, d.Should)
		assert.Equal(t, "max auto messages reached", d.Reason)
	})

	t.Run("enforces minimum interval", func(t *testing.T) {
		recent := []core.Message{
			{AgentID: "me", CreatedAt: now.Add(-2 * time.Second)},
		}
		d := ShouldParticipate("me", trigger, recent, limits, now)
		assert.False(t, d.Should)
		assert.Equal(t, "posted too recently", d.Reason)
	})

	t.Run("allows after the interval passes", func(t *testing.T) {
		recent := []core.Message{
			{AgentID: "me", CreatedAt: now.Add(-6 * time.Second)},
		}
		d := ShouldParticipate("me", trigger, recent, limits, now)
		assert.True(t, d.Should)
	})

	t.Run("other agents' messages do not count", func(t *testing.T) {
		recent := []core.Message{
			{AgentID: "someone", CreatedAt: now.Add(-time.Second)},
			{AgentID: "else", CreatedAt: now.Add(-time.Second)},
			{AgentID: "entirely", CreatedAt: now.Add(-time.Second)},
		}
		d := ShouldParticipate("me", trigger, recent, limits, now)
		assert.True(t, d.Should)
	})
}

func TestShouldParticipateIsDeterministic(t *testing.T) {
	now := time.Now()
	limits := GateLimits{MinInterval: 5 * time.Second, MaxAutoMessages: 3}
	trigger := core.Message{ID: "m1", AgentID: "other", Type: core.MessageChat}
	recent := []core.Message{{AgentID: "me", CreatedAt: now.Add(-time.Minute)}}

	first := ShouldParticipate("me", trigger, recent, limits, now)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ShouldParticipate("me", trigger, recent, limits, now))
	}
}
