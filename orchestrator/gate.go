package orchestrator

import (
	"time"

	"github.com/conclave-dao/conclave/core"
)

// GateLimits bound how often one agent may auto-post in a forum.
type GateLimits struct {
	MinInterval     time.Duration
	MaxAutoMessages int
}

// GateDecision is the participation gate's verdict.
type GateDecision struct {
	Should bool
	Reason string
}

// ShouldParticipate decides whether an agent responds to a trigger
// message now. Pure and deterministic: no side effects, all inputs
// explicit. recent is the forum's latest messages, newest first.
func ShouldParticipate(agentID string, trigger core.Message, recent []core.Message, limits GateLimits, now time.Time) GateDecision {
	if trigger.AgentID == agentID {
		return GateDecision{false, "own message"}
	}
	if trigger.IsSystem() {
		return GateDecision{false, "system-generated message"}
	}

	var posted int
	var lastAt time.Time
	for _, msg := range recent {
		if msg.AgentID != agentID {
			continue
		}
		posted++
		if msg.CreatedAt.After(lastAt) {
			lastAt = msg.CreatedAt
		}
	}

	if posted >= limits.MaxAutoMessages {
		return GateDecision{false, "max auto messages reached"}
	}
	if !lastAt.IsZero() && now.Sub(lastAt) < limits.MinInterval {
		return GateDecision{false, "posted too recently"}
	}
	return GateDecision{true, "ok"}
}
