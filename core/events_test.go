package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventIDsAreStableAcrossRedelivery(t *testing.T) {
	msg := MessageCreatedEvent{Message: Message{ID: "m1"}}
	assert.Equal(t, msg.EventID(), MessageCreatedEvent{Message: Message{ID: "m1"}}.EventID())

	p := ProposalCreatedEvent{Proposal: Proposal{ID: "p1"}}
	assert.Equal(t, "proposal:p1", p.EventID())

	status := ProposalStatusChangedEvent{ProposalID: "p1", From: ProposalVoting, To: ProposalApproved}
	assert.Equal(t, "status:p1:approved", status.EventID())
}

func TestEventIDsDistinguishTransitions(t *testing.T) {
	approved := ProposalStatusChangedEvent{ProposalID: "p1", To: ProposalApproved}
	executing := ProposalStatusChangedEvent{ProposalID: "p1", To: ProposalExecuting}
	assert.NotEqual(t, approved.EventID(), executing.EventID())
}

func TestProposalStatusTerminal(t *testing.T) {
	assert.False(t, ProposalVoting.Terminal())
	assert.False(t, ProposalApproved.Terminal())
	assert.False(t, ProposalExecuting.Terminal())
	assert.True(t, ProposalExecuted.Terminal())
	assert.True(t, ProposalFailed.Terminal())
	assert.True(t, ProposalRejected.Terminal())
}

func TestMessageIsSystem(t *testing.T) {
	assert.True(t, Message{Type: MessageSystem}.IsSystem())
	assert.True(t, Message{Type: MessageChat, Metadata: map[string]any{MetaSource: "consensus"}}.IsSystem())
	assert.False(t, Message{Type: MessageChat}.IsSystem())
}

func TestMessageDebateRound(t *testing.T) {
	assert.Equal(t, 0, Message{}.DebateRound())
	assert.Equal(t, 2, Message{Metadata: map[string]any{MetaDebateRound: 2}}.DebateRound())
	// JSON round-trips land as float64.
	assert.Equal(t, 3, Message{Metadata: map[string]any{MetaDebateRound: float64(3)}}.DebateRound())
}
