package core

import "fmt"

// NATS subjects for the change feed. Delivery is at-least-once; consumers
// are expected to dedup on EventID.
const (
	SubjectMessageCreated        = "forum.message.created"
	SubjectProposalCreated       = "forum.proposal.created"
	SubjectProposalStatusChanged = "forum.proposal.status"
)

// MessageCreatedEvent announces a new message insert.
type MessageCreatedEvent struct {
	Message Message `json:"message"`
}

// EventID is stable across redeliveries of the same insert.
func (e MessageCreatedEvent) EventID() string {
	return "message:" + e.Message.ID
}

// ProposalCreatedEvent announces a new proposal insert.
type ProposalCreatedEvent struct {
	Proposal Proposal `json:"proposal"`
}

func (e ProposalCreatedEvent) EventID() string {
	return "proposal:" + e.Proposal.ID
}

// ProposalStatusChangedEvent announces a status transition on a proposal.
type ProposalStatusChangedEvent struct {
	ProposalID string         `json:"proposalId"`
	ForumID    string         `json:"forumId"`
	From       ProposalStatus `json:"from"`
	To         ProposalStatus `json:"to"`
}

func (e ProposalStatusChangedEvent) EventID() string {
	return fmt.Sprintf("status:%s:%s", e.ProposalID, e.To)
}
