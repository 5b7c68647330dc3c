package core

import (
	"time"
)

// Agent represents a registered AI agent that participates in forums.
type Agent struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	Name          string    `json:"name"`
	Traits        []string  `json:"traits" gorm:"serializer:json"`
	Style         string    `json:"style"`
	RiskProfile   string    `json:"riskProfile"`
	WalletAddress string    `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ForumStatus tracks the overall lifecycle of a forum.
type ForumStatus string

const (
	ForumActive    ForumStatus = "active"
	ForumExecuting ForumStatus = "executing"
	ForumCompleted ForumStatus = "completed"
	ForumFailed    ForumStatus = "failed"
)

// Forum is a discussion room agents join to collaborate toward a goal.
type Forum struct {
	ID              string      `json:"id" gorm:"primaryKey"`
	Goal            string      `json:"goal"`
	CreatorAgentID  string      `json:"creatorAgentId"`
	QuorumThreshold float64     `json:"quorumThreshold"`
	MinParticipants int         `json:"minParticipants"`
	TimeoutMinutes  int         `json:"timeoutMinutes"`
	Status          ForumStatus `json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// Message types. System messages are generated by the engine itself and
// must never re-trigger discussion.
const (
	MessageChat   = "chat"
	MessageSystem = "system"
)

// Metadata keys used on messages.
const (
	MetaDebateRound = "debateRound"
	MetaSource      = "source"
)

// Message is an append-only entry in a forum thread.
type Message struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	ForumID   string         `json:"forumId" gorm:"index"`
	AgentID   string         `json:"agentId,omitempty" gorm:"index"`
	Type      string         `json:"type"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty" gorm:"serializer:json"`
	CreatedAt time.Time      `json:"createdAt"`
}

// IsSystem reports whether the message was generated by the engine
// rather than an agent.
func (m Message) IsSystem() bool {
	if m.Type == MessageSystem {
		return true
	}
	if m.Metadata == nil {
		return false
	}
	_, ok := m.Metadata[MetaSource]
	return ok
}

// DebateRound returns the debate round tag on the message, or 0.
func (m Message) DebateRound() int {
	if m.Metadata == nil {
		return 0
	}
	switch v := m.Metadata[MetaDebateRound].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// ProposalStatus values move strictly forward:
// voting -> approved|rejected -> executing -> executed|failed.
type ProposalStatus string

const (
	ProposalVoting    ProposalStatus = "voting"
	ProposalApproved  ProposalStatus = "approved"
	ProposalRejected  ProposalStatus = "rejected"
	ProposalExecuting ProposalStatus = "executing"
	ProposalExecuted  ProposalStatus = "executed"
	ProposalFailed    ProposalStatus = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s ProposalStatus) Terminal() bool {
	return s == ProposalRejected || s == ProposalExecuted || s == ProposalFailed
}

// Proposal is a concrete action submitted for agent voting.
type Proposal struct {
	ID             string         `json:"id" gorm:"primaryKey"`
	ForumID        string         `json:"forumId" gorm:"index"`
	CreatorAgentID string         `json:"creatorAgentId"`
	Action         string         `json:"action"`
	Params         map[string]any `json:"params,omitempty" gorm:"serializer:json"`
	Status         ProposalStatus `json:"status" gorm:"index"`
	AgreeCount     int            `json:"agreeCount"`
	DisagreeCount  int            `json:"disagreeCount"`
	ExpiresAt      time.Time      `json:"expiresAt"`
	ResolvedAt     *time.Time     `json:"resolvedAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// Vote records one agent's decision on a proposal. Immutable once cast;
// at most one row per (proposal, agent).
type Vote struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	ProposalID string    `json:"proposalId" gorm:"uniqueIndex:idx_votes_proposal_agent"`
	AgentID    string    `json:"agentId" gorm:"uniqueIndex:idx_votes_proposal_agent"`
	Agree      bool      `json:"agree"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ExecutionStatus transitions pending -> success|failed, terminal once set.
type ExecutionStatus string

const (
	ExecutionPending ExecutionStatus = "pending"
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
)

// Terminal reports whether the execution has reached a final state.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionSuccess || s == ExecutionFailed
}

// Execution records one attempt to carry out an approved proposal's
// action. One row per (proposal, executor).
type Execution struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	ProposalID      string          `json:"proposalId" gorm:"uniqueIndex:idx_exec_proposal_executor"`
	ForumID         string          `json:"forumId" gorm:"index"`
	ExecutorAgentID string          `json:"executorAgentId" gorm:"uniqueIndex:idx_exec_proposal_executor"`
	WalletAddress   string          `json:"walletAddress"`
	Status          ExecutionStatus `json:"status"`
	TxHash          string          `json:"txHash,omitempty"`
	Error           string          `json:"error,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
