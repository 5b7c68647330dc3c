package consensus

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/conclave-dao/conclave/core"
	"github.com/conclave-dao/conclave/storage"
)

// MessagePoster posts engine-generated messages into a forum thread.
type MessagePoster interface {
	PostSystemMessage(ctx context.Context, forumID, content string, metadata map[string]any) error
}

// Manager applies consensus outcomes to the proposal lifecycle. All
// transitions route through the store's conditional update, so concurrent
// evaluations of the same tally are harmless: one wins, the rest observe
// a no-op.
type Manager struct {
	store  *storage.Store
	poster MessagePoster
	logger *zap.Logger
}

func NewManager(store *storage.Store, poster MessagePoster, logger *zap.Logger) *Manager {
	return &Manager{store: store, poster: poster, logger: logger.Named("consensus")}
}

// Evaluate resolves the proposal's current tally and, when decisive,
// attempts the voting -> approved/rejected transition. The returned bool
// reports whether this caller won the transition.
func (m *Manager) Evaluate(ctx context.Context, proposalID string) (Outcome, bool, error) {
	p, err := m.store.Proposals.Get(ctx, proposalID)
	if err != nil {
		return Pending, false, fmt.Errorf("load proposal: %w", err)
	}
	if p.Status != core.ProposalVoting {
		return outcomeForStatus(p.Status), false, nil
	}

	forum, err := m.store.Forums.Get(ctx, p.ForumID)
	if err != nil {
		return Pending, false, fmt.Errorf("load forum: %w", err)
	}

	outcome := Resolve(p.AgreeCount, p.DisagreeCount, forum.QuorumThreshold)
	if outcome == Pending {
		return Pending, false, nil
	}

	to := core.ProposalApproved
	if outcome == Rejected {
		to = core.ProposalRejected
	}
	won, err := m.store.Proposals.TryTransition(ctx, p.ID, core.ProposalVoting, to)
	if err != nil {
		return outcome, false, err
	}
	if !won {
		return outcome, false, nil
	}

	m.logger.Info("proposal resolved",
		zap.String("proposal", p.ID),
		zap.String("outcome", outcome.String()),
		zap.Int("agree", p.AgreeCount),
		zap.Int("disagree", p.DisagreeCount))

	m.postVerdict(ctx, p, outcome)
	return outcome, true, nil
}

// Expire rejects a voting proposal whose window has closed. Losing the
// transition means a vote resolved it first, which is fine.
func (m *Manager) Expire(ctx context.Context, p *core.Proposal) error {
	won, err := m.store.Proposals.TryTransition(ctx, p.ID, core.ProposalVoting, core.ProposalRejected)
	if err != nil || !won {
		return err
	}
	m.postSystem(ctx, p.ForumID, fmt.Sprintf(
		"Proposal %q expired without reaching quorum and was rejected.", p.Action))
	return nil
}

func (m *Manager) postVerdict(ctx context.Context, p *core.Proposal, outcome Outcome) {
	verdict := "approved"
	if outcome == Rejected {
		verdict = "rejected"
	}
	m.postSystem(ctx, p.ForumID, fmt.Sprintf(
		"Consensus reached: proposal %q %s (%d agree / %d disagree).",
		p.Action, verdict, p.AgreeCount, p.DisagreeCount))
}

func (m *Manager) postSystem(ctx context.Context, forumID, content string) {
	if m.poster == nil {
		return
	}
	meta := map[string]any{core.MetaSource: "consensus"}
	if err := m.poster.PostSystemMessage(ctx, forumID, content, meta); err != nil {
		m.logger.Warn("failed to post consensus message", zap.Error(err))
	}
}

func outcomeForStatus(s core.ProposalStatus) Outcome {
	switch s {
	case core.ProposalRejected:
		return Rejected
	case core.ProposalVoting:
		return Pending
	default:
		return Approved
	}
}
