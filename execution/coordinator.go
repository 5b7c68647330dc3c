package execution

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/conclave-dao/conclave/core"
	"github.com/conclave-dao/conclave/storage"
)

// Config tunes the coordinator's funding-wait loop.
type Config struct {
	ChainID         string
	MinBalance      float64
	FundingInterval time.Duration
	FundingAttempts int
}

// Coordinator guarantees at most one successful execution per approved
// proposal across duplicate triggers. The approved -> executing
// conditional transition is the cross-process arbiter; everything else
// follows from whoever wins it.
type Coordinator struct {
	cfg      Config
	store    *storage.Store
	poster   MessagePoster
	payloads PayloadFetcher
	custody  CredentialCustody
	balances BalanceReader
	executor TransactionExecutor
	clock    core.Clock
	logger   *zap.Logger
}

func NewCoordinator(cfg Config, store *storage.Store, poster MessagePoster,
	payloads PayloadFetcher, custody CredentialCustody, balances BalanceReader,
	executor TransactionExecutor, clock core.Clock, logger *zap.Logger) *Coordinator {

	if cfg.FundingInterval <= 0 {
		cfg.FundingInterval = 5 * time.Second
	}
	if cfg.FundingAttempts <= 0 {
		cfg.FundingAttempts = 120
	}
	return &Coordinator{
		cfg:      cfg,
		store:    store,
		poster:   poster,
		payloads: payloads,
		custody:  custody,
		balances: balances,
		executor: executor,
		clock:    clock,
		logger:   logger.Named("execution"),
	}
}

// EnsureProposalExecuted drives an approved proposal to a terminal state
// exactly once. Safe to call any number of times from any trigger path;
// losers of the durable transition exit without side effects.
func (c *Coordinator) EnsureProposalExecuted(ctx context.Context, proposalID string) error {
	p, err := c.store.Proposals.Get(ctx, proposalID)
	if err != nil {
		return fmt.Errorf("load proposal %s: %w", proposalID, err)
	}
	if p.Status != core.ProposalApproved && p.Status != core.ProposalExecuting {
		return nil
	}

	forum, err := c.store.Forums.Get(ctx, p.ForumID)
	if err != nil {
		return fmt.Errorf("load forum %s: %w", p.ForumID, err)
	}

	executorID := c.resolveExecutor(p, forum)
	if executorID == "" {
		return fmt.Errorf("proposal %s has no resolvable executor", p.ID)
	}

	won, err := c.store.Proposals.TryTransition(ctx, p.ID, core.ProposalApproved, core.ProposalExecuting)
	if err != nil {
		return err
	}
	if !won {
		// Another party holds (or held) the executing transition.
		return c.handleLostTransition(ctx, p)
	}

	c.logger.Info("executing proposal",
		zap.String("proposal", p.ID), zap.String("executor", executorID))

	// Forum moves with the proposal; losing this transition is fine.
	if _, err := c.store.Forums.TryTransition(ctx, forum.ID, core.ForumActive, core.ForumExecuting); err != nil {
		c.logger.Warn("forum transition failed", zap.Error(err))
	}

	exec, err := c.store.Executions.CreateOrGet(ctx, &core.Execution{
		ProposalID:      p.ID,
		ForumID:         p.ForumID,
		ExecutorAgentID: executorID,
	})
	if err != nil {
		return fmt.Errorf("create execution row: %w", err)
	}
	if exec.Status.Terminal() {
		return nil
	}

	payload, err := c.payloads.FetchPayload(ctx, p.ID, c.cfg.ChainID)
	if err != nil {
		return c.fail(ctx, p, exec, fmt.Sprintf("fetch execution payload: %v", err))
	}

	cred, err := c.custody.SigningCredential(ctx, executorID)
	if err != nil {
		return c.fail(ctx, p, exec, fmt.Sprintf("resolve signing credential: %v", err))
	}
	if cred == nil {
		return c.fail(ctx, p, exec, fmt.Sprintf("no signing credential for agent %s", executorID))
	}
	if err := c.store.Executions.SetWallet(ctx, exec.ID, cred.WalletAddress); err != nil {
		c.logger.Warn("failed to record wallet", zap.Error(err))
	}

	funded, err := c.checkBalance(ctx, cred.WalletAddress)
	if err != nil {
		c.logger.Warn("balance check failed, treating as unfunded",
			zap.String("wallet", cred.WalletAddress), zap.Error(err))
	}
	if !funded {
		c.postMessage(ctx, p.ForumID, fmt.Sprintf(
			"Execution of proposal %q is waiting for funds. Send at least %.4f to wallet %s to proceed.",
			p.Action, c.cfg.MinBalance, cred.WalletAddress))
		if !c.awaitFunding(ctx, p.ForumID, cred.WalletAddress) {
			return c.fail(ctx, p, exec, fmt.Sprintf(
				"funding timeout: wallet %s never reached the minimum balance of %.4f",
				cred.WalletAddress, c.cfg.MinBalance))
		}
	}

	result, err := c.executor.Execute(ctx, ExecRequest{
		Action:     payload.Action,
		Params:     payload.Params,
		Credential: cred,
		ChainID:    payload.ChainID,
	})
	if err != nil {
		return c.finish(ctx, p, exec, core.ExecutionFailed, "", err.Error())
	}
	if !result.Success {
		return c.finish(ctx, p, exec, core.ExecutionFailed, result.TxHash, result.Error)
	}
	return c.finish(ctx, p, exec, core.ExecutionSuccess, result.TxHash, "")
}

// resolveExecutor picks the executor identity deterministically: the
// proposal's designated executor if the params name one, then the
// proposal creator, then the forum creator.
func (c *Coordinator) resolveExecutor(p *core.Proposal, forum *core.Forum) string {
	if p.Params != nil {
		if id, ok := p.Params["executorAgentId"].(string); ok && id != "" {
			return id
		}
	}
	if p.CreatorAgentID != "" {
		return p.CreatorAgentID
	}
	return forum.CreatorAgentID
}

// handleLostTransition decides what a losing trigger does: nothing if a
// winner is (or was) at work, or the terminal rollup if the winner
// crashed between reporting its result and rolling the proposal up.
func (c *Coordinator) handleLostTransition(ctx context.Context, p *core.Proposal) error {
	execs, err := c.store.Executions.ListByProposal(ctx, p.ID)
	if err != nil {
		return err
	}
	if len(execs) == 0 {
		// Winner is between the transition and its first row. Leave it.
		return nil
	}
	for _, e := range execs {
		if !e.Status.Terminal() {
			// A concurrent winner is proceeding.
			return nil
		}
	}
	return c.rollup(ctx, p, execs)
}

func (c *Coordinator) fail(ctx context.Context, p *core.Proposal, exec *core.Execution, reason string) error {
	c.logger.Warn("execution failed",
		zap.String("proposal", p.ID), zap.String("reason", reason))
	return c.finish(ctx, p, exec, core.ExecutionFailed, "", reason)
}

// finish records the terminal execution result and, once every row for
// the proposal is terminal, rolls the proposal and forum status up.
func (c *Coordinator) finish(ctx context.Context, p *core.Proposal, exec *core.Execution, status core.ExecutionStatus, txHash, errMsg string) error {
	updated, err := c.store.Executions.MarkResult(ctx, exec.ID, status, txHash, errMsg)
	if err != nil {
		return err
	}
	if !updated {
		// Already terminal; nothing further to report.
		return nil
	}

	execs, err := c.store.Executions.ListByProposal(ctx, p.ID)
	if err != nil {
		return err
	}
	for _, e := range execs {
		if !e.Status.Terminal() {
			return nil
		}
	}
	return c.rollup(ctx, p, execs)
}

// rollup closes out the proposal: executed iff every execution row
// succeeded, failed otherwise.
func (c *Coordinator) rollup(ctx context.Context, p *core.Proposal, execs []core.Execution) error {
	final := core.ProposalExecuted
	for _, e := range execs {
		if e.Status != core.ExecutionSuccess {
			final = core.ProposalFailed
			break
		}
	}

	won, err := c.store.Proposals.TryTransition(ctx, p.ID, core.ProposalExecuting, final)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	forumStatus := core.ForumCompleted
	if final == core.ProposalFailed {
		forumStatus = core.ForumFailed
	}
	if _, err := c.store.Forums.TryTransition(ctx, p.ForumID, core.ForumExecuting, forumStatus); err != nil {
		c.logger.Warn("forum rollup failed", zap.Error(err))
	}

	if final == core.ProposalExecuted {
		tx := ""
		for _, e := range execs {
			if e.TxHash != "" {
				tx = e.TxHash
				break
			}
		}
		c.postMessage(ctx, p.ForumID, fmt.Sprintf(
			"Proposal %q executed successfully (tx %s).", p.Action, tx))
	} else {
		reason := ""
		for _, e := range execs {
			if e.Error != "" {
				reason = e.Error
				break
			}
		}
		c.postMessage(ctx, p.ForumID, fmt.Sprintf(
			"Proposal %q failed to execute: %s", p.Action, reason))
	}

	c.logger.Info("proposal rolled up",
		zap.String("proposal", p.ID), zap.String("final", string(final)))
	return nil
}

func (c *Coordinator) checkBalance(ctx context.Context, wallet string) (bool, error) {
	bal, err := c.balances.Balance(ctx, wallet)
	if err != nil {
		return false, err
	}
	return bal >= c.cfg.MinBalance, nil
}

func (c *Coordinator) postMessage(ctx context.Context, forumID, content string) {
	if c.poster == nil {
		return
	}
	meta := map[string]any{core.MetaSource: "execution"}
	if err := c.poster.PostSystemMessage(ctx, forumID, content, meta); err != nil {
		c.logger.Warn("failed to post execution message", zap.Error(err))
	}
}
