package execution

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/conclave-dao/conclave/core"
	"github.com/conclave-dao/conclave/storage"
)

type immediateClock struct{}

func (immediateClock) Now() time.Time { return time.Unix(1700000000, 0) }

func (immediateClock) Sleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

type staticPayloads struct{}

func (staticPayloads) FetchPayload(ctx context.Context, proposalID, chainID string) (*Payload, error) {
	return &Payload{Action: "transfer", ChainID: chainID}, nil
}

type mapCustody struct {
	creds map[string]Credential
}

func (m mapCustody) SigningCredential(ctx context.Context, agentID string) (*Credential, error) {
	cred, ok := m.creds[agentID]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

// steppedBalances returns zero until the configured number of reads has
// happened, then reports the funded amount.
type steppedBalances struct {
	mu       sync.Mutex
	reads    int
	fundedAt int // 0 means never
	amount   float64
}

func (b *steppedBalances) Balance(ctx context.Context, wallet string) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reads++
	if b.fundedAt > 0 && b.reads >= b.fundedAt {
		return b.amount, nil
	}
	return 0, nil
}

type countingExecutor struct {
	mu     sync.Mutex
	calls  int
	result ExecResult
	err    error
}

func (e *countingExecutor) Execute(ctx context.Context, req ExecRequest) (*ExecResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	r := e.result
	return &r, nil
}

func (e *countingExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type memoryPoster struct {
	mu       sync.Mutex
	messages []string
}

func (p *memoryPoster) PostSystemMessage(ctx context.Context, forumID, content string, metadata map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, content)
	return nil
}

type fixture struct {
	store    *storage.Store
	forum    *core.Forum
	proposal *core.Proposal
}

func approvedProposal(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), nil, zap.NewNop())
	require.NoError(t, err)

	forum := &core.Forum{Goal: "execute a transfer", QuorumThreshold: 0.66, CreatorAgentID: "creator", TimeoutMinutes: 60}
	require.NoError(t, store.Forums.Create(ctx, forum))

	p := &core.Proposal{
		ForumID:        forum.ID,
		CreatorAgentID: "executor-agent",
		Action:         "transfer",
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Proposals.Create(ctx, p))

	won, err := store.Proposals.TryTransition(ctx, p.ID, core.ProposalVoting, core.ProposalApproved)
	require.NoError(t, err)
	require.True(t, won)
	return fixture{store: store, forum: forum, proposal: p}
}

func newCoordinator(f fixture, balances BalanceReader, executor TransactionExecutor, poster MessagePoster, attempts int) *Coordinator {
	return NewCoordinator(Config{
		ChainID:         "testchain",
		MinBalance:      1.0,
		FundingInterval: time.Millisecond,
		FundingAttempts: attempts,
	}, f.store, poster,
		staticPayloads{},
		mapCustody{creds: map[string]Credential{
			"executor-agent": {WalletAddress: "0xwallet", PrivateKeyHex: "aa"},
		}},
		balances, executor, immediateClock{}, zap.NewNop())
}

func TestEnsureProposalExecutedHappyPath(t *testing.T) {
	f := approvedProposal(t)
	executor := &countingExecutor{result: ExecResult{Success: true, TxHash: "tx-1"}}
	poster := &memoryPoster{}
	c := newCoordinator(f, &steppedBalances{fundedAt: 1, amount: 5}, executor, poster, 3)

	require.NoError(t, c.EnsureProposalExecuted(context.Background(), f.proposal.ID))

	assert.Equal(t, 1, executor.callCount())

	ctx := context.Background()
	p, err := f.store.Proposals.Get(ctx, f.proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ProposalExecuted, p.Status)

	forum, err := f.store.Forums.Get(ctx, f.forum.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ForumCompleted, forum.Status)

	rows, err := f.store.Executions.ListByProposal(ctx, f.proposal.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, core.ExecutionSuccess, rows[0].Status)
	assert.Equal(t, "tx-1", rows[0].TxHash)
	assert.Equal(t, "0xwallet", rows[0].WalletAddress)
}

func TestEnsureProposalExecutedConcurrentTriggers(t *testing.T) {
	f := approvedProposal(t)
	executor := &countingExecutor{result: ExecResult{Success: true, TxHash: "tx-1"}}
	c := newCoordinator(f, &steppedBalances{fundedAt: 1, amount: 5}, executor, nil, 3)

	const triggers = 6
	var wg sync.WaitGroup
	for i := 0; i < triggers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.EnsureProposalExecuted(context.Background(), f.proposal.ID))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, executor.callCount())

	ctx := context.Background()
	rows, err := f.store.Executions.ListByProposal(ctx, f.proposal.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	p, err := f.store.Proposals.Get(ctx, f.proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ProposalExecuted, p.Status)
}

func TestEnsureProposalExecutedIdempotentAfterTerminal(t *testing.T) {
	f := approvedProposal(t)
	executor := &countingExecutor{result: ExecResult{Success: true, TxHash: "tx-1"}}
	c := newCoordinator(f, &steppedBalances{fundedAt: 1, amount: 5}, executor, nil, 3)

	ctx := context.Background()
	require.NoError(t, c.EnsureProposalExecuted(ctx, f.proposal.ID))
	require.NoError(t, c.EnsureProposalExecuted(ctx, f.proposal.ID))
	require.NoError(t, c.EnsureProposalExecuted(ctx, f.proposal.ID))

	assert.Equal(t, 1, executor.callCount())
}

func TestEnsureProposalExecutedFailsWithoutCredential(t *testing.T) {
	f := approvedProposal(t)
	executor := &countingExecutor{}
	c := NewCoordinator(Config{
		ChainID:         "testchain",
		MinBalance:      1.0,
		FundingInterval: time.Millisecond,
		FundingAttempts: 2,
	}, f.store, nil, staticPayloads{}, mapCustody{creds: map[string]Credential{}},
		&steppedBalances{}, executor, immediateClock{}, zap.NewNop())

	require.NoError(t, c.EnsureProposalExecuted(context.Background(), f.proposal.ID))

	assert.Equal(t, 0, executor.callCount())

	ctx := context.Background()
	rows, err := f.store.Executions.ListByProposal(ctx, f.proposal.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, core.ExecutionFailed, rows[0].Status)
	assert.Contains(t, rows[0].Error, "no signing credential for agent executor-agent")

	p, err := f.store.Proposals.Get(ctx, f.proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ProposalFailed, p.Status)

	forum, err := f.store.Forums.Get(ctx, f.forum.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ForumFailed, forum.Status)
}

func TestEnsureProposalExecutedFundingTimeout(t *testing.T) {
	f := approvedProposal(t)
	executor := &countingExecutor{result: ExecResult{Success: true}}
	poster := &memoryPoster{}
	c := newCoordinator(f, &steppedBalances{}, executor, poster, 3)

	require.NoError(t, c.EnsureProposalExecuted(context.Background(), f.proposal.ID))

	assert.Equal(t, 0, executor.callCount())

	ctx := context.Background()
	rows, err := f.store.Executions.ListByProposal(ctx, f.proposal.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, core.ExecutionFailed, rows[0].Status)
	assert.Contains(t, rows[0].Error, "0xwallet")

	p, err := f.store.Proposals.Get(ctx, f.proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ProposalFailed, p.Status)
}

func TestEnsureProposalExecutedWaitsForFunding(t *testing.T) {
	f := approvedProposal(t)
	executor := &countingExecutor{result: ExecResult{Success: true, TxHash: "tx-2"}}
	poster := &memoryPoster{}
	// Initial check plus two polls fail, the third poll sees funds.
	balances := &steppedBalances{fundedAt: 4, amount: 2}
	c := newCoordinator(f, balances, executor, poster, 10)

	require.NoError(t, c.EnsureProposalExecuted(context.Background(), f.proposal.ID))

	assert.Equal(t, 1, executor.callCount())
	// Polling stops at the first funded reading.
	assert.Equal(t, 4, balances.reads)

	p, err := f.store.Proposals.Get(context.Background(), f.proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ProposalExecuted, p.Status)
}

func TestEnsureProposalExecutedSkipsNonApproved(t *testing.T) {
	f := approvedProposal(t)
	ctx := context.Background()
	won, err := f.store.Proposals.TryTransition(ctx, f.proposal.ID, core.ProposalApproved, core.ProposalExecuting)
	require.NoError(t, err)
	require.True(t, won)
	won, err = f.store.Proposals.TryTransition(ctx, f.proposal.ID, core.ProposalExecuting, core.ProposalExecuted)
	require.NoError(t, err)
	require.True(t, won)

	executor := &countingExecutor{}
	c := newCoordinator(f, &steppedBalances{fundedAt: 1, amount: 5}, executor, nil, 3)

	require.NoError(t, c.EnsureProposalExecuted(ctx, f.proposal.ID))
	assert.Equal(t, 0, executor.callCount())
}

func TestExecutorFailureMarksProposalFailed(t *testing.T) {
	f := approvedProposal(t)
	executor := &countingExecutor{result: ExecResult{Success: false, Error: "chain rejected the action"}}
	c := newCoordinator(f, &steppedBalances{fundedAt: 1, amount: 5}, executor, nil, 3)

	require.NoError(t, c.EnsureProposalExecuted(context.Background(), f.proposal.ID))

	ctx := context.Background()
	rows, err := f.store.Executions.ListByProposal(ctx, f.proposal.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, core.ExecutionFailed, rows[0].Status)

	p, err := f.store.Proposals.Get(ctx, f.proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ProposalFailed, p.Status)
}
