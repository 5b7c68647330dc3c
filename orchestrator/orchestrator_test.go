package orchestrator

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/conclave-dao/conclave/communication"
	"github.com/conclave-dao/conclave/consensus"
	"github.com/conclave-dao/conclave/core"
	"github.com/conclave-dao/conclave/registry"
	"github.com/conclave-dao/conclave/storage"
)

type recordingExecutor struct {
	mu  sync.Mutex
	ids []string
}

func (e *recordingExecutor) EnsureProposalExecuted(ctx context.Context, proposalID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = append(e.ids, proposalID)
	return nil
}

func (e *recordingExecutor) executed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.ids...)
}

type panicGenerator struct{}

func (panicGenerator) Complete(context.Context, string, string) (string, error) {
	panic("generator exploded")
}

// orchestratorFixture wires a full Orchestrator over a temp store with
// the broker left out; tests feed events straight into the handlers.
func orchestratorFixture(t *testing.T, runtimes ...*registry.Runtime) (*Orchestrator, *storage.Store, *recordingExecutor) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), nil, zap.NewNop())
	require.NoError(t, err)

	hub := communication.NewHub(zap.NewNop())
	t.Cleanup(hub.Close)
	forums := communication.NewService(store, hub, zap.NewNop())

	reg := registry.New()
	for _, rt := range runtimes {
		reg.Register(rt)
	}

	clock := newManualClock()
	debate := NewDebateManager(DebateConfig{MaxRounds: 1, Delay: time.Millisecond}, store, forums, nil, clock, zap.NewNop())
	cons := consensus.NewManager(store, forums, zap.NewNop())
	exec := &recordingExecutor{}

	cfg := Config{
		Gate:     GateLimits{MinInterval: time.Second, MaxAutoMessages: 5},
		DedupTTL: time.Minute,
	}
	o := New(cfg, store, forums, reg, debate, cons, exec, nil, hub, clock, zap.NewNop())
	return o, store, exec
}

func seedForumWithRoot(t *testing.T, store *storage.Store) (core.Forum, core.Message) {
	t.Helper()
	ctx := context.Background()
	forum := &core.Forum{Goal: "pick a treasury action", QuorumThreshold: 0.66, TimeoutMinutes: 60}
	require.NoError(t, store.Forums.Create(ctx, forum))
	root := &core.Message{ForumID: forum.ID, AgentID: "author", Type: core.MessageChat, Content: "what should we do?"}
	require.NoError(t, store.Messages.Create(ctx, root))
	return *forum, *root
}

func countBy(t *testing.T, store *storage.Store, forumID, agentID string) int {
	t.Helper()
	msgs, err := store.Messages.ListRecent(context.Background(), forumID, 0)
	require.NoError(t, err)
	n := 0
	for _, m := range msgs {
		if m.AgentID == agentID {
			n++
		}
	}
	return n
}

func TestDuplicateMessageEventDispatchesOnce(t *testing.T) {
	gen := &scriptedGenerator{reply: "we should fund the grant"}
	rt := &registry.Runtime{Agent: core.Agent{ID: "debater"}, Generator: gen}
	o, store, _ := orchestratorFixture(t, rt)

	ctx := context.Background()
	forum, root := seedForumWithRoot(t, store)

	data, err := json.Marshal(core.MessageCreatedEvent{Message: root})
	require.NoError(t, err)

	o.onMessageCreated(ctx, data)
	o.onMessageCreated(ctx, data)

	require.Eventually(t, func() bool { return gen.callCount() >= 1 },
		2*time.Second, 5*time.Millisecond)

	// Let any second dispatch, were there one, land before counting.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, gen.callCount())
	assert.Equal(t, 1, countBy(t, store, forum.ID, "debater"))
}

func TestPanickingAgentDoesNotStallSiblings(t *testing.T) {
	steady := &scriptedGenerator{reply: "a measured take"}
	o, store, _ := orchestratorFixture(t,
		&registry.Runtime{Agent: core.Agent{ID: "grumpy"}, Generator: panicGenerator{}},
		&registry.Runtime{Agent: core.Agent{ID: "steady"}, Generator: steady},
	)

	ctx := context.Background()
	forum, root := seedForumWithRoot(t, store)

	data, err := json.Marshal(core.MessageCreatedEvent{Message: root})
	require.NoError(t, err)
	o.onMessageCreated(ctx, data)

	require.Eventually(t, func() bool { return steady.callCount() == 1 },
		2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, countBy(t, store, forum.ID, "steady"))
	assert.Zero(t, countBy(t, store, forum.ID, "grumpy"))
}

func TestMessageEventSurvivesForumLoadFailure(t *testing.T) {
	gen := &scriptedGenerator{reply: "late but present"}
	rt := &registry.Runtime{Agent: core.Agent{ID: "debater"}, Generator: gen}
	o, store, _ := orchestratorFixture(t, rt)

	ctx := context.Background()
	forumID := uuid.New().String()
	msg := core.Message{ID: uuid.New().String(), ForumID: forumID, AgentID: "author", Type: core.MessageChat, Content: "anyone there?"}
	data, err := json.Marshal(core.MessageCreatedEvent{Message: msg})
	require.NoError(t, err)

	// Forum row is missing: the load fails and nothing dispatches, but
	// the event ID must not be consumed by the failed attempt.
	o.onMessageCreated(ctx, data)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, gen.callCount())

	require.NoError(t, store.Forums.Create(ctx, &core.Forum{ID: forumID, Goal: "late forum", QuorumThreshold: 0.66}))
	seeded := msg
	require.NoError(t, store.Messages.Create(ctx, &seeded))

	o.onMessageCreated(ctx, data)
	require.Eventually(t, func() bool { return gen.callCount() == 1 },
		2*time.Second, 5*time.Millisecond)
}

func TestDuplicateProposalEventVotesOnce(t *testing.T) {
	gen := &scriptedGenerator{reply: "AGREE: low risk, clear upside"}
	rt := &registry.Runtime{Agent: core.Agent{ID: "voter"}, Generator: gen}
	o, store, exec := orchestratorFixture(t, rt)

	ctx := context.Background()
	forum, _ := seedForumWithRoot(t, store)
	p := &core.Proposal{
		ForumID:        forum.ID,
		CreatorAgentID: "author",
		Action:         "transfer",
		Params:         map[string]any{"amount": 5},
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Proposals.Create(ctx, p))

	data, err := json.Marshal(core.ProposalCreatedEvent{Proposal: *p})
	require.NoError(t, err)

	o.onProposalCreated(ctx, data)
	o.onProposalCreated(ctx, data)

	require.Eventually(t, func() bool { return gen.callCount() >= 1 },
		2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, gen.callCount())

	votes, err := store.Votes.ListByProposal(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.True(t, votes[0].Agree)

	// One agreeing vote is below the minimum tally, so nothing executes.
	assert.Empty(t, exec.executed())
}

func TestReconcileReentersApprovedProposals(t *testing.T) {
	o, store, exec := orchestratorFixture(t)

	ctx := context.Background()
	forum, _ := seedForumWithRoot(t, store)
	p := &core.Proposal{ForumID: forum.ID, CreatorAgentID: "author", Action: "transfer", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Proposals.Create(ctx, p))
	won, err := store.Proposals.TryTransition(ctx, p.ID, core.ProposalVoting, core.ProposalApproved)
	require.NoError(t, err)
	require.True(t, won)

	require.NoError(t, o.Reconcile(ctx))

	require.Eventually(t, func() bool {
		ids := exec.executed()
		return len(ids) == 1 && ids[0] == p.ID
	}, 2*time.Second, 5*time.Millisecond)
}
