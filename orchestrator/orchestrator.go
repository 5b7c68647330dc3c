package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/conclave-dao/conclave/ai"
	"github.com/conclave-dao/conclave/communication"
	"github.com/conclave-dao/conclave/consensus"
	"github.com/conclave-dao/conclave/core"
	"github.com/conclave-dao/conclave/registry"
	"github.com/conclave-dao/conclave/storage"
)

// Executor is the single idempotent entry point into the execution path.
// All trigger paths (direct, reactive event, startup scan) go through it.
type Executor interface {
	EnsureProposalExecuted(ctx context.Context, proposalID string) error
}

// Config tunes the orchestrator's routing behavior.
type Config struct {
	Gate          GateLimits
	DedupTTL      time.Duration
	ContextWindow int
	SweepInterval time.Duration
}

// Orchestrator routes change-feed events to discussion, consensus, and
// execution handling. It owns all in-process maps and sets for its
// lifetime; nothing here survives a restart, and nothing here is relied
// on for cross-process correctness.
type Orchestrator struct {
	cfg       Config
	state     *State
	store     *storage.Store
	forums    *communication.Service
	registry  *registry.Registry
	debate    *DebateManager
	consensus *consensus.Manager
	executor  Executor
	broker    *core.Broker
	hub       *communication.Hub
	clock     core.Clock
	logger    *zap.Logger

	subs []*nats.Subscription
}

func New(cfg Config, store *storage.Store, forums *communication.Service, reg *registry.Registry,
	debate *DebateManager, cons *consensus.Manager, executor Executor,
	broker *core.Broker, hub *communication.Hub, clock core.Clock, logger *zap.Logger) *Orchestrator {

	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 20
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 30 * time.Second
	}
	return &Orchestrator{
		cfg:       cfg,
		state:     NewState(cfg.DedupTTL, clock),
		store:     store,
		forums:    forums,
		registry:  reg,
		debate:    debate,
		consensus: cons,
		executor:  executor,
		broker:    broker,
		hub:       hub,
		clock:     clock,
		logger:    logger.Named("orchestrator"),
	}
}

// Start subscribes to the change feed, runs the startup reconciliation
// scan, and launches the proposal expiry sweep. It returns once the
// subscriptions are live.
func (o *Orchestrator) Start(ctx context.Context) error {
	subjects := map[string]func(context.Context, []byte){
		core.SubjectMessageCreated:        o.onMessageCreated,
		core.SubjectProposalCreated:       o.onProposalCreated,
		core.SubjectProposalStatusChanged: o.onProposalStatus,
	}
	for subject, handler := range subjects {
		h := handler
		sub, err := o.broker.Subscribe(subject, func(data []byte) {
			h(ctx, data)
		})
		if err != nil {
			return err
		}
		o.subs = append(o.subs, sub)
	}

	if err := o.Reconcile(ctx); err != nil {
		o.logger.Warn("startup reconciliation failed", zap.Error(err))
	}

	go o.sweepLoop(ctx)
	return nil
}

// Stop drains the change-feed subscriptions.
func (o *Orchestrator) Stop() {
	for _, sub := range o.subs {
		if err := sub.Unsubscribe(); err != nil {
			o.logger.Debug("unsubscribe failed", zap.Error(err))
		}
	}
	o.subs = nil
}

// Reconcile scans for proposals whose execution may have been lost to a
// restart and re-enters the idempotent execution path for each.
func (o *Orchestrator) Reconcile(ctx context.Context) error {
	stuck, err := o.store.Proposals.ListByStatus(ctx, core.ProposalApproved, core.ProposalExecuting)
	if err != nil {
		return err
	}
	for _, p := range stuck {
		o.logger.Info("reconciling proposal",
			zap.String("proposal", p.ID), zap.String("status", string(p.Status)))
		o.TriggerExecution(ctx, p.ID)
	}
	return nil
}

// onMessageCreated fans a message-insert event out to every locally
// registered agent. Failures are isolated per agent.
func (o *Orchestrator) onMessageCreated(ctx context.Context, data []byte) {
	var ev core.MessageCreatedEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.Message.ID == "" {
		o.logger.Warn("dropping malformed message event", zap.Error(err))
		return
	}
	msg := ev.Message
	if msg.IsSystem() {
		return
	}

	// Load before consuming the event ID: a transient store failure here
	// must leave the event eligible for redelivery within the TTL.
	forum, err := o.store.Forums.Get(ctx, msg.ForumID)
	if err != nil {
		o.logger.Warn("message for unknown forum",
			zap.String("forum", msg.ForumID), zap.Error(err))
		return
	}
	if forum.Status != core.ForumActive {
		return
	}
	if !o.state.MarkProcessed(ev.EventID()) {
		return
	}

	for _, rt := range o.registry.List() {
		if rt.Agent.ID == msg.AgentID {
			continue
		}
		go o.handleDiscussion(ctx, rt, *forum, msg)
	}
}

func (o *Orchestrator) handleDiscussion(ctx context.Context, rt *registry.Runtime, forum core.Forum, trigger core.Message) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("discussion handler panicked",
				zap.String("agent", rt.Agent.ID), zap.Any("panic", r))
		}
	}()

	lock := o.state.PairLock(rt.Agent.ID, forum.ID)
	lock.Lock()
	defer lock.Unlock()

	recent, err := o.store.Messages.ListRecent(ctx, forum.ID, o.cfg.ContextWindow)
	if err != nil {
		o.logger.Warn("failed to load recent messages", zap.Error(err))
		return
	}

	decision := ShouldParticipate(rt.Agent.ID, trigger, recent, o.cfg.Gate, o.clock.Now())
	if !decision.Should {
		o.logger.Debug("participation suppressed",
			zap.String("agent", rt.Agent.ID),
			zap.String("forum", forum.ID),
			zap.String("reason", decision.Reason))
		return
	}

	o.debate.Run(ctx, rt, forum, trigger)
}

// onProposalCreated lets every locally registered agent vote on the new
// proposal. Failures are isolated per agent.
func (o *Orchestrator) onProposalCreated(ctx context.Context, data []byte) {
	var ev core.ProposalCreatedEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.Proposal.ID == "" {
		o.logger.Warn("dropping malformed proposal event", zap.Error(err))
		return
	}
	forum, err := o.store.Forums.Get(ctx, ev.Proposal.ForumID)
	if err != nil {
		o.logger.Warn("proposal for unknown forum",
			zap.String("forum", ev.Proposal.ForumID), zap.Error(err))
		return
	}
	if !o.state.MarkProcessed(ev.EventID()) {
		return
	}

	for _, rt := range o.registry.List() {
		go o.castAgentVote(ctx, rt, *forum, ev.Proposal)
	}
}

func (o *Orchestrator) castAgentVote(ctx context.Context, rt *registry.Runtime, forum core.Forum, p core.Proposal) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("vote handler panicked",
				zap.String("agent", rt.Agent.ID), zap.Any("panic", r))
		}
	}()

	response, err := rt.Generator.Complete(ctx, ai.SystemPrompt(rt.Agent), ai.VotePrompt(forum, p))
	if err != nil || response == "" {
		o.logger.Debug("vote generation failed",
			zap.String("agent", rt.Agent.ID), zap.Error(err))
		return
	}
	agree, reason := ai.ParseVote(response)

	vote := &core.Vote{ProposalID: p.ID, AgentID: rt.Agent.ID, Agree: agree, Reason: reason}
	if _, err := o.store.Votes.Cast(ctx, vote); err != nil {
		if !errors.Is(err, storage.ErrDuplicateVote) {
			o.logger.Warn("vote cast failed",
				zap.String("agent", rt.Agent.ID), zap.Error(err))
		}
		return
	}
	o.hub.Broadcast(communication.EventAgentVote, vote)

	o.HandleVoteCast(ctx, p.ID)
}

// HandleVoteCast re-evaluates consensus after a vote lands, triggering
// execution directly when the tally approves the proposal. Also invoked
// by the host API after accepting an external vote.
func (o *Orchestrator) HandleVoteCast(ctx context.Context, proposalID string) {
	outcome, won, err := o.consensus.Evaluate(ctx, proposalID)
	if err != nil {
		o.logger.Warn("consensus evaluation failed",
			zap.String("proposal", proposalID), zap.Error(err))
		return
	}
	if won {
		o.hub.Broadcast(communication.EventVotingResult, map[string]any{
			"proposalId": proposalID,
			"outcome":    outcome.String(),
		})
	}
	if outcome == consensus.Approved {
		o.TriggerExecution(ctx, proposalID)
	}
}

// onProposalStatus reacts to durable status transitions; the approved
// transition is the reactive trigger path into execution.
func (o *Orchestrator) onProposalStatus(ctx context.Context, data []byte) {
	var ev core.ProposalStatusChangedEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.ProposalID == "" {
		o.logger.Warn("dropping malformed status event", zap.Error(err))
		return
	}
	if !o.state.MarkProcessed(ev.EventID()) {
		return
	}

	switch ev.To {
	case core.ProposalApproved:
		o.TriggerExecution(ctx, ev.ProposalID)
	case core.ProposalExecuting, core.ProposalExecuted, core.ProposalFailed:
		o.hub.Broadcast(communication.EventExecutionUpdate, ev)
	}
}

// TriggerExecution enters the execution path for a proposal unless this
// process already has an attempt in flight. The durable transitions
// inside the executor arbitrate across processes.
func (o *Orchestrator) TriggerExecution(ctx context.Context, proposalID string) {
	if !o.state.TryLockExecution(proposalID) {
		return
	}
	go func() {
		defer o.state.UnlockExecution(proposalID)
		if err := o.executor.EnsureProposalExecuted(ctx, proposalID); err != nil {
			o.logger.Warn("execution attempt failed",
				zap.String("proposal", proposalID), zap.Error(err))
		}
	}()
}

// sweepLoop rejects voting proposals whose window expired.
func (o *Orchestrator) sweepLoop(ctx context.Context) {
	for {
		if err := o.clock.Sleep(ctx, o.cfg.SweepInterval); err != nil {
			return
		}
		expired, err := o.store.Proposals.ListExpired(ctx, o.clock.Now())
		if err != nil {
			o.logger.Warn("expiry sweep failed", zap.Error(err))
			continue
		}
		for i := range expired {
			if err := o.consensus.Expire(ctx, &expired[i]); err != nil {
				o.logger.Warn("expire failed",
					zap.String("proposal", expired[i].ID), zap.Error(err))
			}
		}
	}
}
