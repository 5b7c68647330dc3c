package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/conclave-dao/conclave/ai"
	"github.com/conclave-dao/conclave/communication"
	"github.com/conclave-dao/conclave/core"
	"github.com/conclave-dao/conclave/registry"
	"github.com/conclave-dao/conclave/storage"
)

// DebateConfig bounds the multi-round reply loop.
type DebateConfig struct {
	MaxRounds     int
	Delay         time.Duration
	ContextWindow int
}

type sessionKey struct {
	agentID string
	forumID string
}

type debateSession struct {
	rootMessageID string
	roundsUsed    int
	firstAt       time.Time
	lastAt        time.Time
	active        bool
}

// DebateManager runs the bounded reply loop per (agent, forum) pair:
// Idle -> Active(rootMessageID, roundsUsed) -> Idle. A session is
// destroyed when its loop exits.
type DebateManager struct {
	cfg      DebateConfig
	store    *storage.Store
	forums   *communication.Service
	research *ai.Researcher
	clock    core.Clock
	logger   *zap.Logger

	// sessions is guarded by mu; the pair lock in State already serializes
	// triggers for one pair, mu covers cross-pair map access.
	mu       sync.Mutex
	sessions map[sessionKey]*debateSession
}

func NewDebateManager(cfg DebateConfig, store *storage.Store, forums *communication.Service, research *ai.Researcher, clock core.Clock, logger *zap.Logger) *DebateManager {
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 20
	}
	return &DebateManager{
		cfg:      cfg,
		store:    store,
		forums:   forums,
		research: research,
		clock:    clock,
		logger:   logger.Named("debate"),
		sessions: make(map[sessionKey]*debateSession),
	}
}

// ActiveRoot reports the root message of the pair's active session, if any.
func (m *DebateManager) ActiveRoot(agentID, forumID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionKey{agentID, forumID}]; ok && s.active {
		return s.rootMessageID, true
	}
	return "", false
}

// Run executes a full debate session for the pair, blocking until the
// rounds are exhausted. Returns false without side effects when a
// session is already active for the pair (regardless of root).
func (m *DebateManager) Run(ctx context.Context, rt *registry.Runtime, forum core.Forum, root core.Message) bool {
	key := sessionKey{rt.Agent.ID, forum.ID}
	now := m.clock.Now()

	m.mu.Lock()
	if s, ok := m.sessions[key]; ok && s.active {
		m.mu.Unlock()
		return false
	}
	sess := &debateSession{
		rootMessageID: root.ID,
		firstAt:       now,
		lastAt:        now,
		active:        true,
	}
	m.sessions[key] = sess
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		sess.active = false
		delete(m.sessions, key)
		m.mu.Unlock()
	}()

	names := m.agentNames(ctx)

	for sess.roundsUsed < m.cfg.MaxRounds {
		wait := m.cfg.Delay - m.clock.Now().Sub(sess.lastAt)
		if wait > 0 {
			if err := m.clock.Sleep(ctx, wait); err != nil {
				return true
			}
		}
		sess.roundsUsed++

		recent, err := m.store.Messages.ListRecent(ctx, forum.ID, m.cfg.ContextWindow)
		if err != nil {
			m.logger.Warn("context refresh failed", zap.Error(err))
			sess.lastAt = m.clock.Now()
			continue
		}

		var snapshot string
		if m.research != nil {
			snapshot = m.research.Snapshot(ctx, forum.Goal, rt.Agent.Traits)
		}

		prompt := ai.ReplyPrompt(forum, recent, names, snapshot)
		reply, err := rt.Generator.Complete(ctx, ai.SystemPrompt(rt.Agent), prompt)
		sess.lastAt = m.clock.Now()
		if err != nil || reply == "" {
			// Generator is best-effort; the round is spent either way.
			m.logger.Debug("no reply generated",
				zap.String("agent", rt.Agent.ID), zap.Error(err))
			continue
		}

		msg := &core.Message{
			ForumID: forum.ID,
			AgentID: rt.Agent.ID,
			Type:    core.MessageChat,
			Content: reply,
			Metadata: map[string]any{
				core.MetaDebateRound: sess.roundsUsed,
			},
		}
		if err := m.forums.PostMessage(ctx, msg); err != nil {
			m.logger.Warn("failed to persist debate reply",
				zap.String("agent", rt.Agent.ID), zap.Error(err))
		}
	}
	return true
}

func (m *DebateManager) agentNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	agents, err := m.store.Agents.List(ctx)
	if err != nil {
		return names
	}
	for _, a := range agents {
		names[a.ID] = a.Name
	}
	return names
}
