package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/conclave-dao/conclave/ai"
	"github.com/conclave-dao/conclave/core"
	"github.com/conclave-dao/conclave/storage"
)

// Extractor analyzes forum debates.
type Extractor struct {
	store  *storage.Store
	gen    ai.Generator
	logger *zap.Logger
}

func NewExtractor(store *storage.Store, gen ai.Generator, logger *zap.Logger) *Extractor {
	return &Extractor{store: store, gen: gen, logger: logger.Named("insights")}
}

// AnalyzeForum runs an LLM analysis over the forum's recent discussion.
func (e *Extractor) AnalyzeForum(ctx context.Context, forumID string) (*DiscussionAnalysis, error) {
	forum, err := e.store.Forums.Get(ctx, forumID)
	if err != nil {
		return nil, err
	}
	msgs, err := e.store.Messages.ListRecent(ctx, forumID, 50)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("no messages in forum %s", forumID)
	}

	names := e.agentNames(ctx, msgs)

	// ListRecent is newest-first; the analysis reads better oldest-first.
	var b strings.Builder
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		who := names[m.AgentID]
		if m.IsSystem() {
			who = "system"
		}
		if round := m.DebateRound(); round > 0 {
			b.WriteString(fmt.Sprintf("Round %d - %s: %s\n", round, who, m.Content))
		} else {
			b.WriteString(fmt.Sprintf("%s: %s\n", who, m.Content))
		}
	}

	prompt := fmt.Sprintf(`Analyze this forum debate about %q and respond with a JSON object:

%s

Format:
{
  "stance": "SUPPORT",
  "reason": "## Key Points\n- (main arguments raised)\n\n## Opinion Evolution\n- (how positions shifted across rounds)\n\n## Agreement Patterns\n- (where participants converged or clashed)\n\n## Outcome\n- (where the debate landed and what remains open)"
}

The markdown content must be escaped as a JSON string.`, forum.Goal, b.String())

	raw, err := e.gen.Complete(ctx, "You are an impartial analyst of multi-agent debates.", prompt)
	if err != nil {
		return nil, fmt.Errorf("generate analysis: %w", err)
	}
	if raw == "" {
		return nil, fmt.Errorf("no analysis generated")
	}

	analysis := raw
	if strings.Contains(raw, `"reason"`) {
		var parsed analysisJSON
		if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err == nil && parsed.Reason != "" {
			analysis = parsed.Reason
		}
	}

	return &DiscussionAnalysis{
		ForumID:     forumID,
		Analysis:    analysis,
		LastUpdated: time.Now(),
	}, nil
}

// Stats summarizes forum activity from stored data alone.
func (e *Extractor) Stats(ctx context.Context, forumID string) (*ForumStats, error) {
	msgs, err := e.store.Messages.ListRecent(ctx, forumID, 500)
	if err != nil {
		return nil, err
	}
	proposals, err := e.store.Proposals.ListByForum(ctx, forumID)
	if err != nil {
		return nil, err
	}

	stats := &ForumStats{
		ForumID:   forumID,
		Messages:  len(msgs),
		Proposals: make(map[string]int),
	}
	counts := make(map[string]int)
	for _, m := range msgs {
		if m.IsSystem() {
			stats.SystemMessages++
			continue
		}
		counts[m.AgentID]++
	}
	stats.Participants = len(counts)

	names := e.agentNames(ctx, msgs)
	type contrib struct {
		id string
		n  int
	}
	ranked := make([]contrib, 0, len(counts))
	for id, n := range counts {
		ranked = append(ranked, contrib{id, n})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].n > ranked[j].n })
	for i, c := range ranked {
		if i == 3 {
			break
		}
		stats.TopContributors = append(stats.TopContributors, names[c.id])
	}

	for _, p := range proposals {
		stats.Proposals[string(p.Status)]++
	}
	return stats, nil
}

func (e *Extractor) agentNames(ctx context.Context, msgs []core.Message) map[string]string {
	names := make(map[string]string)
	for _, m := range msgs {
		if m.AgentID == "" || names[m.AgentID] != "" {
			continue
		}
		agent, err := e.store.Agents.Get(ctx, m.AgentID)
		if err != nil {
			names[m.AgentID] = m.AgentID
			continue
		}
		names[m.AgentID] = agent.Name
	}
	return names
}

func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
