package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/conclave-dao/conclave/core"
)

type rosterEntry struct {
	Name        string   `json:"name"`
	Traits      []string `json:"traits"`
	Style       string   `json:"style"`
	RiskProfile string   `json:"riskProfile"`
}

// GenerateRoster asks the generator for n agent personalities suited to
// discussing the given topic.
func GenerateRoster(ctx context.Context, gen Generator, topic string, n int) ([]core.Agent, error) {
	prompt := fmt.Sprintf(`Create %d unique AI agents to debate proposals in a forum focused on: %s
Each agent should have:
1. A unique name (preferably of a famous thinker in this field)
2. 3-5 personality traits that influence their decision making
3. The traits should create diverse perspectives and interesting discussions

Return a JSON array where each agent has:
- "name": their full name
- "traits": array of personality traits
- "style": communication style description
- "riskProfile": one of "conservative", "balanced", "aggressive"

Format the response as valid JSON only, no additional text.`, n, topic)

	response, err := gen.Complete(ctx, "", prompt)
	if err != nil {
		return nil, err
	}

	var entries []rosterEntry
	if err := json.Unmarshal([]byte(extractJSONArray(response)), &entries); err != nil {
		return nil, fmt.Errorf("invalid roster JSON: %w", err)
	}

	agents := make([]core.Agent, 0, len(entries))
	for _, e := range entries {
		agents = append(agents, core.Agent{
			Name:        e.Name,
			Traits:      e.Traits,
			Style:       e.Style,
			RiskProfile: e.RiskProfile,
		})
	}
	return agents, nil
}

func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
