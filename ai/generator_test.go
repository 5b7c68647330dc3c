package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conclave-dao/conclave/core"
)

func TestParseVote(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     bool
	}{
		{"plain agree", "AGREE: this is a solid plan", true},
		{"lowercase agree", "I agree with the proposal", true},
		{"support counts as agree", "I fully SUPPORT this", true},
		{"plain disagree", "DISAGREE: too risky", false},
		{"disagree wins over embedded agree", "I disagree even though others agree", false},
		{"ambiguous defaults to disagree", "Interesting idea, needs more thought", false},
		{"empty defaults to disagree", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agree, reason := ParseVote(tt.response)
			assert.Equal(t, tt.want, agree)
			assert.Equal(t, tt.response, reason)
		})
	}
}

func TestSystemPromptMentionsIdentity(t *testing.T) {
	agent := core.Agent{
		Name:        "The Skeptic",
		Traits:      []string{"questioning", "analytical"},
		Style:       "skeptical",
		RiskProfile: "conservative",
	}
	prompt := SystemPrompt(agent)
	assert.Contains(t, prompt, "The Skeptic")
	assert.Contains(t, prompt, "questioning")
	assert.Contains(t, prompt, "skeptical")
}

func TestReplyPromptIncludesThreadOldestFirst(t *testing.T) {
	forum := core.Forum{Goal: "choose a strategy"}
	recent := []core.Message{
		{AgentID: "a2", Content: "second message"},
		{AgentID: "a1", Content: "first message"},
	}
	names := map[string]string{"a1": "Alpha", "a2": "Beta"}

	prompt := ReplyPrompt(forum, recent, names, "")
	assert.Contains(t, prompt, "choose a strategy")
	first := strings.Index(prompt, "first message")
	second := strings.Index(prompt, "second message")
	assert.True(t, first >= 0 && second >= 0)
	assert.Less(t, first, second)
}
