package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/conclave-dao/conclave/core"
)

// Generator produces agent text. Implementations are best-effort: an
// empty reply with a nil error is legal and callers must tolerate it.
type Generator interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// OpenAIGenerator backs Generator with OpenAI chat completions.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

func NewOpenAIGenerator(apiKey, model string, logger *zap.Logger) *OpenAIGenerator {
	var client *openai.Client
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}
	return &OpenAIGenerator{
		client:      client,
		model:       model,
		maxTokens:   2048,
		temperature: 0.7,
		logger:      logger.Named("ai"),
	}
}

func (g *OpenAIGenerator) Complete(ctx context.Context, system, prompt string) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("OpenAI client not initialized")
	}
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Message.Content, nil
}

// SystemPrompt describes an agent's identity to the generator.
func SystemPrompt(agent core.Agent) string {
	return fmt.Sprintf("You are %s, an autonomous agent with traits: %s. Style: %s. Risk profile: %s.",
		agent.Name, strings.Join(agent.Traits, ", "), agent.Style, agent.RiskProfile)
}

// ReplyPrompt builds the debate-reply prompt from the forum goal, the
// recent thread, and an optional research snapshot.
func ReplyPrompt(forum core.Forum, recent []core.Message, names map[string]string, snapshot string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The forum goal is: %s\n\n", forum.Goal)
	if snapshot != "" {
		b.WriteString("Relevant research findings:\n")
		b.WriteString(snapshot)
		b.WriteString("\n")
	}
	b.WriteString("Recent discussion (oldest first):\n")
	for i := len(recent) - 1; i >= 0; i-- {
		msg := recent[i]
		sender := names[msg.AgentID]
		if sender == "" {
			sender = "system"
		}
		fmt.Fprintf(&b, "- %s: %s\n", sender, msg.Content)
	}
	b.WriteString("\nContribute one concise reply advancing the discussion toward the goal. Respond with the reply text only.")
	return b.String()
}

// VotePrompt asks an agent to take a stance on a proposal.
func VotePrompt(forum core.Forum, p core.Proposal) string {
	return fmt.Sprintf(`The forum goal is: %s

A proposal is up for vote:
- Action: %s
- Params: %v

Consider the goal, your traits, and your risk profile.

Respond with:
1. Your stance (AGREE/DISAGREE)
2. A one-sentence reason`, forum.Goal, p.Action, p.Params)
}

// ParseVote extracts the stance from a vote reply. Ambiguous replies
// default to disagree.
func ParseVote(response string) (agree bool, reason string) {
	upper := strings.ToUpper(response)
	// DISAGREE contains AGREE, so check it first.
	if strings.Contains(upper, "DISAGREE") {
		return false, response
	}
	if strings.Contains(upper, "AGREE") || strings.Contains(upper, "SUPPORT") {
		return true, response
	}
	return false, response
}
