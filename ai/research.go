package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	serp "github.com/ericgreene/go-serp"
	"go.uber.org/zap"
)

// SearchResult represents a web search result.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// ResearchDecision represents the LLM's decision about web research.
type ResearchDecision struct {
	NeedsResearch bool     `json:"needs_research"`
	SearchQueries []string `json:"search_queries"`
	Reasoning     string   `json:"reasoning"`
}

// SearchConfig holds configuration for web search.
type SearchConfig struct {
	MaxResults int
	SafeSearch bool
}

// DefaultSearchConfig returns standard search configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{MaxResults: 5, SafeSearch: true}
}

// Researcher builds external research snapshots for debate context. A
// missing SERP key disables it; Snapshot then always returns "".
type Researcher struct {
	apiKey string
	gen    Generator
	cfg    SearchConfig
	logger *zap.Logger
}

func NewResearcher(apiKey string, gen Generator, logger *zap.Logger) *Researcher {
	return &Researcher{
		apiKey: apiKey,
		gen:    gen,
		cfg:    DefaultSearchConfig(),
		logger: logger.Named("research"),
	}
}

// Snapshot decides whether the topic needs web research and, if so,
// returns a digest of search results. All failures degrade to "".
func (r *Researcher) Snapshot(ctx context.Context, topic string, traits []string) string {
	if r.apiKey == "" {
		return ""
	}
	decision, err := r.decide(ctx, topic, traits)
	if err != nil || !decision.NeedsResearch {
		return ""
	}

	var digest strings.Builder
	for _, query := range decision.SearchQueries {
		results, err := r.search(query)
		if err != nil {
			r.logger.Debug("web search failed", zap.String("query", query), zap.Error(err))
			continue
		}
		for _, result := range results {
			fmt.Fprintf(&digest, "- %s\n  %s\n", result.Title, result.Snippet)
		}
	}
	return digest.String()
}

func (r *Researcher) decide(ctx context.Context, topic string, traits []string) (*ResearchDecision, error) {
	prompt := fmt.Sprintf(`You are an AI agent with these traits: %v

You need to analyze this topic: "%s"

Decide if you need to perform web research to contribute meaningfully to the discussion.
Consider:
1. Is this within your area of expertise?
2. Would recent information help your analysis?

Return a JSON object with:
{
	"needs_research": boolean,
	"search_queries": ["query1", "query2"],
	"reasoning": "Explain why you do or don't need research"
}
Respond with valid JSON only.`, traits, topic)

	response, err := r.gen.Complete(ctx, "", prompt)
	if err != nil {
		return nil, err
	}

	var decision ResearchDecision
	if err := json.Unmarshal([]byte(extractJSON(response)), &decision); err != nil {
		return nil, err
	}
	return &decision, nil
}

func (r *Researcher) search(query string) ([]SearchResult, error) {
	parameter := map[string]string{
		"q":   query,
		"key": r.apiKey,
		"num": strconv.Itoa(r.cfg.MaxResults),
	}
	if r.cfg.SafeSearch {
		parameter["safe"] = "active"
	}

	queryResponse := serp.NewGoogleSearch(parameter)
	results, err := queryResponse.GetJSON()
	if err != nil {
		return nil, err
	}

	var searchResults []SearchResult
	for _, result := range results.OrganicResults {
		searchResults = append(searchResults, SearchResult{
			Title:   result.Title,
			Snippet: result.Snippet,
			Link:    result.Link,
		})
	}
	return searchResults, nil
}

// extractJSON trims any prose around the first JSON object in a reply.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
