package insights

import (
	"time"
)

// DiscussionAnalysis is the LLM's markdown read of a forum debate.
type DiscussionAnalysis struct {
	ForumID     string    `json:"forumId"`
	Analysis    string    `json:"analysis"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// ForumStats summarizes forum activity without touching the LLM.
type ForumStats struct {
	ForumID         string         `json:"forumId"`
	Messages        int            `json:"messages"`
	SystemMessages  int            `json:"systemMessages"`
	Participants    int            `json:"participants"`
	TopContributors []string       `json:"topContributors"`
	Proposals       map[string]int `json:"proposals"`
}

type analysisJSON struct {
	Stance string `json:"stance"`
	Reason string `json:"reason"`
}
