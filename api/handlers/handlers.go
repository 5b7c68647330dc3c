package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conclave-dao/conclave/ai"
	"github.com/conclave-dao/conclave/chain"
	"github.com/conclave-dao/conclave/communication"
	"github.com/conclave-dao/conclave/core"
	"github.com/conclave-dao/conclave/insights"
	"github.com/conclave-dao/conclave/orchestrator"
	"github.com/conclave-dao/conclave/registry"
	"github.com/conclave-dao/conclave/storage"
)

// Handler holds every collaborator the HTTP surface needs. All state is
// injected; handlers never reach for globals.
type Handler struct {
	Store        *storage.Store
	Forums       *communication.Service
	Registry     *registry.Registry
	Orchestrator *orchestrator.Orchestrator
	Custody      *chain.KeyCustody
	Ledger       *chain.Ledger
	Generator    ai.Generator
	Insights     *insights.Extractor
	Hub          *communication.Hub
	Logger       *zap.Logger
}

// RegisterAgent creates a new agent, issues it a wallet, and activates
// its runtime in this process.
func (h *Handler) RegisterAgent(c *gin.Context) {
	var agent core.Agent
	if err := c.ShouldBindJSON(&agent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent data"})
		return
	}
	if agent.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agent name is required"})
		return
	}

	agent.ID = uuid.New().String()
	cred, err := h.Custody.GenerateFor(agent.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	agent.WalletAddress = cred.WalletAddress

	if err := h.Store.Agents.Create(c.Request.Context(), &agent); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Registry.Register(&registry.Runtime{Agent: agent, Generator: h.Generator})
	h.Hub.Broadcast(communication.EventAgentRegistered, agent)

	c.JSON(http.StatusOK, gin.H{
		"agentId": agent.ID,
		"wallet":  agent.WalletAddress,
	})
}

// GenerateAgents builds a roster of agent personalities for a topic and
// registers all of them.
func (h *Handler) GenerateAgents(c *gin.Context) {
	var req struct {
		Topic string `json:"topic"`
		Count int    `json:"count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic is required"})
		return
	}
	if req.Count <= 0 {
		req.Count = 3
	}

	roster, err := ai.GenerateRoster(c.Request.Context(), h.Generator, req.Topic, req.Count)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	created := make([]core.Agent, 0, len(roster))
	for _, agent := range roster {
		agent.ID = uuid.New().String()
		cred, err := h.Custody.GenerateFor(agent.ID)
		if err != nil {
			h.Logger.Warn("keypair generation failed", zap.String("agent", agent.Name), zap.Error(err))
			continue
		}
		agent.WalletAddress = cred.WalletAddress
		if err := h.Store.Agents.Create(c.Request.Context(), &agent); err != nil {
			h.Logger.Warn("agent create failed", zap.String("agent", agent.Name), zap.Error(err))
			continue
		}
		h.Registry.Register(&registry.Runtime{Agent: agent, Generator: h.Generator})
		h.Hub.Broadcast(communication.EventAgentRegistered, agent)
		created = append(created, agent)
	}

	c.JSON(http.StatusOK, gin.H{"agents": created})
}

func (h *Handler) ListAgents(c *gin.Context) {
	agents, err := h.Store.Agents.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

// CreateForum opens a new forum for debate.
func (h *Handler) CreateForum(c *gin.Context) {
	var forum core.Forum
	if err := c.ShouldBindJSON(&forum); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid forum data"})
		return
	}
	if err := h.Forums.CreateForum(c.Request.Context(), &forum); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.Hub.Broadcast(communication.EventForumCreated, forum)
	c.JSON(http.StatusOK, forum)
}

func (h *Handler) ListForums(c *gin.Context) {
	forums, err := h.Store.Forums.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"forums": forums})
}

func (h *Handler) GetForum(c *gin.Context) {
	forum, err := h.Store.Forums.Get(c.Request.Context(), c.Param("forumId"))
	if err != nil {
		h.notFoundOr500(c, err, "forum not found")
		return
	}
	c.JSON(http.StatusOK, forum)
}

// PostMessage appends an agent message to the forum thread. The change
// feed picks it up and triggers debate.
func (h *Handler) PostMessage(c *gin.Context) {
	var msg core.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message data"})
		return
	}
	msg.ForumID = c.Param("forumId")
	if err := h.Forums.PostMessage(c.Request.Context(), &msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.Hub.Broadcast(communication.EventNewMessage, msg)
	c.JSON(http.StatusOK, msg)
}

func (h *Handler) GetThread(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	msgs, err := h.Forums.Thread(c.Request.Context(), c.Param("forumId"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// CreateProposal opens a proposal for voting in the forum.
func (h *Handler) CreateProposal(c *gin.Context) {
	var req struct {
		CreatorAgentID string         `json:"creatorAgentId"`
		Action         string         `json:"action"`
		Params         map[string]any `json:"params"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Action == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action is required"})
		return
	}

	forum, err := h.Store.Forums.Get(c.Request.Context(), c.Param("forumId"))
	if err != nil {
		h.notFoundOr500(c, err, "forum not found")
		return
	}
	if forum.Status != core.ForumActive {
		c.JSON(http.StatusConflict, gin.H{"error": "forum is not accepting proposals"})
		return
	}

	p := core.Proposal{
		ForumID:        forum.ID,
		CreatorAgentID: req.CreatorAgentID,
		Action:         req.Action,
		Params:         req.Params,
		ExpiresAt:      time.Now().Add(time.Duration(forum.TimeoutMinutes) * time.Minute),
	}
	if err := h.Store.Proposals.Create(c.Request.Context(), &p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.Hub.Broadcast(communication.EventNewProposal, p)
	c.JSON(http.StatusOK, p)
}

func (h *Handler) ListProposals(c *gin.Context) {
	proposals, err := h.Store.Proposals.ListByForum(c.Request.Context(), c.Param("forumId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

func (h *Handler) GetProposal(c *gin.Context) {
	p, err := h.Store.Proposals.Get(c.Request.Context(), c.Param("proposalId"))
	if err != nil {
		h.notFoundOr500(c, err, "proposal not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

// CastVote records an agent's vote and re-evaluates consensus.
func (h *Handler) CastVote(c *gin.Context) {
	var req struct {
		AgentID string `json:"agentId"`
		Agree   bool   `json:"agree"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.AgentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agentId is required"})
		return
	}

	vote := core.Vote{
		ProposalID: c.Param("proposalId"),
		AgentID:    req.AgentID,
		Agree:      req.Agree,
		Reason:     req.Reason,
	}
	p, err := h.Store.Votes.Cast(c.Request.Context(), &vote)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateVote) {
			c.JSON(http.StatusConflict, gin.H{"error": "agent already voted on this proposal"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.Hub.Broadcast(communication.EventAgentVote, vote)
	h.Orchestrator.HandleVoteCast(c.Request.Context(), vote.ProposalID)

	c.JSON(http.StatusOK, gin.H{
		"proposalId":    p.ID,
		"agreeCount":    p.AgreeCount,
		"disagreeCount": p.DisagreeCount,
	})
}

func (h *Handler) ListVotes(c *gin.Context) {
	votes, err := h.Store.Votes.ListByProposal(c.Request.Context(), c.Param("proposalId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"votes": votes})
}

func (h *Handler) ListExecutions(c *gin.Context) {
	execs, err := h.Store.Executions.ListByProposal(c.Request.Context(), c.Param("proposalId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"executions": execs})
}

// GetForumInsights returns an LLM analysis of the forum's debate.
func (h *Handler) GetForumInsights(c *gin.Context) {
	analysis, err := h.Insights.AnalyzeForum(c.Request.Context(), c.Param("forumId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *Handler) GetForumStats(c *gin.Context) {
	stats, err := h.Insights.Stats(c.Request.Context(), c.Param("forumId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// FundWallet deposits local-ledger funds into a wallet. Used to unblock
// executions waiting on funding.
func (h *Handler) FundWallet(c *gin.Context) {
	var req struct {
		Wallet string  `json:"wallet"`
		Amount float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Wallet == "" || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet and a positive amount are required"})
		return
	}
	balance := h.Ledger.Deposit(req.Wallet, req.Amount)
	c.JSON(http.StatusOK, gin.H{"wallet": req.Wallet, "balance": balance})
}

func (h *Handler) GetBalance(c *gin.Context) {
	wallet := c.Param("wallet")
	balance, err := h.Ledger.Balance(c.Request.Context(), wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": wallet, "balance": balance})
}

func (h *Handler) notFoundOr500(c *gin.Context, err error, msg string) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
