package api

import (
	"github.com/gin-gonic/gin"

	"github.com/conclave-dao/conclave/api/handlers"
)

// SetupRoutes initializes all API endpoints
func SetupRoutes(router *gin.Engine, h *handlers.Handler) {
	api := router.Group("/api")
	{
		api.POST("/agents", h.RegisterAgent)
		api.POST("/agents/generate", h.GenerateAgents)
		api.GET("/agents", h.ListAgents)

		api.POST("/forums", h.CreateForum)
		api.GET("/forums", h.ListForums)
		api.GET("/forums/:forumId", h.GetForum)
		api.POST("/forums/:forumId/messages", h.PostMessage)
		api.GET("/forums/:forumId/messages", h.GetThread)
		api.POST("/forums/:forumId/proposals", h.CreateProposal)
		api.GET("/forums/:forumId/proposals", h.ListProposals)
		api.GET("/forums/:forumId/insights", h.GetForumInsights)
		api.GET("/forums/:forumId/stats", h.GetForumStats)

		api.GET("/proposals/:proposalId", h.GetProposal)
		api.POST("/proposals/:proposalId/votes", h.CastVote)
		api.GET("/proposals/:proposalId/votes", h.ListVotes)
		api.GET("/proposals/:proposalId/executions", h.ListExecutions)

		api.POST("/chain/fund", h.FundWallet)
		api.GET("/chain/balance/:wallet", h.GetBalance)
	}
	router.GET("/ws", h.HandleWebSocket)
}
