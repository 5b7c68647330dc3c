package api

import (
	"github.com/gin-gonic/gin"

	"github.com/conclave-dao/conclave/api/handlers"
)

// NewServer builds the REST API around the injected handler set.
func NewServer(h *handlers.Handler) *gin.Engine {
	r := gin.Default()
	SetupRoutes(r, h)
	return r
}
