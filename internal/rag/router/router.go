// Package router registers the HTTP routes of the question-answering service.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/coursemind/internal/pkg/httputils"
	"github.com/kart-io/coursemind/internal/rag/handler"
	"github.com/kart-io/coursemind/pkg/errors"
)

// HealthPaths are excluded from request logging and tracing.
var HealthPaths = []string{"/healthz", "/readyz", "/metrics"}

// Register registers all routes on engine.
func Register(engine *gin.Engine, h *handler.RAGHandler) {
	logger.Info("Registering RAG routes...")

	engine.GET("/healthz", h.Healthz)
	engine.GET("/readyz", h.Readyz)
	engine.GET("/metrics", h.Metrics)
	engine.GET("/version", h.Version)

	v1 := engine.Group("/v1")
	{
		rag := v1.Group("/rag")
		{
			rag.POST("/ask", h.Ask)
			rag.GET("/stats", h.Stats)
		}

		conversations := v1.Group("/conversations")
		{
			conversations.GET("", h.ListConversations)
			conversations.GET("/:id/messages", h.ListMessages)
			conversations.DELETE("", h.DeleteConversations)
			conversations.DELETE("/:id", h.DeleteConversation)
		}
	}

	engine.NoRoute(func(c *gin.Context) {
		httputils.WriteResponse(c, errors.ErrRouteNotFound, nil)
	})

	logger.Info("HTTP routes registered")
}
