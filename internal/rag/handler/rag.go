// Package handler provides HTTP handlers for the course question-answering
// service.
package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/coursemind/internal/pkg/httputils"
	"github.com/kart-io/coursemind/internal/rag/biz"
	"github.com/kart-io/coursemind/internal/rag/metrics"
	"github.com/kart-io/coursemind/pkg/component/storage"
	"github.com/kart-io/coursemind/pkg/errors"
	"github.com/kart-io/coursemind/pkg/validator"
)

// HealthChecker reports the health of backing clients.
type HealthChecker interface {
	HealthCheckAll(ctx context.Context) []storage.HealthStatus
}

// RecordCounter returns the number of records in the knowledge store.
type RecordCounter interface {
	Count(ctx context.Context) (int, error)
}

// Deps 是 RAGHandler 的依赖，Conversations 和 Health 可以为空。
type Deps struct {
	Service       biz.Service
	Conversations biz.ConversationRepo
	Metrics       *metrics.RAGMetrics
	Health        HealthChecker
	Records       RecordCounter
	// ListLimit 会话列表默认条数。
	ListLimit int
}

// RAGHandler handles HTTP requests of the question-answering service.
type RAGHandler struct {
	deps Deps
}

// NewRAGHandler creates a new RAGHandler.
func NewRAGHandler(deps Deps) *RAGHandler {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.ListLimit <= 0 {
		deps.ListLimit = 50
	}
	return &RAGHandler{deps: deps}
}

// Ask answers one question.
//
//	POST /v1/rag/ask {"query": "...", "conversation_id": "..."}
func (h *RAGHandler) Ask(c *gin.Context) {
	var req biz.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputils.WriteResponse(c, errors.ErrInvalidQuery.WithCause(err), nil)
		return
	}
	if verrs := validator.Struct(&req, httputils.Lang(c)); verrs.HasErrors() {
		httputils.WriteResponse(c, errors.ErrInvalidQuery.WithCause(verrs), nil)
		return
	}

	resp, err := h.deps.Service.Ask(c.Request.Context(), &req)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, resp)
}

// Stats returns knowledge base statistics and business metrics.
func (h *RAGHandler) Stats(c *gin.Context) {
	stats, err := h.deps.Service.Stats(c.Request.Context())
	httputils.WriteResponse(c, err, stats)
}

// listLimit 解析 ?limit=，缺省时使用配置值。
func (h *RAGHandler) listLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return h.deps.ListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.ErrInvalidParam.WithMessagef("limit must be a positive integer, got %q", raw)
	}
	return n, nil
}
