package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/coursemind/internal/pkg/httputils"
	"github.com/kart-io/coursemind/internal/rag/biz"
	"github.com/kart-io/coursemind/internal/rag/store"
	"github.com/kart-io/coursemind/pkg/errors"
	"github.com/kart-io/coursemind/pkg/utils/json"
)

// ConversationView 会话列表项。
type ConversationView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageView 会话消息，assistant 消息带来源。
type MessageView struct {
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Sources   []biz.Source `json:"sources,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// ListConversations returns the most recently updated conversations.
//
//	GET /v1/conversations?limit=20
func (h *RAGHandler) ListConversations(c *gin.Context) {
	limit, err := h.listLimit(c)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	if h.deps.Conversations == nil {
		httputils.WriteResponse(c, nil, []ConversationView{})
		return
	}

	convs, err := h.deps.Conversations.List(c.Request.Context(), limit)
	if err != nil {
		httputils.WriteResponse(c, errors.ErrDatabase.WithCause(err), nil)
		return
	}

	views := make([]ConversationView, 0, len(convs))
	for _, conv := range convs {
		views = append(views, ConversationView{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
		})
	}
	httputils.WriteResponse(c, nil, views)
}

// ListMessages returns the messages of one conversation in order.
//
//	GET /v1/conversations/:id/messages
func (h *RAGHandler) ListMessages(c *gin.Context) {
	if h.deps.Conversations == nil {
		httputils.WriteResponse(c, errors.ErrConversationNotFound, nil)
		return
	}

	convID := c.Param("id")
	msgs, err := h.deps.Conversations.Messages(c.Request.Context(), convID)
	if err != nil {
		if !errors.IsCode(err, errors.ErrConversationNotFound.Code) {
			err = errors.ErrDatabase.WithCause(err)
		}
		httputils.WriteResponse(c, err, nil)
		return
	}

	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, toMessageView(m))
	}
	httputils.WriteResponse(c, nil, views)
}

// DeleteResult 删除接口的返回。
type DeleteResult struct {
	ID      string `json:"id,omitempty"`
	Deleted int64  `json:"deleted"`
}

// DeleteConversation deletes one conversation with its messages.
//
//	DELETE /v1/conversations/:id
func (h *RAGHandler) DeleteConversation(c *gin.Context) {
	if h.deps.Conversations == nil {
		httputils.WriteResponse(c, errors.ErrConversationNotFound, nil)
		return
	}

	convID := c.Param("id")
	if err := h.deps.Conversations.Delete(c.Request.Context(), convID); err != nil {
		if !errors.IsCode(err, errors.ErrConversationNotFound.Code) {
			err = errors.ErrDatabase.WithCause(err)
		}
		httputils.WriteResponse(c, err, nil)
		return
	}
	logger.Infow("conversation deleted", "conversation_id", convID)
	httputils.WriteResponse(c, nil, DeleteResult{ID: convID, Deleted: 1})
}

// DeleteConversations deletes every conversation.
//
//	DELETE /v1/conversations
func (h *RAGHandler) DeleteConversations(c *gin.Context) {
	if h.deps.Conversations == nil {
		httputils.WriteResponse(c, nil, DeleteResult{})
		return
	}

	n, err := h.deps.Conversations.DeleteAll(c.Request.Context())
	if err != nil {
		httputils.WriteResponse(c, errors.ErrDatabase.WithCause(err), nil)
		return
	}
	logger.Infow("all conversations deleted", "count", n)
	httputils.WriteResponse(c, nil, DeleteResult{Deleted: n})
}

func toMessageView(m *store.Message) MessageView {
	v := MessageView{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt}
	if m.Sources != "" {
		if err := json.Unmarshal([]byte(m.Sources), &v.Sources); err != nil {
			logger.Warnw("failed to decode stored sources", "message_id", m.ID, "error", err)
		}
	}
	return v
}
