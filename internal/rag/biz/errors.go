package biz

import (
	"github.com/kart-io/coursemind/pkg/errors"
)

// errorKind 返回错误类别，用于指标标签。
func errorKind(err error) string {
	switch errors.GetCode(err) {
	case errors.ErrInvalidQuery.Code:
		return "invalid_query"
	case errors.ErrNotReady.Code:
		return "not_ready"
	case errors.ErrEmbeddingFailed.Code:
		return "embedding_failed"
	case errors.ErrRetrievalFailed.Code:
		return "retrieval_failed"
	case errors.ErrGenerationFailed.Code:
		return "generation_failed"
	case errors.ErrConversationNotFound.Code:
		return "conversation_not_found"
	default:
		return "internal"
	}
}
