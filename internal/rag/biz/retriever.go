package biz

import (
	"context"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/coursemind/internal/rag/store"
	"github.com/kart-io/coursemind/pkg/errors"
	"github.com/kart-io/coursemind/pkg/infra/tracing"
)

// Retriever 负责问题向量化和知识库检索。
type Retriever struct {
	store    store.KnowledgeStore
	embedder *Embedder
}

// NewRetriever 创建检索器实例。
func NewRetriever(s store.KnowledgeStore, embedder *Embedder) *Retriever {
	return &Retriever{store: s, embedder: embedder}
}

// Retrieve 返回与问题最相似的至多 k 条记录。记录不足 k 条时返回全部。
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]store.SearchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "retriever.Retrieve",
		attribute.Int(tracing.AttrQuery, len(query)),
		attribute.Int(tracing.AttrTopK, k),
	)
	defer span.End()

	vec, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	results, err := r.store.Search(ctx, vec, k)
	if err != nil {
		tracing.RecordError(ctx, err)
		logger.Errorw("knowledge store search failed", "error", err, "top_k", k)
		return nil, errors.ErrRetrievalFailed.WithCause(err)
	}

	span.SetAttributes(attribute.Int(tracing.AttrResults, len(results)))
	logger.Debugw("retrieved segments", "top_k", k, "results", len(results))
	return results, nil
}
