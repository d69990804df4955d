package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/coursemind/pkg/errors"
	"github.com/kart-io/coursemind/pkg/llm"
)

// Embedder 包装 EmbeddingProvider，校验批量输出数量。
type Embedder struct {
	provider llm.EmbeddingProvider
}

// NewEmbedder 创建向量化器。
func NewEmbedder(provider llm.EmbeddingProvider) *Embedder {
	return &Embedder{provider: provider}
}

// Name returns the provider name.
func (e *Embedder) Name() string { return e.provider.Name() }

// EmbedBatch 批量向量化，输出与输入一一对应。
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := e.provider.Embed(ctx, texts)
	if err != nil {
		return nil, errors.ErrEmbeddingFailed.WithCause(err)
	}
	if len(vectors) != len(texts) {
		return nil, errors.ErrEmbeddingFailed.WithCause(
			fmt.Errorf("%s returned %d vectors for %d texts", e.provider.Name(), len(vectors), len(texts)))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, errors.ErrEmbeddingFailed.WithCause(fmt.Errorf("empty vector at index %d", i))
		}
	}
	return vectors, nil
}

// EmbedOne 查询时单条向量化。
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	v, err := e.provider.EmbedSingle(ctx, text)
	if err != nil {
		return nil, errors.ErrEmbeddingFailed.WithCause(err)
	}
	if len(v) == 0 {
		return nil, errors.ErrEmbeddingFailed.WithCause(fmt.Errorf("%s returned an empty vector", e.provider.Name()))
	}
	return v, nil
}
