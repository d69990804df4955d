package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/coursemind/pkg/errors"
)

func TestEmbedBatch(t *testing.T) {
	ctx := context.Background()

	e := NewEmbedder(&fakeEmbedding{})
	out, err := e.EmbedBatch(ctx, []string{"closure", "css"})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = e.EmbedBatch(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestEmbedBatchLengthMismatch(t *testing.T) {
	f := &fakeEmbedding{truncate: true}
	_, err := NewEmbedder(f).EmbedBatch(context.Background(), []string{"a", "b", "c"})
	assert.ErrorIs(t, err, errors.ErrEmbeddingFailed)
	assert.Equal(t, 1, f.calls, "no retry")
}

func TestEmbedOne(t *testing.T) {
	e := NewEmbedder(&fakeEmbedding{err: errBackend})
	_, err := e.EmbedOne(context.Background(), "closure")
	assert.ErrorIs(t, err, errors.ErrEmbeddingFailed)
	assert.ErrorIs(t, err, errBackend)

	v, err := NewEmbedder(&fakeEmbedding{}).EmbedOne(context.Background(), "closure")
	require.NoError(t, err)
	assert.Equal(t, float32(1), v[0])
}
