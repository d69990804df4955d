package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/coursemind/internal/rag/store"
	"github.com/kart-io/coursemind/pkg/errors"
)

func TestRetrieve(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(0)
	require.NoError(t, s.Insert(ctx, []store.Record{
		{ID: "0", Vector: vectorFor("css grid"), Document: "css grid"},
		{ID: "1", Vector: vectorFor("a closure"), Document: "a closure"},
	}))

	r := NewRetriever(s, NewEmbedder(&fakeEmbedding{}))
	res, err := r.Retrieve(ctx, "what is a closure", 7)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "a closure", res[0].Document)
}

func TestRetrieveFailures(t *testing.T) {
	ctx := context.Background()

	_, err := NewRetriever(store.NewMemoryStore(0), NewEmbedder(&fakeEmbedding{err: errBackend})).Retrieve(ctx, "q", 7)
	assert.ErrorIs(t, err, errors.ErrEmbeddingFailed)

	_, err = NewRetriever(failingStore{err: errBackend}, NewEmbedder(&fakeEmbedding{})).Retrieve(ctx, "q", 7)
	assert.ErrorIs(t, err, errors.ErrRetrievalFailed)
	assert.ErrorIs(t, err, errBackend)
}
