package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string, vec ...float32) Record {
	return Record{ID: id, Vector: vec, Document: "doc " + id, Metadata: Metadata{VideoTitle: "v" + id}}
}

func TestMemoryStoreSearch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	require.NoError(t, s.EnsureCollection(ctx))

	require.NoError(t, s.Insert(ctx, []Record{
		rec("0", 1, 0),
		rec("1", 0, 1),
		rec("2", 1, 1),
	}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	res, err := s.Search(ctx, []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "doc 0", res[0].Document)
	assert.Equal(t, "doc 2", res[1].Document)
	assert.Greater(t, res[0].Score, res[1].Score)

	// k 大于记录数时返回全部
	res, err = s.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, res, 3)
}

func TestMemoryStoreEmpty(t *testing.T) {
	s := NewMemoryStore(0)
	res, err := s.Search(context.Background(), []float32{1, 2, 3}, 7)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestMemoryStoreRejects(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	assert.Error(t, s.Insert(ctx, []Record{rec("0", 1, 2, 3)}), "wrong dimension")

	require.NoError(t, s.Insert(ctx, []Record{rec("0", 1, 0)}))
	assert.Error(t, s.Insert(ctx, []Record{rec("1", 0, 1), rec("0", 1, 1)}), "duplicate id")

	n, _ := s.Count(ctx)
	assert.Equal(t, 1, n, "failed batch must not be partially applied")
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{2, 0}, []float32{5, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Equal(t, float32(0), cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestMemoryStoreDropCollection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	require.NoError(t, s.Insert(ctx, []Record{rec("0", 1, 0), rec("1", 0, 1)}))

	require.NoError(t, s.DropCollection(ctx))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// 删除后 id 可以重新使用
	require.NoError(t, s.Insert(ctx, []Record{rec("0", 1, 1)}))
	n, _ = s.Count(ctx)
	assert.Equal(t, 1, n)
}
