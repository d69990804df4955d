package biz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/coursemind/internal/pkg/course"
	"github.com/kart-io/coursemind/internal/pkg/segment"
	"github.com/kart-io/coursemind/internal/rag/store"
	"github.com/kart-io/coursemind/pkg/component/milvus"
	"github.com/kart-io/coursemind/pkg/errors"
)

func chunks(n int) ([]segment.Chunk, []string, [][]float32) {
	cs := make([]segment.Chunk, n)
	tr := make([]string, n)
	vs := make([][]float32, n)
	for i := range cs {
		cs[i] = segment.Chunk{Start: float64(i * 45), End: float64(i*45 + 44), Text: "खंड"}
		tr[i] = "segment"
		vs[i] = []float32{1, 0}
	}
	return cs, tr, vs
}

func TestWriterIDOffsets(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(2)
	w := NewWriter(s)

	v1 := course.Video{Number: 1, Title: "Intro", URL: "https://www.youtube.com/watch?v=abc"}
	cs, tr, vs := chunks(3)
	n, err := w.Append(ctx, cs, tr, vs, v1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// 第二次运行从已有记录数开始编号
	v2 := course.Video{Number: 2, Title: "Basics", URL: "https://www.youtube.com/watch?v=def"}
	cs, tr, vs = chunks(2)
	n, err = w.Append(ctx, cs, tr, vs, v2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, _ := s.Count(ctx)
	assert.Equal(t, 5, count)

	// 重复 id 会被内存存储拒绝，所以全部写入成功即说明 id 不冲突
	res, err := s.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, res, 5)
	assert.Equal(t, "https://www.youtube.com/watch?t=0s&v=abc", res[0].Metadata.SourceURL)
	assert.Equal(t, "खंड", res[0].Metadata.SourceText)
	assert.Equal(t, "segment", res[0].Document)
	assert.Equal(t, "Basics", res[4].Metadata.VideoTitle)
	assert.Equal(t, 45.0, res[4].Metadata.StartTime)
}

func TestWriterArityMismatch(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore(2)
	cs, tr, vs := chunks(3)

	_, err := NewWriter(s).Append(ctx, cs, tr[:2], vs, course.Video{Number: 1})
	assert.ErrorIs(t, err, errors.ErrPartialIngest)

	count, _ := s.Count(ctx)
	assert.Zero(t, count)
}

func TestWriterStoreFailure(t *testing.T) {
	cs, tr, vs := chunks(1)
	_, err := NewWriter(failingStore{err: errBackend}).Append(context.Background(), cs, tr, vs, course.Video{Number: 9})
	assert.ErrorIs(t, err, errors.ErrPartialIngest)
	assert.ErrorIs(t, err, errBackend)
}

// 统计信息缺少 row_count 时不能从 0 开始分配 id。
func TestWriterMissingRowCount(t *testing.T) {
	cs, tr, vs := chunks(2)
	missing := fmt.Errorf("collection course: %w", milvus.ErrRowCountMissing)
	n, err := NewWriter(failingStore{err: missing}).Append(context.Background(), cs, tr, vs, course.Video{Number: 3})
	assert.Zero(t, n)
	assert.ErrorIs(t, err, errors.ErrPartialIngest)
	assert.ErrorIs(t, err, milvus.ErrRowCountMissing)
}

func TestTimestampURL(t *testing.T) {
	tests := []struct {
		raw   string
		start float64
		want  string
	}{
		{"https://www.youtube.com/watch?v=abc", 125.9, "https://www.youtube.com/watch?t=125s&v=abc"},
		{"https://youtu.be/abc?t=10s", 330, "https://youtu.be/abc?t=330s"},
		{"https://x/", 0, "https://x/?t=0s"},
		{"::bad", 5, "::bad"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimestampURL(tt.raw, tt.start), tt.raw)
	}
}
