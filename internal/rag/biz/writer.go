package biz

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/coursemind/internal/pkg/course"
	"github.com/kart-io/coursemind/internal/pkg/segment"
	"github.com/kart-io/coursemind/internal/rag/store"
	"github.com/kart-io/coursemind/pkg/errors"
	"github.com/kart-io/coursemind/pkg/infra/tracing"
)

// Writer 把一个视频的分段写入知识库。
// 同一进程内只有一个写入方，id 偏移的读取和写入在锁内完成。
// 重复导入同一视频会产生重复记录。
type Writer struct {
	mu    sync.Mutex
	store store.KnowledgeStore
}

// NewWriter 创建写入器。
func NewWriter(s store.KnowledgeStore) *Writer {
	return &Writer{store: s}
}

// Append 写入一个视频的全部分段，返回写入条数。
// chunks、translated、vectors 长度必须一致，否则不写入任何记录。
func (w *Writer) Append(ctx context.Context, chunks []segment.Chunk, translated []string, vectors [][]float32, video course.Video) (int, error) {
	if len(chunks) != len(translated) || len(chunks) != len(vectors) {
		return 0, errors.ErrPartialIngest.WithCause(fmt.Errorf(
			"video %d: %d chunks, %d translations, %d vectors", video.Number, len(chunks), len(translated), len(vectors)))
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	ctx, span := tracing.StartSpan(ctx, "writer.Append",
		attribute.Int(tracing.AttrVideoNumber, video.Number),
		attribute.Int(tracing.AttrChunks, len(chunks)),
	)
	defer span.End()

	w.mu.Lock()
	defer w.mu.Unlock()

	offset, err := w.store.Count(ctx)
	if err != nil {
		return 0, errors.ErrPartialIngest.WithCause(fmt.Errorf("count records: %w", err))
	}

	records := make([]store.Record, len(chunks))
	for i, c := range chunks {
		records[i] = store.Record{
			ID:       strconv.Itoa(offset + i),
			Vector:   vectors[i],
			Document: translated[i],
			Metadata: store.Metadata{
				VideoTitle:  video.Title,
				VideoNumber: video.Number,
				StartTime:   c.Start,
				EndTime:     c.End,
				SourceURL:   TimestampURL(video.URL, c.Start),
				SourceText:  c.Text,
			},
		}
	}

	if err := w.store.Insert(ctx, records); err != nil {
		tracing.RecordError(ctx, err)
		return 0, errors.ErrPartialIngest.WithCause(fmt.Errorf("insert video %d: %w", video.Number, err))
	}

	logger.Infow("video committed", "video_number", video.Number, "records", len(records), "first_id", offset)
	return len(records), nil
}

// TimestampURL 为视频 URL 设置 t=<秒>s 参数，已有的 t 参数会被替换。
// 无法解析的 URL 原样返回。
func TimestampURL(raw string, start float64) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("t", strconv.Itoa(int(start))+"s")
	u.RawQuery = q.Encode()
	return u.String()
}
