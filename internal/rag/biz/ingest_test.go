package biz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/coursemind/internal/pkg/course"
	"github.com/kart-io/coursemind/internal/pkg/segment"
	"github.com/kart-io/coursemind/internal/rag/metrics"
	"github.com/kart-io/coursemind/internal/rag/store"
	"github.com/kart-io/coursemind/pkg/utils/json"
)

// writeTranscript 写入 n 个词，每 10 秒一个。
func writeTranscript(t *testing.T, dir string, v course.Video, words ...string) {
	t.Helper()
	units := make([]course.WordUnit, len(words))
	for i, w := range words {
		units[i] = course.WordUnit{Text: w, Start: float64(i * 10), End: float64(i*10 + 9)}
	}
	data, err := json.Marshal(course.Transcript{WordUnits: units})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(course.TranscriptPath(dir, v), data, 0o644))
}

func testCatalog(n int) course.Catalog {
	c := make(course.Catalog, n)
	for i := range c {
		c[i] = course.Video{
			Number:        i + 1,
			Title:         fmt.Sprintf("Video %d", i+1),
			URL:           fmt.Sprintf("https://www.youtube.com/watch?v=v%d", i+1),
			AudioFilename: fmt.Sprintf("%02d.mp3", i+1),
		}
	}
	return c
}

func newIngestor(t *testing.T, dir string, workers int, tr fakeTranslator, s store.KnowledgeStore, tx Transcriber) (*Ingestor, *metrics.RAGMetrics) {
	t.Helper()
	m := metrics.New()
	return NewIngestor(&IngestConfig{
		TranscriptsDir: dir,
		SourceLang:     "hi-IN",
		TargetLang:     "en",
		Workers:        workers,
		Policy:         segment.TimeBounded{MaxDuration: segment.DefaultMaxDuration},
	}, tr, NewEmbedder(&fakeEmbedding{}), NewWriter(s), tx, m), m
}

func TestIngestorRun(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			dir := t.TempDir()
			catalog := testCatalog(4)
			// 60 秒 => 两段
			writeTranscript(t, dir, catalog[0], "closure", "function", "scope", "var", "let", "const", "this")
			// 缺失转写 => 跳过
			writeTranscript(t, dir, catalog[2], "css", "broken")
			writeTranscript(t, dir, catalog[3], "html")

			s := store.NewMemoryStore(0)
			in, m := newIngestor(t, dir, workers, fakeTranslator{failOn: "broken"}, s, nil)

			report, err := in.Run(context.Background(), catalog)
			require.NoError(t, err)

			require.Len(t, report.Videos, 4)
			for i, v := range report.Videos {
				assert.Equal(t, i+1, v.Number, "catalog order")
			}
			assert.Equal(t, VideoIngested, report.Videos[0].Status)
			assert.Equal(t, 2, report.Videos[0].Records)
			assert.Equal(t, VideoSkipped, report.Videos[1].Status)
			assert.Equal(t, "transcript not found", report.Videos[1].Reason)
			assert.Equal(t, VideoFailed, report.Videos[2].Status)
			assert.Contains(t, report.Videos[2].Reason, "Translation failed")
			assert.Equal(t, VideoIngested, report.Videos[3].Status)

			assert.Equal(t, 2, report.Ingested)
			assert.Equal(t, 1, report.Skipped)
			assert.Equal(t, 1, report.Failed)
			assert.Equal(t, 3, report.Records)

			// id 按目录顺序连续分配
			res, err := s.Search(context.Background(), vectorFor("html"), 1)
			require.NoError(t, err)
			assert.Equal(t, "Video 4", res[0].Metadata.VideoTitle)
			assert.Equal(t, "en: html", res[0].Document)

			i := m.Stats()["ingestion"].(map[string]any)
			assert.Equal(t, uint64(3), i["records_written"])
		})
	}
}

func TestIngestorSecondRunAppends(t *testing.T) {
	dir := t.TempDir()
	catalog := testCatalog(1)
	writeTranscript(t, dir, catalog[0], "closure")

	s := store.NewMemoryStore(0)
	in, _ := newIngestor(t, dir, 1, fakeTranslator{}, s, nil)

	_, err := in.Run(context.Background(), catalog)
	require.NoError(t, err)
	report, err := in.Run(context.Background(), catalog)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Ingested)

	n, _ := s.Count(context.Background())
	assert.Equal(t, 2, n, "re-running duplicates records under fresh ids")
}

func TestIngestorTranslationLengthMismatch(t *testing.T) {
	dir := t.TempDir()
	catalog := testCatalog(1)
	writeTranscript(t, dir, catalog[0], "a", "b", "c", "d", "e", "f")

	s := store.NewMemoryStore(0)
	in, _ := newIngestor(t, dir, 1, fakeTranslator{short: true}, s, nil)
	report, err := in.Run(context.Background(), catalog)
	require.NoError(t, err)
	assert.Equal(t, VideoFailed, report.Videos[0].Status)

	n, _ := s.Count(context.Background())
	assert.Zero(t, n)
}

type fileTranscriber struct {
	words []string
	calls int
}

func (f *fileTranscriber) Transcribe(_ context.Context, _ course.Video, outPath string) error {
	f.calls++
	units := make([]course.WordUnit, len(f.words))
	for i, w := range f.words {
		units[i] = course.WordUnit{Text: w, Start: float64(i), End: float64(i) + 0.5}
	}
	data, err := json.Marshal(course.Transcript{WordUnits: units})
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}

func TestIngestorTranscribesMissing(t *testing.T) {
	dir := t.TempDir()
	catalog := testCatalog(1)
	tx := &fileTranscriber{words: []string{"closure"}}

	in, _ := newIngestor(t, dir, 1, fakeTranslator{}, store.NewMemoryStore(0), tx)
	report, err := in.Run(context.Background(), catalog)
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, VideoIngested, report.Videos[0].Status)
	assert.FileExists(t, filepath.Join(dir, "01.json"))
}

func TestIngestorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in, _ := newIngestor(t, t.TempDir(), 2, fakeTranslator{}, store.NewMemoryStore(0), nil)
	_, err := in.Run(ctx, testCatalog(3))
	assert.ErrorIs(t, err, context.Canceled)
}
