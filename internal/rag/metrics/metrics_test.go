package metrics

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordQuery(t *testing.T) {
	m := New()

	m.RecordQuery(true, "")
	m.RecordQuery(false, "")
	m.RecordQuery(false, "not_ready")
	m.RecordQuery(false, "not_ready")

	assert.Equal(t, uint64(4), m.queriesTotal.Load())
	assert.Equal(t, uint64(1), m.queriesCacheHits.Load())
	assert.Equal(t, uint64(1), m.queriesCacheMisses.Load())
	assert.Equal(t, uint64(2), m.queriesErrors.Load())

	q := m.Stats()["queries"].(map[string]any)
	assert.Equal(t, map[string]uint64{"not_ready": 2}, q["errors_by_kind"])
}

func TestRecordDurations(t *testing.T) {
	m := New()
	m.RecordRetrieval(100*time.Millisecond, nil)
	m.RecordRetrieval(300*time.Millisecond, nil)
	m.RecordRetrieval(time.Second, errors.New("down"))
	m.RecordGeneration(2*time.Second, nil)

	r := m.Stats()["retrieval"].(map[string]any)
	assert.Equal(t, uint64(3), r["total"])
	assert.Equal(t, uint64(1), r["errors"])
	assert.InDelta(t, 0.2, r["avg_duration_secs"], 1e-9)

	g := m.Stats()["generation"].(map[string]any)
	assert.InDelta(t, 2.0, g["avg_duration_secs"], 1e-9)
}

func TestRecordVideo(t *testing.T) {
	m := New()
	m.RecordVideo(12, false)
	m.RecordVideo(0, true)

	i := m.Stats()["ingestion"].(map[string]any)
	assert.Equal(t, uint64(1), i["videos_ingested"])
	assert.Equal(t, uint64(1), i["videos_skipped"])
	assert.Equal(t, uint64(12), i["records_written"])
}

func TestExport(t *testing.T) {
	m := New()
	m.RecordQuery(false, "invalid_query")
	m.RecordQuery(false, "embedding_failed")
	m.RecordVideo(3, false)

	out := m.Export("coursemind", map[string]float64{"store_records": 42})

	assert.Contains(t, out, "# TYPE coursemind_queries_total counter\ncoursemind_queries_total 2\n")
	assert.Contains(t, out, `coursemind_query_errors_by_kind_total{kind="embedding_failed"} 1`)
	assert.Contains(t, out, `coursemind_query_errors_by_kind_total{kind="invalid_query"} 1`)
	assert.Equal(t, 1, strings.Count(out, "# TYPE coursemind_query_errors_by_kind_total counter"))
	assert.Contains(t, out, "coursemind_records_written_total 3\n")
	assert.Contains(t, out, "# TYPE coursemind_store_records gauge\ncoursemind_store_records 42.000000\n")
	assert.Contains(t, out, "coursemind_uptime_seconds ")
}

func TestConcurrentRecording(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := ""
			if i%2 == 0 {
				kind = "generation_failed"
			}
			m.RecordQuery(false, kind)
			m.RecordRetrieval(time.Millisecond, nil)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, uint64(50), m.queriesTotal.Load())
	assert.Equal(t, uint64(25), m.queriesErrors.Load())
	assert.Equal(t, uint64(50), m.retrievalTotal.Load())
}
