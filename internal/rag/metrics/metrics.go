// Package metrics 提供问答服务与导入流水线的业务指标收集。
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// RAGMetrics 业务指标。
type RAGMetrics struct {
	// 查询指标
	queriesTotal       atomic.Uint64
	queriesCacheHits   atomic.Uint64
	queriesCacheMisses atomic.Uint64
	queriesErrors      atomic.Uint64

	// 检索指标
	retrievalTotal  atomic.Uint64
	retrievalErrors atomic.Uint64

	// 生成指标
	generationTotal  atomic.Uint64
	generationErrors atomic.Uint64

	// 导入指标
	videosIngested atomic.Uint64
	videosSkipped  atomic.Uint64
	recordsWritten atomic.Uint64

	mu                 sync.Mutex
	errorsByKind       map[string]uint64
	retrievalDuration  float64 // 秒
	generationDuration float64 // 秒
	startTime          time.Time
}

// New creates a metrics collector.
func New() *RAGMetrics {
	return &RAGMetrics{
		errorsByKind: make(map[string]uint64),
		startTime:    time.Now(),
	}
}

// RecordQuery 记录一次问答请求；kind 为失败时的错误类别。
func (m *RAGMetrics) RecordQuery(cacheHit bool, kind string) {
	m.queriesTotal.Add(1)
	if kind != "" {
		m.queriesErrors.Add(1)
		m.mu.Lock()
		m.errorsByKind[kind]++
		m.mu.Unlock()
		return
	}
	if cacheHit {
		m.queriesCacheHits.Add(1)
	} else {
		m.queriesCacheMisses.Add(1)
	}
}

// RecordRetrieval 记录检索操作。
func (m *RAGMetrics) RecordRetrieval(duration time.Duration, err error) {
	m.retrievalTotal.Add(1)
	if err != nil {
		m.retrievalErrors.Add(1)
		return
	}
	m.mu.Lock()
	m.retrievalDuration += duration.Seconds()
	m.mu.Unlock()
}

// RecordGeneration 记录答案生成。
func (m *RAGMetrics) RecordGeneration(duration time.Duration, err error) {
	m.generationTotal.Add(1)
	if err != nil {
		m.generationErrors.Add(1)
		return
	}
	m.mu.Lock()
	m.generationDuration += duration.Seconds()
	m.mu.Unlock()
}

// RecordVideo 记录一个视频的导入结果。
func (m *RAGMetrics) RecordVideo(records int, skipped bool) {
	if skipped {
		m.videosSkipped.Add(1)
		return
	}
	m.videosIngested.Add(1)
	m.recordsWritten.Add(uint64(records))
}

type sample struct {
	name, help, typ string
	labels          string
	value           string
}

// Export 导出 Prometheus 文本格式指标；extra 为调用方提供的瞬时 gauge。
func (m *RAGMetrics) Export(namespace string, extra map[string]float64) string {
	m.mu.Lock()
	retrievalDuration := m.retrievalDuration
	generationDuration := m.generationDuration
	kinds := make([]string, 0, len(m.errorsByKind))
	for k := range m.errorsByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	byKind := make([]uint64, len(kinds))
	for i, k := range kinds {
		byKind[i] = m.errorsByKind[k]
	}
	m.mu.Unlock()

	u := func(v uint64) string { return fmt.Sprintf("%d", v) }
	f := func(v float64) string { return fmt.Sprintf("%.6f", v) }

	samples := []sample{
		{"queries_total", "Total number of questions asked.", "counter", "", u(m.queriesTotal.Load())},
		{"queries_cache_hits_total", "Number of answers served from cache.", "counter", "", u(m.queriesCacheHits.Load())},
		{"queries_cache_misses_total", "Number of answers computed.", "counter", "", u(m.queriesCacheMisses.Load())},
		{"queries_errors_total", "Number of failed questions.", "counter", "", u(m.queriesErrors.Load())},
	}
	for i, k := range kinds {
		samples = append(samples, sample{"query_errors_by_kind_total", "Failed questions by error kind.", "counter", fmt.Sprintf(`{kind=%q}`, k), u(byKind[i])})
	}
	samples = append(samples,
		sample{"retrieval_total", "Total number of retrievals.", "counter", "", u(m.retrievalTotal.Load())},
		sample{"retrieval_errors_total", "Number of retrieval errors.", "counter", "", u(m.retrievalErrors.Load())},
		sample{"retrieval_duration_seconds_total", "Total retrieval duration.", "counter", "", f(retrievalDuration)},
		sample{"generation_total", "Total number of answer generations.", "counter", "", u(m.generationTotal.Load())},
		sample{"generation_errors_total", "Number of generation errors.", "counter", "", u(m.generationErrors.Load())},
		sample{"generation_duration_seconds_total", "Total generation duration.", "counter", "", f(generationDuration)},
		sample{"videos_ingested_total", "Videos committed to the knowledge store.", "counter", "", u(m.videosIngested.Load())},
		sample{"videos_skipped_total", "Videos skipped during ingestion.", "counter", "", u(m.videosSkipped.Load())},
		sample{"records_written_total", "Knowledge records written.", "counter", "", u(m.recordsWritten.Load())},
	)

	extraNames := make([]string, 0, len(extra))
	for k := range extra {
		extraNames = append(extraNames, k)
	}
	sort.Strings(extraNames)
	for _, k := range extraNames {
		samples = append(samples, sample{k, k + " gauge.", "gauge", "", f(extra[k])})
	}
	samples = append(samples, sample{"uptime_seconds", "Service uptime in seconds.", "gauge", "", fmt.Sprintf("%.2f", time.Since(m.startTime).Seconds())})

	var sb strings.Builder
	last := ""
	for _, s := range samples {
		name := namespace + "_" + s.name
		if name != last {
			fmt.Fprintf(&sb, "# HELP %s %s\n# TYPE %s %s\n", name, s.help, name, s.typ)
			last = name
		}
		fmt.Fprintf(&sb, "%s%s %s\n", name, s.labels, s.value)
	}
	return sb.String()
}

// Stats 返回当前统计信息（用于 API）。
func (m *RAGMetrics) Stats() map[string]any {
	m.mu.Lock()
	retrievalDuration := m.retrievalDuration
	generationDuration := m.generationDuration
	byKind := make(map[string]uint64, len(m.errorsByKind))
	for k, v := range m.errorsByKind {
		byKind[k] = v
	}
	m.mu.Unlock()

	avg := func(total float64, n uint64) float64 {
		if n == 0 {
			return 0
		}
		return total / float64(n)
	}

	retrievalOK := m.retrievalTotal.Load() - m.retrievalErrors.Load()
	generationOK := m.generationTotal.Load() - m.generationErrors.Load()

	return map[string]any{
		"queries": map[string]any{
			"total":          m.queriesTotal.Load(),
			"cache_hits":     m.queriesCacheHits.Load(),
			"cache_misses":   m.queriesCacheMisses.Load(),
			"errors":         m.queriesErrors.Load(),
			"errors_by_kind": byKind,
		},
		"retrieval": map[string]any{
			"total":             m.retrievalTotal.Load(),
			"errors":            m.retrievalErrors.Load(),
			"avg_duration_secs": avg(retrievalDuration, retrievalOK),
		},
		"generation": map[string]any{
			"total":             m.generationTotal.Load(),
			"errors":            m.generationErrors.Load(),
			"avg_duration_secs": avg(generationDuration, generationOK),
		},
		"ingestion": map[string]any{
			"videos_ingested": m.videosIngested.Load(),
			"videos_skipped":  m.videosSkipped.Load(),
			"records_written": m.recordsWritten.Load(),
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}
