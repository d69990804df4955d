package biz

import (
	"fmt"
	"strings"

	"github.com/kart-io/coursemind/internal/rag/store"
)

// Source 是展示给用户的出处。
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// FormatTimestamp 把秒数截断为整数后格式化为 MM:SS。
// 超过 99 分钟时分钟位会多于两位。
func FormatTimestamp(seconds float64) string {
	s := int(seconds)
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

// Assemble 按检索顺序拼接上下文块，并按 URL 去重生成来源列表。
// 同一 URL 以首次出现为准；sourceCap 只限制新 URL 的加入，<=0 表示不限制。
func Assemble(results []store.SearchResult, sourceCap int) (string, []Source) {
	blocks := make([]string, 0, len(results))
	sources := make([]Source, 0)
	seen := make(map[string]struct{})

	for _, r := range results {
		md := r.Metadata
		blocks = append(blocks, fmt.Sprintf(
			"---\nVideo Title: %s\nVideo Number: %d\nTimestamp: %s (%ds)\nContent: %s\n---",
			md.VideoTitle, md.VideoNumber, FormatTimestamp(md.StartTime), int(md.StartTime), r.Document))

		if _, ok := seen[md.SourceURL]; ok {
			continue
		}
		if sourceCap > 0 && len(sources) >= sourceCap {
			continue
		}
		seen[md.SourceURL] = struct{}{}
		sources = append(sources, Source{Title: md.VideoTitle, URL: md.SourceURL})
	}

	return strings.Join(blocks, "\n"), sources
}
