package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore 内存知识库，线性扫描余弦相似度。用于开发和测试。
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	records   []Record
	ids       map[string]struct{}
}

var _ KnowledgeStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store; dimension 0 accepts any vector length.
func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{dimension: dimension, ids: make(map[string]struct{})}
}

// EnsureCollection is a no-op.
func (s *MemoryStore) EnsureCollection(context.Context) error { return nil }

// DropCollection 清空全部记录。
func (s *MemoryStore) DropCollection(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.ids = make(map[string]struct{})
	return nil
}

// Count 返回记录数。
func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Insert 整批写入；id 重复时整批拒绝。
func (s *MemoryStore) Insert(_ context.Context, records []Record) error {
	if s.dimension > 0 {
		if err := Validate(records, s.dimension); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, ok := s.ids[r.ID]; ok {
			return fmt.Errorf("duplicate record id %q", r.ID)
		}
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("duplicate record id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		s.records = append(s.records, r)
		s.ids[r.ID] = struct{}{}
	}
	return nil
}

// Search 余弦相似度降序，分数相同按插入顺序。
func (s *MemoryStore) Search(_ context.Context, vector []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return []SearchResult{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.records))
	for _, r := range s.records {
		if len(r.Vector) != len(vector) {
			return nil, fmt.Errorf("query vector dimension %d, record %s has %d", len(vector), r.ID, len(r.Vector))
		}
		results = append(results, SearchResult{
			Document: r.Document,
			Metadata: r.Metadata,
			Score:    cosine(vector, r.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
