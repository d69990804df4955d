package store

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/coursemind/pkg/component/milvus"
)

var outputFields = []string{
	FieldDocument, FieldVideoTitle, FieldVideoNumber,
	FieldStartTime, FieldEndTime, FieldSourceURL, FieldSourceText,
}

// MilvusStore 基于 Milvus 的知识库。
type MilvusStore struct {
	client     *milvus.Client
	collection string
	dimension  int
}

var _ KnowledgeStore = (*MilvusStore)(nil)

// NewMilvusStore 创建 Milvus 存储实例。
func NewMilvusStore(client *milvus.Client, collection string, dimension int) *MilvusStore {
	return &MilvusStore{client: client, collection: collection, dimension: dimension}
}

// EnsureCollection 创建并加载集合。
func (s *MilvusStore) EnsureCollection(ctx context.Context) error {
	return s.client.EnsureCollection(ctx, &milvus.CollectionSchema{
		Name:        s.collection,
		Description: "course transcript segments",
		Dimension:   s.dimension,
		MetaFields: []milvus.MetaField{
			{Name: FieldDocument, DataType: entity.FieldTypeVarChar, MaxLen: 65535},
			{Name: FieldVideoTitle, DataType: entity.FieldTypeVarChar, MaxLen: 512},
			{Name: FieldVideoNumber, DataType: entity.FieldTypeInt64},
			{Name: FieldStartTime, DataType: entity.FieldTypeDouble},
			{Name: FieldEndTime, DataType: entity.FieldTypeDouble},
			{Name: FieldSourceURL, DataType: entity.FieldTypeVarChar, MaxLen: 2048},
			{Name: FieldSourceText, DataType: entity.FieldTypeVarChar, MaxLen: 65535},
		},
	})
}

// DropCollection 删除集合。
func (s *MilvusStore) DropCollection(ctx context.Context) error {
	return s.client.DropCollection(ctx, s.collection)
}

// Count 返回集合记录数。
func (s *MilvusStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, s.collection)
	return int(n), err
}

// Insert 按列写入一批记录。
func (s *MilvusStore) Insert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := Validate(records, s.dimension); err != nil {
		return err
	}

	n := len(records)
	var (
		ids       = make([]string, n)
		vectors   = make([][]float32, n)
		documents = make([]string, n)
		titles    = make([]string, n)
		numbers   = make([]int64, n)
		starts    = make([]float64, n)
		ends      = make([]float64, n)
		urls      = make([]string, n)
		texts     = make([]string, n)
	)
	for i, r := range records {
		ids[i] = r.ID
		vectors[i] = r.Vector
		documents[i] = r.Document
		titles[i] = r.Metadata.VideoTitle
		numbers[i] = int64(r.Metadata.VideoNumber)
		starts[i] = r.Metadata.StartTime
		ends[i] = r.Metadata.EndTime
		urls[i] = r.Metadata.SourceURL
		texts[i] = r.Metadata.SourceText
	}

	return s.client.Insert(ctx, s.collection, ids, vectors,
		column.NewColumnVarChar(FieldDocument, documents),
		column.NewColumnVarChar(FieldVideoTitle, titles),
		column.NewColumnInt64(FieldVideoNumber, numbers),
		column.NewColumnDouble(FieldStartTime, starts),
		column.NewColumnDouble(FieldEndTime, ends),
		column.NewColumnVarChar(FieldSourceURL, urls),
		column.NewColumnVarChar(FieldSourceText, texts),
	)
}

// Search 向量相似度搜索。
func (s *MilvusStore) Search(ctx context.Context, vector []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return []SearchResult{}, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query vector dimension %d, want %d", len(vector), s.dimension)
	}

	hits, err := s.client.Search(ctx, s.collection, vector, k, outputFields)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchResult{
			Document: stringField(h.Fields, FieldDocument),
			Metadata: Metadata{
				VideoTitle:  stringField(h.Fields, FieldVideoTitle),
				VideoNumber: int(int64Field(h.Fields, FieldVideoNumber)),
				StartTime:   float64Field(h.Fields, FieldStartTime),
				EndTime:     float64Field(h.Fields, FieldEndTime),
				SourceURL:   stringField(h.Fields, FieldSourceURL),
				SourceText:  stringField(h.Fields, FieldSourceText),
			},
			Score: h.Score,
		})
	}
	return results, nil
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func int64Field(m map[string]any, key string) int64 {
	v, _ := m[key].(int64)
	return v
}

func float64Field(m map[string]any, key string) float64 {
	v, _ := m[key].(float64)
	return v
}
