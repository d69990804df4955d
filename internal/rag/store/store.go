// Package store 定义知识库记录模型与向量存储后端（milvus、pgvector、内存），
// 以及基于 gorm 的会话持久化。
package store

import (
	"context"
	"fmt"
)

// 存储字段名，milvus 与 pgvector 共用。
const (
	FieldDocument    = "document"
	FieldVideoTitle  = "video_title"
	FieldVideoNumber = "video_number"
	FieldStartTime   = "start_time"
	FieldEndTime     = "end_time"
	FieldSourceURL   = "source_url"
	FieldSourceText  = "source_text"
)

// Metadata 是记录的扁平标量元数据。
type Metadata struct {
	VideoTitle  string  `json:"video_title"`
	VideoNumber int     `json:"video_number"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	SourceURL   string  `json:"source_url"`
	SourceText  string  `json:"source_text"`
}

// Record 是一条知识库记录。
type Record struct {
	// ID 在集合内唯一，由写入方按序分配。
	ID string
	// Vector 为 Document 的嵌入向量。
	Vector []float32
	// Document 为翻译后的文本。
	Document string
	Metadata Metadata
}

// SearchResult 表示一次检索命中。
type SearchResult struct {
	Document string
	Metadata Metadata
	// Score 余弦相似度，越大越相似。
	Score float32
}

// KnowledgeStore 是向量存储接口。
type KnowledgeStore interface {
	// EnsureCollection 不存在时创建集合（余弦度量），并使其可查询。
	EnsureCollection(ctx context.Context) error

	// DropCollection 删除集合及其全部记录，集合不存在时不报错。
	DropCollection(ctx context.Context) error

	// Count 返回当前记录数。
	Count(ctx context.Context) (int, error)

	// Insert 一次性写入一批记录。
	Insert(ctx context.Context, records []Record) error

	// Search 返回最相似的至多 k 条记录，按相似度降序。
	Search(ctx context.Context, vector []float32, k int) ([]SearchResult, error)
}

// Validate checks that every record carries a vector of the configured dimension.
func Validate(records []Record, dimension int) error {
	for i := range records {
		if got := len(records[i].Vector); got != dimension {
			return fmt.Errorf("record %s: vector dimension %d, want %d", records[i].ID, got, dimension)
		}
	}
	return nil
}
