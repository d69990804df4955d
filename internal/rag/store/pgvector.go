package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PGVectorStore 基于 PostgreSQL + pgvector 的知识库。
type PGVectorStore struct {
	pool      *pgxpool.Pool
	name      string
	table     string
	dimension int
}

var _ KnowledgeStore = (*PGVectorStore)(nil)

// NewPGVectorStore creates a store backed by table (the collection name).
func NewPGVectorStore(pool *pgxpool.Pool, table string, dimension int) *PGVectorStore {
	return &PGVectorStore{
		pool:      pool,
		name:      table,
		table:     pgx.Identifier{table}.Sanitize(),
		dimension: dimension,
	}
}

// EnsureCollection 创建扩展、表和 HNSW 余弦索引。
func (s *PGVectorStore) EnsureCollection(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id           TEXT PRIMARY KEY,
	embedding    vector(%d) NOT NULL,
	document     TEXT NOT NULL,
	video_title  TEXT NOT NULL,
	video_number BIGINT NOT NULL,
	start_time   DOUBLE PRECISION NOT NULL,
	end_time     DOUBLE PRECISION NOT NULL,
	source_url   TEXT NOT NULL,
	source_text  TEXT NOT NULL
)`, s.table, s.dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
			pgx.Identifier{s.name + "_embedding_idx"}.Sanitize(), s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("pgvector ensure collection: %w", err)
		}
	}
	return nil
}

// DropCollection 删除表，索引随表一起删除。
func (s *PGVectorStore) DropCollection(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS `+s.table); err != nil {
		return fmt.Errorf("pgvector drop collection: %w", err)
	}
	return nil
}

// Count 返回表记录数。
func (s *PGVectorStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, s.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("pgvector count: %w", err)
	}
	return int(n), nil
}

// Insert 在一个事务中写入整批记录。
func (s *PGVectorStore) Insert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := Validate(records, s.dimension); err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s
	(id, embedding, document, video_title, video_number, start_time, end_time, source_url, source_text)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.table)

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query,
			r.ID, pgvector.NewVector(r.Vector), r.Document,
			r.Metadata.VideoTitle, int64(r.Metadata.VideoNumber),
			r.Metadata.StartTime, r.Metadata.EndTime,
			r.Metadata.SourceURL, r.Metadata.SourceText,
		)
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("pgvector insert: %w", err)
	}
	return nil
}

// Search 按余弦距离升序返回，Score = 1 - distance。
func (s *PGVectorStore) Search(ctx context.Context, vector []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return []SearchResult{}, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query vector dimension %d, want %d", len(vector), s.dimension)
	}

	query := fmt.Sprintf(`SELECT document, video_title, video_number, start_time, end_time,
	source_url, source_text, 1 - (embedding <=> $1) AS score
FROM %s ORDER BY embedding <=> $1 LIMIT $2`, s.table)

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	defer rows.Close()

	results := make([]SearchResult, 0, k)
	for rows.Next() {
		var (
			r      SearchResult
			number int64
			score  float64
		)
		if err := rows.Scan(&r.Document, &r.Metadata.VideoTitle, &number,
			&r.Metadata.StartTime, &r.Metadata.EndTime,
			&r.Metadata.SourceURL, &r.Metadata.SourceText, &score); err != nil {
			return nil, fmt.Errorf("pgvector scan: %w", err)
		}
		r.Metadata.VideoNumber = int(number)
		r.Score = float32(score)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	return results, nil
}
