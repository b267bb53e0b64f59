// Package postgres implements rag.Store using PostgreSQL with pgvector
// for native vector similarity search and tsvector for full-text keyword
// search.
//
// The Store accepts an externally-owned *pgxpool.Pool via constructor
// injection. The caller creates and closes the pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
)

// Store implements rag.Store backed by PostgreSQL with pgvector.
// Vector search uses HNSW indexes with cosine distance.
type Store struct {
	pool *pgxpool.Pool
	cfg  pgConfig
}

// pgConfig holds store configuration set via Option functions.
type pgConfig struct {
	embeddingDimension int // 0 = untyped vector
	hnswM              int // 0 = pgvector default (16)
	hnswEFConstruction int // 0 = pgvector default (64)
	hnswEFSearch       int // 0 = pgvector default (40)
}

// Option configures a PostgreSQL Store.
type Option func(*pgConfig)

// WithEmbeddingDimension sets the vector column dimension (e.g. 1536, 768).
// When set, CREATE TABLE uses vector(N) instead of untyped vector, enabling
// better index optimization and catching dimension mismatches at insert time.
// Only affects new table creation (no ALTER on existing tables).
func WithEmbeddingDimension(dim int) Option {
	return func(c *pgConfig) { c.embeddingDimension = dim }
}

// WithHNSWM sets the HNSW m parameter (max connections per node).
// Higher values improve recall at the cost of memory. Default: pgvector's 16.
// Only affects index creation (CREATE INDEX IF NOT EXISTS).
func WithHNSWM(m int) Option {
	return func(c *pgConfig) { c.hnswM = m }
}

// WithEFConstruction sets the HNSW ef_construction parameter (build-time
// candidate list size). Higher values improve index quality at the cost of
// slower builds. Default: pgvector's 64.
// Only affects index creation (CREATE INDEX IF NOT EXISTS).
func WithEFConstruction(ef int) Option {
	return func(c *pgConfig) { c.hnswEFConstruction = ef }
}

// WithEFSearch sets the HNSW ef_search parameter (query-time candidate list
// size). Higher values improve recall at the cost of latency. Default:
// pgvector's 40. Applied via SET during Init().
func WithEFSearch(ef int) Option {
	return func(c *pgConfig) { c.hnswEFSearch = ef }
}

var _ rag.Store = (*Store)(nil)
var _ rag.KeywordSearcher = (*Store)(nil)

// New creates a Store using an existing pgxpool.Pool.
// The caller owns the pool and is responsible for closing it.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	var cfg pgConfig
	for _, o := range opts {
		o(&cfg)
	}
	return &Store{pool: pool, cfg: cfg}
}

// vectorType returns "vector" or "vector(N)" depending on config.
func (s *Store) vectorType() string {
	if s.cfg.embeddingDimension > 0 {
		return fmt.Sprintf("vector(%d)", s.cfg.embeddingDimension)
	}
	return "vector"
}

// hnswWithClause returns the WITH (...) clause for HNSW index creation,
// or an empty string if no tuning params are set.
func (s *Store) hnswWithClause() string {
	var parts []string
	if s.cfg.hnswM > 0 {
		parts = append(parts, fmt.Sprintf("m = %d", s.cfg.hnswM))
	}
	if s.cfg.hnswEFConstruction > 0 {
		parts = append(parts, fmt.Sprintf("ef_construction = %d", s.cfg.hnswEFConstruction))
	}
	if len(parts) == 0 {
		return ""
	}
	return " WITH (" + strings.Join(parts, ", ") + ")"
}

// Init creates the pgvector extension, all required tables, and indexes.
// Safe to call multiple times (all statements are idempotent).
func (s *Store) Init(ctx context.Context) error {
	vtype := s.vectorType()
	hnswWith := s.hnswWithClause()

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			chunk_id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			content TEXT NOT NULL,
			start_pos INTEGER NOT NULL,
			end_pos INTEGER NOT NULL,
			size INTEGER NOT NULL,
			embedding %s
		)`, vtype),
		`CREATE INDEX IF NOT EXISTS chunks_document_idx ON chunks(document)`,
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS chunks_embedding_idx ON chunks USING hnsw (embedding vector_cosine_ops)%s`, hnswWith),
		`CREATE INDEX IF NOT EXISTS chunks_fts_idx ON chunks USING gin(to_tsvector('english', content))`,

		`CREATE TABLE IF NOT EXISTS chunking_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			chunk_size INTEGER NOT NULL,
			overlap_size INTEGER NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: init: %w", err)
		}
	}

	if s.cfg.hnswEFSearch > 0 {
		if _, err := s.pool.Exec(ctx, fmt.Sprintf("SET hnsw.ef_search = %d", s.cfg.hnswEFSearch)); err != nil {
			return fmt.Errorf("postgres: set ef_search: %w", err)
		}
	}

	return nil
}

// SaveCorpus replaces the stored corpus with c in a single transaction.
// The flat chunk view is written; when the caller has not flattened, the
// per-document view is walked in sorted-name order instead.
func (s *Store) SaveCorpus(ctx context.Context, c *rag.Corpus) error {
	chunks := c.Chunks
	if len(chunks) == 0 {
		for _, doc := range c.Documents() {
			chunks = append(chunks, c.ByDocument[doc]...)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("postgres: clear chunks: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO chunking_config (id, chunk_size, overlap_size)
		 VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET
		   chunk_size = EXCLUDED.chunk_size,
		   overlap_size = EXCLUDED.overlap_size`,
		c.Config.ChunkSize, c.Config.OverlapSize)
	if err != nil {
		return fmt.Errorf("postgres: save chunking config: %w", err)
	}

	for _, chunk := range chunks {
		if len(chunk.Embedding) > 0 {
			embStr := serializeEmbedding(chunk.Embedding)
			_, err = tx.Exec(ctx,
				`INSERT INTO chunks (chunk_id, document, content, start_pos, end_pos, size, embedding)
				 VALUES ($1, $2, $3, $4, $5, $6, $7::vector)`,
				chunk.ID, chunk.Document, chunk.Text, chunk.StartPos, chunk.EndPos, chunk.Size, embStr)
		} else {
			_, err = tx.Exec(ctx,
				`INSERT INTO chunks (chunk_id, document, content, start_pos, end_pos, size, embedding)
				 VALUES ($1, $2, $3, $4, $5, $6, NULL)`,
				chunk.ID, chunk.Document, chunk.Text, chunk.StartPos, chunk.EndPos, chunk.Size)
		}
		if err != nil {
			return fmt.Errorf("postgres: insert chunk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit tx: %w", err)
	}
	return nil
}

// Config returns the chunking configuration stored with the corpus.
// Returns the zero configuration when none has been saved.
func (s *Store) Config(ctx context.Context) (rag.ChunkingConfig, error) {
	var cfg rag.ChunkingConfig
	err := s.pool.QueryRow(ctx,
		`SELECT chunk_size, overlap_size FROM chunking_config WHERE id = 1`,
	).Scan(&cfg.ChunkSize, &cfg.OverlapSize)
	if errors.Is(err, pgx.ErrNoRows) {
		return rag.ChunkingConfig{}, nil
	}
	if err != nil {
		return rag.ChunkingConfig{}, fmt.Errorf("postgres: get chunking config: %w", err)
	}
	return cfg, nil
}

// CountChunks returns the number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count chunks: %w", err)
	}
	return n, nil
}

// SearchChunks performs vector similarity search over chunks using
// pgvector's cosine distance operator with the HNSW index.
func (s *Store) SearchChunks(ctx context.Context, embedding []float32, topK int) ([]rag.ScoredChunk, error) {
	embStr := serializeEmbedding(embedding)
	rows, err := s.pool.Query(ctx,
		`SELECT chunk_id, document, content, start_pos, end_pos, size,
		        1 - (embedding <=> $1::vector) AS score
		 FROM chunks
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1::vector
		 LIMIT $2`,
		embStr, topK)
	if err != nil {
		return nil, fmt.Errorf("postgres: search chunks: %w", err)
	}
	defer rows.Close()

	var results []rag.ScoredChunk
	for rows.Next() {
		var c rag.Chunk
		var score float32
		if err := rows.Scan(&c.ID, &c.Document, &c.Text, &c.StartPos, &c.EndPos, &c.Size, &score); err != nil {
			return nil, fmt.Errorf("postgres: scan chunk: %w", err)
		}
		results = append(results, rag.ScoredChunk{Chunk: c, Score: score})
	}
	return results, rows.Err()
}

// SearchChunksKeyword performs full-text keyword search over chunks using
// PostgreSQL tsvector/tsquery with a GIN index.
func (s *Store) SearchChunksKeyword(ctx context.Context, query string, topK int) ([]rag.ScoredChunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT chunk_id, document, content, start_pos, end_pos, size,
		        ts_rank(to_tsvector('english', content), plainto_tsquery('english', $1)) AS score
		 FROM chunks
		 WHERE to_tsvector('english', content) @@ plainto_tsquery('english', $1)
		 ORDER BY score DESC
		 LIMIT $2`,
		query, topK)
	if err != nil {
		return nil, fmt.Errorf("postgres: keyword search: %w", err)
	}
	defer rows.Close()

	var results []rag.ScoredChunk
	for rows.Next() {
		var c rag.Chunk
		var score float32
		if err := rows.Scan(&c.ID, &c.Document, &c.Text, &c.StartPos, &c.EndPos, &c.Size, &score); err != nil {
			return nil, fmt.Errorf("postgres: scan chunk: %w", err)
		}
		results = append(results, rag.ScoredChunk{Chunk: c, Score: score})
	}
	return results, rows.Err()
}

// Close is a no-op. The caller owns the pool and manages its lifecycle.
func (s *Store) Close() error {
	return nil
}

// serializeEmbedding converts []float32 to pgvector's text format.
func serializeEmbedding(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
