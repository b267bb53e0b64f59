package rag

import "context"

// ScoredChunk pairs a chunk with a relevance score. Higher is better.
type ScoredChunk struct {
	Chunk
	Score float32 `json:"score"`
}

// Store abstracts chunk persistence with vector search.
type Store interface {
	// Init creates the schema. Safe to call more than once.
	Init(ctx context.Context) error

	// SaveCorpus persists all chunks of the corpus together with its
	// chunking configuration, replacing any previous corpus content.
	SaveCorpus(ctx context.Context, c *Corpus) error

	// SearchChunks returns the topK chunks most similar to the query
	// embedding, sorted by score descending.
	SearchChunks(ctx context.Context, embedding []float32, topK int) ([]ScoredChunk, error)

	Close() error
}
