// Package chromem implements rag.Store on top of chromem-go, an embedded
// pure-Go vector database. Chunks live in a single collection and search
// runs on chromem's cosine index, so the store works without any external
// database server and without CGO.
//
// Keyword search is not supported; hybrid retrieval degrades to
// vector-only when handed this store.
package chromem

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
)

// DefaultCollection is the collection chunks are stored in.
const DefaultCollection = "rag_documents"

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCollection overrides the default collection name.
func WithCollection(name string) StoreOption {
	return func(s *Store) { s.collection = name }
}

// Store keeps chunks in a chromem-go collection.
type Store struct {
	db         *chromem.DB
	collection string
}

var _ rag.Store = (*Store)(nil)

// New returns a Store backed by an in-memory database. Contents are lost
// when the process exits.
func New(opts ...StoreOption) *Store {
	s := &Store{db: chromem.NewDB(), collection: DefaultCollection}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewPersistent returns a Store backed by an on-disk database rooted at
// path. An existing database at that path is loaded.
func NewPersistent(path string, opts ...StoreOption) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("chromem: open %s: %w", path, err)
	}
	s := &Store{db: db, collection: DefaultCollection}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Init ensures the collection exists so a search before the first save
// returns no results instead of failing.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.collectionHandle(); err != nil {
		return err
	}
	return nil
}

// SaveCorpus replaces the collection contents with the corpus chunks. The
// chunking configuration is recorded in the collection metadata, each
// chunk's position in its document metadata. Chunks without embeddings are
// skipped; chromem would otherwise try to embed them itself.
func (s *Store) SaveCorpus(ctx context.Context, c *rag.Corpus) error {
	chunks := c.Chunks
	if len(chunks) == 0 {
		for _, doc := range c.Documents() {
			chunks = append(chunks, c.ByDocument[doc]...)
		}
	}

	if err := s.db.DeleteCollection(s.collection); err != nil {
		return fmt.Errorf("chromem: reset collection %s: %w", s.collection, err)
	}
	col, err := s.db.GetOrCreateCollection(s.collection, collectionMetadata(c.Config), nil)
	if err != nil {
		return fmt.Errorf("chromem: create collection %s: %w", s.collection, err)
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        chunk.ID,
			Content:   chunk.Text,
			Embedding: chunk.Embedding,
			Metadata: map[string]string{
				"document":  chunk.Document,
				"start_pos": strconv.Itoa(chunk.StartPos),
				"end_pos":   strconv.Itoa(chunk.EndPos),
				"size":      strconv.Itoa(chunk.Size),
			},
		})
	}
	if len(docs) == 0 {
		return nil
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem: add %d documents: %w", len(docs), err)
	}
	return nil
}

// SearchChunks returns the topK chunks most similar to the query embedding
// by cosine similarity. chromem rejects result counts above the collection
// size, so topK is clamped to the number of stored chunks.
func (s *Store) SearchChunks(ctx context.Context, embedding []float32, topK int) ([]rag.ScoredChunk, error) {
	col, err := s.collectionHandle()
	if err != nil {
		return nil, err
	}
	n := topK
	if count := col.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: query: %w", err)
	}
	scored := make([]rag.ScoredChunk, 0, len(results))
	for _, res := range results {
		scored = append(scored, rag.ScoredChunk{
			Chunk: rag.Chunk{
				ID:        res.ID,
				Document:  res.Metadata["document"],
				Text:      res.Content,
				StartPos:  metaInt(res.Metadata, "start_pos"),
				EndPos:    metaInt(res.Metadata, "end_pos"),
				Size:      metaInt(res.Metadata, "size"),
				Embedding: res.Embedding,
			},
			Score: res.Similarity,
		})
	}
	return scored, nil
}

// CountChunks reports the number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	col, err := s.collectionHandle()
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

// Close is a no-op. The database lives in process memory and persistent
// stores write through on every mutation, so there is nothing to flush.
func (s *Store) Close() error { return nil }

// collectionHandle resolves the collection fresh on every call because
// SaveCorpus drops and recreates it, invalidating old handles.
func (s *Store) collectionHandle() (*chromem.Collection, error) {
	col, err := s.db.GetOrCreateCollection(s.collection, collectionMetadata(rag.ChunkingConfig{}), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: collection %s: %w", s.collection, err)
	}
	return col, nil
}

func collectionMetadata(cfg rag.ChunkingConfig) map[string]string {
	meta := map[string]string{
		"description": "Text chunks with embeddings for retrieval experiments",
	}
	if cfg.ChunkSize > 0 {
		meta["chunk_size"] = strconv.Itoa(cfg.ChunkSize)
		meta["overlap_size"] = strconv.Itoa(cfg.OverlapSize)
	}
	return meta
}

// metaInt reads a numeric metadata value. SaveCorpus writes positions as
// decimal strings; anything else parses as zero.
func metaInt(meta map[string]string, key string) int {
	n, _ := strconv.Atoi(meta[key])
	return n
}
