package chromem

import (
	"context"
	"path/filepath"
	"testing"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testCorpus(chunks ...rag.Chunk) *rag.Corpus {
	c := rag.NewCorpus(rag.DefaultChunkingConfig())
	byDoc := map[string][]rag.Chunk{}
	for _, ch := range chunks {
		byDoc[ch.Document] = append(byDoc[ch.Document], ch)
	}
	for doc, docChunks := range byDoc {
		c.SetDocument(doc, docChunks)
	}
	c.Flatten()
	return c
}

func TestSaveCorpusAndSearch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	corpus := testCorpus(
		rag.Chunk{ID: "doc_chunk_0", Document: "doc", Text: "golang concurrency patterns", StartPos: 0, EndPos: 27, Size: 27, Embedding: []float32{1, 0, 0}},
		rag.Chunk{ID: "doc_chunk_1", Document: "doc", Text: "python machine learning basics", StartPos: 27, EndPos: 57, Size: 30, Embedding: []float32{0, 1, 0}},
		rag.Chunk{ID: "doc_chunk_2", Document: "doc", Text: "golang error handling", StartPos: 57, EndPos: 78, Size: 21, Embedding: []float32{0.9, 0.1, 0}},
	)
	if err := s.SaveCorpus(ctx, corpus); err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}

	results, err := s.SearchChunks(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "doc_chunk_0" {
		t.Errorf("top result = %q, want doc_chunk_0", results[0].ID)
	}
	if results[1].ID != "doc_chunk_2" {
		t.Errorf("second result = %q, want doc_chunk_2", results[1].ID)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not sorted: %v then %v", results[0].Score, results[1].Score)
	}

	// Positions survive the metadata round trip.
	if results[1].Document != "doc" || results[1].StartPos != 57 || results[1].EndPos != 78 || results[1].Size != 21 {
		t.Errorf("chunk fields lost: %+v", results[1].Chunk)
	}
}

func TestSearchBeforeSave(t *testing.T) {
	s := testStore(t)

	results, err := s.SearchChunks(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestTopKClampedToCount(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	corpus := testCorpus(
		rag.Chunk{ID: "doc_chunk_0", Document: "doc", Text: "first", Embedding: []float32{1, 0}},
		rag.Chunk{ID: "doc_chunk_1", Document: "doc", Text: "second", Embedding: []float32{0, 1}},
	)
	if err := s.SaveCorpus(ctx, corpus); err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}

	// chromem errors when asked for more results than it holds.
	results, err := s.SearchChunks(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("SearchChunks with topK above count: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestSaveCorpusReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := testCorpus(
		rag.Chunk{ID: "a_chunk_0", Document: "a", Text: "old content", Embedding: []float32{1, 0}},
		rag.Chunk{ID: "a_chunk_1", Document: "a", Text: "more old content", Embedding: []float32{0, 1}},
	)
	if err := s.SaveCorpus(ctx, first); err != nil {
		t.Fatalf("first SaveCorpus: %v", err)
	}

	second := testCorpus(
		rag.Chunk{ID: "b_chunk_0", Document: "b", Text: "new content", Embedding: []float32{1, 0}},
	)
	if err := s.SaveCorpus(ctx, second); err != nil {
		t.Fatalf("second SaveCorpus: %v", err)
	}

	count, err := s.CountChunks(ctx)
	if err != nil {
		t.Fatalf("CountChunks: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 chunk after replace, got %d", count)
	}

	results, err := s.SearchChunks(ctx, []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	for _, r := range results {
		if r.Document == "a" {
			t.Errorf("old corpus chunk %s survived the replace", r.ID)
		}
	}
}

func TestSaveCorpusSkipsMissingEmbeddings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	corpus := testCorpus(
		rag.Chunk{ID: "doc_chunk_0", Document: "doc", Text: "embedded", Embedding: []float32{1, 0}},
		rag.Chunk{ID: "doc_chunk_1", Document: "doc", Text: "not embedded"},
	)
	if err := s.SaveCorpus(ctx, corpus); err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}

	count, err := s.CountChunks(ctx)
	if err != nil {
		t.Fatalf("CountChunks: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 stored chunk, got %d", count)
	}
}

func TestSaveCorpusUnflattened(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	// Corpus with only the per-document view populated.
	corpus := rag.NewCorpus(rag.DefaultChunkingConfig())
	corpus.SetDocument("doc", []rag.Chunk{
		{ID: "doc_chunk_0", Document: "doc", Text: "hello world", Embedding: []float32{1, 0}},
	})
	if err := s.SaveCorpus(ctx, corpus); err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}

	results, err := s.SearchChunks(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(results) != 1 || results[0].ID != "doc_chunk_0" {
		t.Fatalf("expected doc_chunk_0, got %+v", results)
	}
}

func TestPersistentReload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	s, err := NewPersistent(dir)
	if err != nil {
		t.Fatalf("NewPersistent: %v", err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	corpus := testCorpus(
		rag.Chunk{ID: "doc_chunk_0", Document: "doc", Text: "attention is all you need", StartPos: 0, EndPos: 25, Size: 25, Embedding: []float32{0.5, 0.5}},
	)
	if err := s.SaveCorpus(ctx, corpus); err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewPersistent(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	results, err := reopened.SearchChunks(ctx, []float32{0.5, 0.5}, 1)
	if err != nil {
		t.Fatalf("SearchChunks after reload: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result after reload, got %d", len(results))
	}
	if results[0].ID != "doc_chunk_0" || results[0].Text != "attention is all you need" {
		t.Errorf("chunk content lost across reload: %+v", results[0].Chunk)
	}
	if results[0].StartPos != 0 || results[0].EndPos != 25 || results[0].Size != 25 {
		t.Errorf("chunk positions lost across reload: %+v", results[0].Chunk)
	}
}

func TestWithCollection(t *testing.T) {
	s := New(WithCollection("eval_chunks"))
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	corpus := testCorpus(
		rag.Chunk{ID: "doc_chunk_0", Document: "doc", Text: "custom collection", Embedding: []float32{1, 0}},
	)
	if err := s.SaveCorpus(ctx, corpus); err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}

	results, err := s.SearchChunks(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(results) != 1 || results[0].ID != "doc_chunk_0" {
		t.Fatalf("expected doc_chunk_0 from custom collection, got %+v", results)
	}
}
