package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "test.db"))
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

func TestInitIdempotent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "init.db"))
	defer s.Close()
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("second Init: %v", err)
	}
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

	// Positions survive the round trip.
	if results[1].StartPos != 57 || results[1].EndPos != 78 || results[1].Size != 21 {
		t.Errorf("chunk fields lost: %+v", results[1].Chunk)
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
		t.Fatalf("SaveCorpus: %v", err)
	}

	second := testCorpus(
		rag.Chunk{ID: "b_chunk_0", Document: "b", Text: "new content", Embedding: []float32{1, 0}},
	)
	second.Config = rag.ChunkingConfig{ChunkSize: 400, OverlapSize: 100}
	if err := s.SaveCorpus(ctx, second); err != nil {
		t.Fatalf("second SaveCorpus: %v", err)
	}

	n, err := s.CountChunks(ctx)
	if err != nil {
		t.Fatalf("CountChunks: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 chunk after replace, got %d", n)
	}

	results, err := s.SearchChunks(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(results) != 1 || results[0].ID != "b_chunk_0" {
		t.Errorf("expected only the new chunk, got %+v", results)
	}

	// Old FTS entries are gone too.
	kw, err := s.SearchChunksKeyword(ctx, "old", 10)
	if err != nil {
		t.Fatalf("SearchChunksKeyword: %v", err)
	}
	if len(kw) != 0 {
		t.Errorf("expected no keyword hits for replaced corpus, got %d", len(kw))
	}

	cfg, err := s.Config(ctx)
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if cfg.ChunkSize != 400 || cfg.OverlapSize != 100 {
		t.Errorf("config = %+v, want {400 100}", cfg)
	}
}

func TestSaveCorpusUnflattened(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	corpus := rag.NewCorpus(rag.DefaultChunkingConfig())
	corpus.SetDocument("doc", []rag.Chunk{
		{ID: "doc_chunk_0", Document: "doc", Text: "text", Embedding: []float32{1}},
	})

	if err := s.SaveCorpus(ctx, corpus); err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}
	n, err := s.CountChunks(ctx)
	if err != nil {
		t.Fatalf("CountChunks: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 chunk, got %d", n)
	}
}

func TestSearchChunksSkipsMissingEmbeddings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	corpus := testCorpus(
		rag.Chunk{ID: "doc_chunk_0", Document: "doc", Text: "embedded", Embedding: []float32{1, 0}},
		rag.Chunk{ID: "doc_chunk_1", Document: "doc", Text: "not embedded"},
	)
	if err := s.SaveCorpus(ctx, corpus); err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}

	results, err := s.SearchChunks(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(results) != 1 || results[0].ID != "doc_chunk_0" {
		t.Errorf("expected only the embedded chunk, got %+v", results)
	}
}

func TestSearchChunksKeyword(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	corpus := testCorpus(
		rag.Chunk{ID: "doc_chunk_0", Document: "doc", Text: "golang concurrency patterns"},
		rag.Chunk{ID: "doc_chunk_1", Document: "doc", Text: "python machine learning basics"},
		rag.Chunk{ID: "doc_chunk_2", Document: "doc", Text: "golang error handling best practices"},
	)
	if err := s.SaveCorpus(ctx, corpus); err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}

	results, err := s.SearchChunksKeyword(ctx, "golang", 10)
	if err != nil {
		t.Fatalf("SearchChunksKeyword: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.ID != "doc_chunk_0" && r.ID != "doc_chunk_2" {
			t.Errorf("unexpected chunk ID %q", r.ID)
		}
		if r.Score < 0 {
			t.Errorf("score %v below zero", r.Score)
		}
	}
}

func TestSearchChunksKeywordQuestionPunctuation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	corpus := testCorpus(
		rag.Chunk{ID: "doc_chunk_0", Document: "doc", Text: "attention is all you need"},
	)
	if err := s.SaveCorpus(ctx, corpus); err != nil {
		t.Fatalf("SaveCorpus: %v", err)
	}

	// Raw question marks are FTS5 syntax errors without the query builder.
	results, err := s.SearchChunksKeyword(ctx, "what is attention?", 10)
	if err != nil {
		t.Fatalf("SearchChunksKeyword: %v", err)
	}
	if len(results) != 1 || results[0].ID != "doc_chunk_0" {
		t.Errorf("expected the attention chunk, got %+v", results)
	}
}

func TestSearchChunksKeywordNoResults(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	results, err := s.SearchChunksKeyword(ctx, "nonexistent", 10)
	if err != nil {
		t.Fatalf("SearchChunksKeyword: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("len = %d, want 0", len(results))
	}

	results, err = s.SearchChunksKeyword(ctx, "???", 10)
	if err != nil {
		t.Fatalf("SearchChunksKeyword punctuation-only: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("punctuation-only len = %d, want 0", len(results))
	}
}

func TestFTSQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"golang", `"golang"`},
		{"what is attention?", `"what" OR "is" OR "attention"`},
		{`"quoted" AND (operators)`, `"quoted" OR "AND" OR "operators"`},
		{"???", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ftsQuery(tt.in); got != tt.want {
			t.Errorf("ftsQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigBeforeSave(t *testing.T) {
	s := testStore(t)

	cfg, err := s.Config(context.Background())
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if cfg != (rag.ChunkingConfig{}) {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("identical vectors = %v, want 1", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(float64(got)) > 1e-6 {
		t.Errorf("orthogonal vectors = %v, want 0", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{1}); got != 0 {
		t.Errorf("mismatched lengths = %v, want 0", got)
	}
	if got := cosineSimilarity(nil, nil); got != 0 {
		t.Errorf("empty vectors = %v, want 0", got)
	}
}

func TestKeywordSearcherInterface(t *testing.T) {
	var s any = &Store{}
	if _, ok := s.(rag.KeywordSearcher); !ok {
		t.Fatal("Store does not implement KeywordSearcher")
	}
}
