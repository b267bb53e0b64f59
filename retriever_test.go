package rag

import (
	"context"
	"errors"
	"testing"
)

// fakeStore is an in-memory Store for retriever and pipeline tests.
// Keyword search is only advertised when keywordResults is non-nil.
type fakeStore struct {
	vectorResults  []ScoredChunk
	vectorErr      error
	keywordResults []ScoredChunk
	keywordErr     error
	savedCorpus    *Corpus
}

func (f *fakeStore) Init(context.Context) error { return nil }
func (f *fakeStore) Close() error               { return nil }

func (f *fakeStore) SaveCorpus(_ context.Context, c *Corpus) error {
	f.savedCorpus = c
	return nil
}

func (f *fakeStore) SearchChunks(_ context.Context, _ []float32, topK int) ([]ScoredChunk, error) {
	if f.vectorErr != nil {
		return nil, f.vectorErr
	}
	if len(f.vectorResults) > topK {
		return f.vectorResults[:topK], nil
	}
	return f.vectorResults, nil
}

// fakeKeywordStore adds the KeywordSearcher capability to fakeStore.
type fakeKeywordStore struct{ fakeStore }

func (f *fakeKeywordStore) SearchChunksKeyword(_ context.Context, _ string, topK int) ([]ScoredChunk, error) {
	if f.keywordErr != nil {
		return nil, f.keywordErr
	}
	if len(f.keywordResults) > topK {
		return f.keywordResults[:topK], nil
	}
	return f.keywordResults, nil
}

var (
	_ Store           = (*fakeStore)(nil)
	_ KeywordSearcher = (*fakeKeywordStore)(nil)
)

func scored(id, doc, text string, score float32) ScoredChunk {
	return ScoredChunk{
		Chunk: Chunk{ID: id, Document: doc, Text: text},
		Score: score,
	}
}

func TestReciprocalRankFusion(t *testing.T) {
	tests := []struct {
		name          string
		vector        []ScoredChunk
		keyword       []ScoredChunk
		keywordWeight float32
		wantFirst     string
		wantLen       int
	}{
		{
			name: "vector only",
			vector: []ScoredChunk{
				scored("a", "d", "A", 0.9),
				scored("b", "d", "B", 0.5),
			},
			keywordWeight: 0,
			wantFirst:     "a",
			wantLen:       2,
		},
		{
			name: "overlap boosts shared chunk",
			vector: []ScoredChunk{
				scored("a", "d", "A", 0.9),
				scored("b", "d", "B", 0.8),
			},
			keyword: []ScoredChunk{
				scored("b", "d", "B", 3.0),
				scored("c", "d", "C", 1.0),
			},
			keywordWeight: 0.5,
			wantFirst:     "b",
			wantLen:       3,
		},
		{
			name: "keyword ignored at zero weight",
			vector: []ScoredChunk{
				scored("a", "d", "A", 0.9),
			},
			keyword: []ScoredChunk{
				scored("z", "d", "Z", 9.0),
			},
			keywordWeight: 0,
			wantFirst:     "a",
			wantLen:       2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reciprocalRankFusion(tt.vector, tt.keyword, tt.keywordWeight)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if got[0].ChunkID != tt.wantFirst {
				t.Errorf("got[0].ChunkID = %q, want %q", got[0].ChunkID, tt.wantFirst)
			}
			for i := 1; i < len(got); i++ {
				if got[i].Score > got[i-1].Score {
					t.Errorf("results not sorted descending at %d: %v > %v", i, got[i].Score, got[i-1].Score)
				}
			}
		})
	}
}

func TestHybridRetriever_VectorOnly(t *testing.T) {
	store := &fakeStore{vectorResults: []ScoredChunk{
		scored("doc_chunk_0", "doc", "First chunk.", 0.9),
		scored("doc_chunk_1", "doc", "Second chunk.", 0.7),
	}}
	r := NewHybridRetriever(store, &stubEmbedding{})

	got, err := r.Retrieve(context.Background(), "question", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ChunkID != "doc_chunk_0" {
		t.Errorf("got[0].ChunkID = %q, want doc_chunk_0", got[0].ChunkID)
	}
	if got[0].Content != "First chunk." {
		t.Errorf("got[0].Content = %q, want chunk text", got[0].Content)
	}
	if got[0].Document != "doc" {
		t.Errorf("got[0].Document = %q, want doc", got[0].Document)
	}
}

func TestHybridRetriever_UsesKeywordSearchWhenAvailable(t *testing.T) {
	store := &fakeKeywordStore{fakeStore{
		vectorResults: []ScoredChunk{
			scored("a", "d", "A", 0.9),
		},
		keywordResults: []ScoredChunk{
			scored("b", "d", "B", 2.0),
		},
	}}
	r := NewHybridRetriever(store, &stubEmbedding{})

	got, err := r.Retrieve(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (vector + keyword merged)", len(got))
	}
}

func TestHybridRetriever_KeywordFailureDegrades(t *testing.T) {
	store := &fakeKeywordStore{fakeStore{
		vectorResults: []ScoredChunk{
			scored("a", "d", "A", 0.9),
		},
		keywordErr: errors.New("fts offline"),
	}}
	r := NewHybridRetriever(store, &stubEmbedding{})

	got, err := r.Retrieve(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("keyword failure should not fail retrieval, got %v", err)
	}
	if len(got) != 1 || got[0].ChunkID != "a" {
		t.Errorf("got %+v, want the vector result", got)
	}
}

func TestHybridRetriever_VectorErrorFails(t *testing.T) {
	store := &fakeStore{vectorErr: errors.New("db down")}
	r := NewHybridRetriever(store, &stubEmbedding{})

	if _, err := r.Retrieve(context.Background(), "question", 3); err == nil {
		t.Fatal("expected error when vector search fails, got nil")
	}
}

func TestHybridRetriever_EmbedErrorFails(t *testing.T) {
	store := &fakeStore{}
	emb := &stubEmbedding{results: []stubEmbedResult{{err: errors.New("embed down")}}}
	r := NewHybridRetriever(store, emb)

	if _, err := r.Retrieve(context.Background(), "question", 3); err == nil {
		t.Fatal("expected error when embedding fails, got nil")
	}
}

func TestHybridRetriever_MinScoreFilters(t *testing.T) {
	store := &fakeStore{vectorResults: []ScoredChunk{
		scored("a", "d", "A", 0.9),
		scored("b", "d", "B", 0.1),
	}}
	// RRF scores for ranks 0 and 1 are 1/61 and 1/62; cut between them.
	r := NewHybridRetriever(store, &stubEmbedding{}, WithMinRetrievalScore(1.0/61.5))

	got, err := r.Retrieve(context.Background(), "question", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ChunkID != "a" {
		t.Errorf("got %+v, want only chunk a", got)
	}
}

func TestHybridRetriever_TrimsToTopK(t *testing.T) {
	store := &fakeStore{vectorResults: []ScoredChunk{
		scored("a", "d", "A", 0.9),
		scored("b", "d", "B", 0.8),
		scored("c", "d", "C", 0.7),
	}}
	r := NewHybridRetriever(store, &stubEmbedding{})

	got, err := r.Retrieve(context.Background(), "question", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}
