package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Corpus is the chunked form of a document collection. It keeps two views of
// the same chunks: ByDocument groups them per source document in emission
// order, Chunks is the flat list with documents in sorted-name order. Both
// views and the chunking configuration survive a save/load round trip.
type Corpus struct {
	Config     ChunkingConfig
	ByDocument map[string][]Chunk
	Chunks     []Chunk
}

// NewCorpus returns an empty corpus for the given configuration.
func NewCorpus(cfg ChunkingConfig) *Corpus {
	return &Corpus{
		Config:     cfg,
		ByDocument: make(map[string][]Chunk),
	}
}

// SetDocument stores the chunks of one document in the per-document view.
// Call Flatten after the last document to rebuild the flat view.
func (c *Corpus) SetDocument(document string, chunks []Chunk) {
	if c.ByDocument == nil {
		c.ByDocument = make(map[string][]Chunk)
	}
	c.ByDocument[document] = chunks
}

// Flatten rebuilds the flat chunk list from the per-document view,
// visiting documents in sorted-name order so output is deterministic.
func (c *Corpus) Flatten() {
	c.Chunks = c.Chunks[:0]
	for _, doc := range c.Documents() {
		c.Chunks = append(c.Chunks, c.ByDocument[doc]...)
	}
}

// Documents returns the document names in sorted order.
func (c *Corpus) Documents() []string {
	docs := make([]string, 0, len(c.ByDocument))
	for doc := range c.ByDocument {
		docs = append(docs, doc)
	}
	sort.Strings(docs)
	return docs
}

// TotalChunks returns the number of chunks in the flat view.
func (c *Corpus) TotalChunks() int { return len(c.Chunks) }

// --- JSON persistence ---

// corpusFile is the on-disk JSON layout.
type corpusFile struct {
	Config     corpusFileConfig   `json:"chunking_config"`
	ByDocument map[string][]Chunk `json:"chunks_by_document"`
	Chunks     []Chunk            `json:"all_chunks"`
}

type corpusFileConfig struct {
	ChunkSize   int `json:"chunk_size"`
	OverlapSize int `json:"overlap_size"`
	TotalChunks int `json:"total_chunks"`
}

func (c *Corpus) MarshalJSON() ([]byte, error) {
	return json.Marshal(corpusFile{
		Config: corpusFileConfig{
			ChunkSize:   c.Config.ChunkSize,
			OverlapSize: c.Config.OverlapSize,
			TotalChunks: len(c.Chunks),
		},
		ByDocument: c.ByDocument,
		Chunks:     c.Chunks,
	})
}

func (c *Corpus) UnmarshalJSON(data []byte) error {
	var f corpusFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	c.Config = ChunkingConfig{ChunkSize: f.Config.ChunkSize, OverlapSize: f.Config.OverlapSize}
	c.ByDocument = f.ByDocument
	if c.ByDocument == nil {
		c.ByDocument = make(map[string][]Chunk)
	}
	c.Chunks = f.Chunks
	// The flat view is authoritative for ordering; rebuild it only when the
	// file carried none.
	if len(c.Chunks) == 0 && len(c.ByDocument) > 0 {
		c.Flatten()
	}
	return nil
}

// WriteFile saves the corpus as indented JSON at path.
func (c *Corpus) WriteFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal corpus: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}
	return nil
}

// ReadCorpus loads a corpus previously saved with WriteFile.
func ReadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var c Corpus
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	return &c, nil
}
