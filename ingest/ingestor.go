package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
)

// Ingestor runs the corpus preparation flow end to end: clean, segment,
// embed, save. Each stage past segmentation is optional; without an
// embedding provider Run leaves embeddings empty, without a store the corpus
// stays in memory only.
type Ingestor struct {
	cfg       rag.ChunkingConfig
	store     rag.Store
	embedding rag.EmbeddingProvider
	batchSize int
	clean     bool
	workers   int
	logger    *slog.Logger
}

// NewIngestor creates an Ingestor with the default chunking configuration.
func NewIngestor(opts ...Option) *Ingestor {
	ing := &Ingestor{
		cfg:       rag.DefaultChunkingConfig(),
		batchSize: 100,
		clean:     true,
		workers:   runtime.NumCPU(),
		logger:    nopLogger,
	}
	for _, o := range opts {
		o(ing)
	}
	return ing
}

// Run builds a corpus from document texts keyed by document name. Documents
// are segmented concurrently; results are deterministic regardless of
// scheduling because each document's chunks depend only on its own text and
// the flat view is ordered by document name.
func (ing *Ingestor) Run(ctx context.Context, texts map[string]string) (*rag.Corpus, error) {
	if err := ing.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("chunking config: %w", err)
	}

	seg := NewSegmenter(WithConfig(ing.cfg))
	corpus := rag.NewCorpus(ing.cfg)

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.workers)
	for doc, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if ing.clean {
				text = CleanText(text)
			}
			chunks := seg.Segment(text, doc)
			mu.Lock()
			corpus.SetDocument(doc, chunks)
			mu.Unlock()
			ing.logger.Debug("segmented document", "document", doc, "chunks", len(chunks))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	corpus.Flatten()
	ing.logger.Info("corpus built", "documents", len(corpus.ByDocument), "chunks", corpus.TotalChunks())

	if ing.embedding != nil {
		if err := ing.EmbedCorpus(ctx, corpus); err != nil {
			return nil, fmt.Errorf("embed corpus: %w", err)
		}
	}
	if ing.store != nil {
		if err := ing.store.SaveCorpus(ctx, corpus); err != nil {
			return nil, fmt.Errorf("save corpus: %w", err)
		}
	}
	return corpus, nil
}

// RunDir extracts every supported file under dir and runs the flow on the
// extracted texts.
func (ing *Ingestor) RunDir(ctx context.Context, dir string) (*rag.Corpus, error) {
	texts, err := ExtractDir(dir)
	if err != nil {
		return nil, err
	}
	return ing.Run(ctx, texts)
}

// EmbedCorpus fills in chunk embeddings over the flat view in batches. A
// failed batch is logged and its chunks get zero vectors so one bad batch
// cannot sink a long run; context cancellation still aborts. Both corpus
// views see the embeddings.
func (ing *Ingestor) EmbedCorpus(ctx context.Context, corpus *rag.Corpus) error {
	if ing.embedding == nil {
		return fmt.Errorf("no embedding provider configured")
	}
	if len(corpus.Chunks) == 0 {
		corpus.Flatten()
	}
	chunks := corpus.Chunks
	if len(chunks) == 0 {
		return nil
	}

	dims := ing.embedding.Dimensions()
	for start := 0; start < len(chunks); start += ing.batchSize {
		end := min(start+ing.batchSize, len(chunks))
		texts := make([]string, end-start)
		for j := range texts {
			texts[j] = chunks[start+j].Text
		}
		vecs, err := ing.embedding.Embed(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ing.logger.Warn("embedding batch failed, storing zero vectors",
				"from", start, "to", end, "error", err)
			vecs = make([][]float32, end-start)
			for j := range vecs {
				vecs[j] = make([]float32, dims)
			}
		}
		for j := 0; j < end-start && j < len(vecs); j++ {
			chunks[start+j].Embedding = vecs[j]
		}
		ing.logger.Debug("embedded batch", "from", start, "to", end)
	}

	// The flat view holds copies; mirror the vectors into the per-document
	// view. Within a document both views share chunk order.
	next := make(map[string]int, len(corpus.ByDocument))
	for _, c := range chunks {
		docChunks := corpus.ByDocument[c.Document]
		if i := next[c.Document]; i < len(docChunks) {
			docChunks[i].Embedding = c.Embedding
			next[c.Document] = i + 1
		}
	}
	return nil
}
