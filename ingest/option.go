package ingest

import (
	"context"
	"log/slog"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
)

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithChunking sets the chunk and overlap sizes used for segmentation.
func WithChunking(cfg rag.ChunkingConfig) Option {
	return func(ing *Ingestor) { ing.cfg = cfg }
}

// WithStore sets the store the corpus is saved to after segmentation.
func WithStore(s rag.Store) Option {
	return func(ing *Ingestor) { ing.store = s }
}

// WithEmbedding sets the provider used to embed chunks.
func WithEmbedding(e rag.EmbeddingProvider) Option {
	return func(ing *Ingestor) { ing.embedding = e }
}

// WithEmbedBatchSize sets the number of chunks per Embed call (default 100).
func WithEmbedBatchSize(n int) Option {
	return func(ing *Ingestor) {
		if n > 0 {
			ing.batchSize = n
		}
	}
}

// WithCleaning toggles CleanText before segmentation (default on). Disable
// it when chunk positions must refer to the input text exactly as given.
func WithCleaning(enabled bool) Option {
	return func(ing *Ingestor) { ing.clean = enabled }
}

// WithWorkers caps concurrent document segmentation (default NumCPU).
func WithWorkers(n int) Option {
	return func(ing *Ingestor) {
		if n > 0 {
			ing.workers = n
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(ing *Ingestor) {
		if l != nil {
			ing.logger = l
		}
	}
}

var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }
