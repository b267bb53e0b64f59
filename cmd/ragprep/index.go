package main

import (
	"context"
	"flag"
	"fmt"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
	"github.com/shaonidutta/rag-vs-fine-tuning/ingest"
	"github.com/shaonidutta/rag-vs-fine-tuning/internal/config"
)

// runIndex loads a corpus file, fills in embeddings, and saves everything to
// the configured store.
func runIndex(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	in := fs.String("in", "corpus.json", "corpus file")
	db := fs.String("db", "", "database path (overrides config)")
	fs.Parse(args)

	logger := newLogger()

	// 1. Observability
	inst, shutdown, err := initObserver(ctx, cfg)
	if err != nil {
		return fmt.Errorf("index: observer: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("observer shutdown", "error", err)
		}
	}()

	// 2. Load corpus
	corpus, err := rag.ReadCorpus(*in)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}

	// 3. Embedding provider
	emb, err := embeddingProvider(cfg, logger, inst)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}

	// 4. Embed
	ing := ingest.NewIngestor(
		ingest.WithChunking(corpus.Config),
		ingest.WithEmbedding(emb),
		ingest.WithEmbedBatchSize(cfg.Embedding.BatchSize),
		ingest.WithLogger(logger),
	)
	if err := ing.EmbedCorpus(ctx, corpus); err != nil {
		return fmt.Errorf("index: %w", err)
	}

	// 5. Save
	store, err := openStore(ctx, cfg, *db, logger)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("index: init store: %w", err)
	}
	if err := store.SaveCorpus(ctx, corpus); err != nil {
		return fmt.Errorf("index: save corpus: %w", err)
	}

	if inst != nil {
		inst.RecordCorpus(ctx, corpus)
	}
	fmt.Printf("indexed %d chunks from %d documents\n", corpus.TotalChunks(), len(corpus.ByDocument))
	return nil
}
