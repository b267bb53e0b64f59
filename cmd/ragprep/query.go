package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
	"github.com/shaonidutta/rag-vs-fine-tuning/internal/config"
)

// runQuery answers one question over the indexed corpus and prints the
// answer with its source chunks.
func runQuery(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	q := fs.String("q", "", "question to answer")
	db := fs.String("db", "", "database path (overrides config)")
	topK := fs.Int("top-k", cfg.Query.TopK, "number of chunks to retrieve")
	fs.Parse(args)

	if *q == "" {
		fs.Usage()
		return fmt.Errorf("query: -q is required")
	}

	logger := newLogger()

	// 1. Observability
	inst, shutdown, err := initObserver(ctx, cfg)
	if err != nil {
		return fmt.Errorf("query: observer: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("observer shutdown", "error", err)
		}
	}()

	// 2. Providers
	chat, err := chatProvider(cfg, logger, inst)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	emb, err := embeddingProvider(cfg, logger, inst)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	// 3. Store
	store, err := openStore(ctx, cfg, *db, logger)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("query: init store: %w", err)
	}

	// 4. Pipeline
	retriever := rag.NewHybridRetriever(store, emb)
	pipeline := rag.NewPipeline(retriever, chat,
		rag.WithTopK(*topK),
		rag.WithAnswerTemperature(cfg.Query.Temperature),
		rag.WithMaxAnswerTokens(cfg.Query.MaxAnswerTokens),
		rag.WithPipelineLogger(logger),
	)

	// 5. Run
	start := time.Now()
	result, err := pipeline.Query(ctx, *q)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if inst != nil {
		inst.RecordQueryDuration(ctx, time.Since(start))
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Printf("\nSources:\n")
		for _, src := range result.Sources {
			fmt.Printf("  [%.3f] %s\n", src.Score, src.ChunkID)
		}
	}
	return nil
}
