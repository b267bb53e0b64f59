package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
	"github.com/shaonidutta/rag-vs-fine-tuning/ingest"
	"github.com/shaonidutta/rag-vs-fine-tuning/internal/config"
)

// runChunk extracts, cleans, and segments every document under -in, writes
// the corpus JSON to -out, and prints a quality report.
func runChunk(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("chunk", flag.ExitOnError)
	in := fs.String("in", "", "directory of source documents")
	out := fs.String("out", "corpus.json", "corpus output file")
	chunkSize := fs.Int("chunk-size", cfg.Chunking.ChunkSize, "chunk size in bytes")
	overlap := fs.Int("overlap", cfg.Chunking.OverlapSize, "overlap size in bytes")
	fs.Parse(args)

	if *in == "" {
		fs.Usage()
		return fmt.Errorf("chunk: -in is required")
	}

	logger := newLogger()

	// 1. Extract, clean, segment
	chunking := rag.ChunkingConfig{ChunkSize: *chunkSize, OverlapSize: *overlap}
	ing := ingest.NewIngestor(ingest.WithChunking(chunking), ingest.WithLogger(logger))
	corpus, err := ing.RunDir(ctx, *in)
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}

	// 2. Persist
	if err := corpus.WriteFile(*out); err != nil {
		return fmt.Errorf("chunk: %w", err)
	}

	// 3. Report
	report, err := ingest.AnalyzeCorpus(corpus)
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}
	printReport(os.Stdout, report)
	fmt.Printf("\ncorpus written to %s\n", *out)
	return nil
}
