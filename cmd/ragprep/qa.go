package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shaonidutta/rag-vs-fine-tuning/dataset"
	"github.com/shaonidutta/rag-vs-fine-tuning/ingest"
	"github.com/shaonidutta/rag-vs-fine-tuning/internal/config"
)

// runQA generates QA pairs from the documents under -in, curates them into
// train/validation/test splits, and writes the dataset files plus a markdown
// quality report into -out.
func runQA(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("qa", flag.ExitOnError)
	in := fs.String("in", "", "directory of source documents")
	out := fs.String("out", "dataset", "output directory")
	seed := fs.Int64("seed", cfg.Dataset.Seed, "split shuffle seed")
	fs.Parse(args)

	if *in == "" {
		fs.Usage()
		return fmt.Errorf("qa: -in is required")
	}

	logger := newLogger()

	// 1. Observability
	inst, shutdown, err := initObserver(ctx, cfg)
	if err != nil {
		return fmt.Errorf("qa: observer: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("observer shutdown", "error", err)
		}
	}()

	// 2. Chat provider
	chat, err := chatProvider(cfg, logger, inst)
	if err != nil {
		return fmt.Errorf("qa: %w", err)
	}

	// 3. Extract and clean documents
	texts, err := ingest.ExtractDir(*in)
	if err != nil {
		return fmt.Errorf("qa: %w", err)
	}
	for name, text := range texts {
		texts[name] = ingest.CleanText(text)
	}

	// 4. Generate
	gen := dataset.NewGenerator(chat, dataset.WithGeneratorLogger(logger))
	ds, err := gen.Generate(ctx, texts)
	if err != nil {
		return fmt.Errorf("qa: %w", err)
	}
	if inst != nil {
		for _, p := range ds.Pairs {
			inst.RecordQAGenerated(ctx, p.Document, string(p.Type), 1)
		}
	}

	// 5. Curate and split
	cur := dataset.NewCurator(dataset.WithSeed(*seed), dataset.WithCuratorLogger(logger))
	curated := cur.Curate(ds)

	// 6. Write outputs
	if err := os.MkdirAll(*out, 0755); err != nil {
		return fmt.Errorf("qa: %w", err)
	}
	if err := ds.WriteFile(filepath.Join(*out, "qa_dataset.json")); err != nil {
		return fmt.Errorf("qa: %w", err)
	}
	if err := curated.Splits.WriteFiles(*out); err != nil {
		return fmt.Errorf("qa: %w", err)
	}
	report := dataset.Report(curated)
	if err := os.WriteFile(filepath.Join(*out, "quality_report.md"), []byte(report), 0644); err != nil {
		return fmt.Errorf("qa: write report: %w", err)
	}

	fmt.Printf("generated %d pairs, kept %d (train %d / validation %d / test %d)\n",
		len(ds.Pairs), curated.Metadata.TotalPairs,
		len(curated.Splits.Train), len(curated.Splits.Validation), len(curated.Splits.Test))
	fmt.Printf("dataset written to %s\n", *out)
	return nil
}
