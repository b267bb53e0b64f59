package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
	"github.com/shaonidutta/rag-vs-fine-tuning/ingest"
	"github.com/shaonidutta/rag-vs-fine-tuning/internal/config"
)

// runStats prints the quality report for a saved corpus file.
func runStats(_ config.Config, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	in := fs.String("in", "corpus.json", "corpus file")
	fs.Parse(args)

	corpus, err := rag.ReadCorpus(*in)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	report, err := ingest.AnalyzeCorpus(corpus)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	printReport(os.Stdout, report)
	return nil
}

// printReport renders a QualityReport for the terminal.
func printReport(w io.Writer, r *ingest.QualityReport) {
	fmt.Fprintf(w, "Total chunks:      %d\n", r.TotalChunks)
	fmt.Fprintf(w, "Avg chunk size:    %.1f bytes\n", r.AvgChunkSize)
	fmt.Fprintf(w, "Size range:        %d-%d (std %.1f)\n", r.MinChunkSize, r.MaxChunkSize, r.SizeStd)
	fmt.Fprintf(w, "Very short chunks: %d\n", r.VeryShortChunks)
	fmt.Fprintf(w, "Very long chunks:  %d\n", r.VeryLongChunks)
	fmt.Fprintf(w, "Incomplete chunks: %d\n", r.IncompleteChunks)

	if len(r.ChunksPerDocument) > 0 {
		docs := make([]string, 0, len(r.ChunksPerDocument))
		for doc := range r.ChunksPerDocument {
			docs = append(docs, doc)
		}
		sort.Strings(docs)
		fmt.Fprintf(w, "\nChunks per document:\n")
		for _, doc := range docs {
			fmt.Fprintf(w, "  %-40s %d\n", doc, r.ChunksPerDocument[doc])
		}
	}

	if len(r.QualityIssues) > 0 {
		fmt.Fprintf(w, "\nQuality issues:\n")
		for _, issue := range r.QualityIssues {
			fmt.Fprintf(w, "  - %s\n", issue)
		}
	}
}
