// Command ragprep prepares text corpora for retrieval experiments.
//
// It chunks documents into overlapping windows, embeds and indexes them into
// a vector store, answers questions over the index, and generates curated QA
// datasets for comparing retrieval pipelines against fine-tuned baselines.
//
// Usage:
//
//	ragprep chunk -in docs/ -out corpus.json [-chunk-size 800] [-overlap 200]
//	ragprep index -in corpus.json [-db rag.db]
//	ragprep query -q "What dataset was used?" [-db rag.db]
//	ragprep qa    -in docs/ -out dataset/ [-seed 42]
//	ragprep stats -in corpus.json
//
// Configuration is read from rag.toml (override the path with RAG_CONFIG)
// and RAG_* environment variables; see internal/config.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaonidutta/rag-vs-fine-tuning/internal/config"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("ragprep: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		usage()
		return
	}

	cfg := config.Load(os.Getenv("RAG_CONFIG"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "chunk":
		err = runChunk(ctx, cfg, args)
	case "index":
		err = runIndex(ctx, cfg, args)
	case "query":
		err = runQuery(ctx, cfg, args)
	case "qa":
		err = runQA(ctx, cfg, args)
	case "stats":
		err = runStats(cfg, args)
	default:
		log.Printf("unknown command %q", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: ragprep <command> [flags]

Commands:
  chunk   extract and segment documents into a corpus file
  index   embed a corpus and save it to the vector store
  query   answer a question over the indexed corpus
  qa      generate and curate a QA dataset from documents
  stats   print the quality report for a saved corpus

Run "ragprep <command> -h" for command flags.
`)
}

// newLogger builds the structured logger shared by all subcommands.
// RAG_DEBUG=1 or RAG_DEBUG=true lowers the level to debug.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if v := os.Getenv("RAG_DEBUG"); v == "true" || v == "1" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
