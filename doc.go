// Package rag prepares document corpora for retrieval-augmented generation
// and answers questions over them.
//
// It provides modular, interface-driven building blocks: document extraction
// and cleaning, offset-faithful text chunking with quality analysis,
// embedding providers, vector storage backends, hybrid retrieval, and QA
// dataset generation for fine-tuning comparisons.
//
// # Quick Start
//
// Chunk a document collection and answer a question over it:
//
//	ing := ingest.NewIngestor(
//		ingest.WithChunking(rag.DefaultChunkingConfig()),
//		ingest.WithEmbedding(embedding),
//		ingest.WithStore(store),
//	)
//
//	corpus, err := ing.Run(ctx, map[string]string{"handbook": text})
//
//	retriever := rag.NewHybridRetriever(store, embedding)
//	pipeline := rag.NewPipeline(retriever, provider)
//	result, err := pipeline.Query(ctx, "What does the handbook say about leave?")
//
// # Core Interfaces
//
// The root package defines the contracts that all components implement:
//
//   - [Provider] — LLM backend for answer and QA generation
//   - [EmbeddingProvider] — text-to-vector embedding
//   - [Store] — chunk persistence with vector search
//   - [Retriever] — ranked corpus search
//
// # Included Implementations
//
// Providers: provider/gemini (Google Gemini), provider/openaicompat (OpenAI-compatible
// chat and embedding APIs), provider/resolve (name-based construction).
// Storage: store/sqlite (local, zero CGO), store/postgres (pgvector), store/chromem (embedded).
// Ingestion: the ingest package (extractors, cleaner, segmenter, quality analysis).
// Datasets: the dataset package (QA generation, curation, train/val/test splits).
//
// See the cmd/ragprep directory for the command-line workflow.
package rag
