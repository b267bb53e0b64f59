package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// answerPrompt is the template for grounded question answering. The first
// slot is the context block, the second the user question.
const answerPrompt = `Answer the question based on the provided context.

Context:
%s

Question: %s

Answer:`

// QueryResult is the outcome of one question over an indexed corpus.
type QueryResult struct {
	Question string            `json:"question"`
	Answer   string            `json:"answer"`
	Sources  []RetrievalResult `json:"source_chunks"`
}

// Pipeline answers questions over an indexed corpus: retrieve the most
// relevant chunks, join them into a context block, and ask the chat
// provider for an answer grounded in that context.
type Pipeline struct {
	retriever   Retriever
	provider    Provider
	topK        int
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithTopK sets how many chunks are retrieved per question (default: 3).
func WithTopK(k int) PipelineOption {
	return func(p *Pipeline) { p.topK = k }
}

// WithAnswerTemperature sets the sampling temperature for answer generation
// (default: 0.1, biased toward faithful extraction over creativity).
func WithAnswerTemperature(t float64) PipelineOption {
	return func(p *Pipeline) { p.temperature = t }
}

// WithMaxAnswerTokens caps the answer length in tokens (default: 500).
func WithMaxAnswerTokens(n int) PipelineOption {
	return func(p *Pipeline) { p.maxTokens = n }
}

// WithPipelineLogger sets the structured logger. Default is a no-op logger.
func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a query pipeline over the given retriever and provider.
func NewPipeline(retriever Retriever, provider Provider, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		retriever:   retriever,
		provider:    provider,
		topK:        3,
		temperature: 0.1,
		maxTokens:   500,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = nopLogger
	}
	return p
}

// Query retrieves context for the question and generates a grounded answer.
// An empty retrieval set is not an error; the provider is asked with an
// empty context block and answers from the question alone.
func (p *Pipeline) Query(ctx context.Context, question string) (QueryResult, error) {
	results, err := p.retriever.Retrieve(ctx, question, p.topK)
	if err != nil {
		return QueryResult{}, fmt.Errorf("retrieve: %w", err)
	}
	if len(results) == 0 {
		p.logger.Warn("no chunks retrieved for question", "question", question)
	}

	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Content
	}
	prompt := fmt.Sprintf(answerPrompt, strings.Join(texts, "\n---\n"), question)

	req := ChatRequest{
		Messages: []ChatMessage{UserMessage(prompt)},
		GenerationParams: &GenerationParams{
			Temperature: Float64(p.temperature),
			MaxTokens:   Int(p.maxTokens),
		},
	}
	resp, err := p.provider.Chat(ctx, req)
	if err != nil {
		return QueryResult{}, fmt.Errorf("generate answer: %w", err)
	}

	p.logger.Debug("query answered",
		"question", question,
		"chunks_used", len(results),
		"answer_len", len(resp.Content))

	return QueryResult{
		Question: question,
		Answer:   strings.TrimSpace(resp.Content),
		Sources:  results,
	}, nil
}

// nopLogger is a logger that discards all output. Used when WithLogger is not set.
var nopLogger = slog.New(discardHandler{})

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
