package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// capturingProvider records the last request and returns a fixed answer.
type capturingProvider struct {
	lastReq ChatRequest
	content string
	err     error
}

func (c *capturingProvider) Name() string { return "capture" }

func (c *capturingProvider) Chat(_ context.Context, req ChatRequest) (ChatResponse, error) {
	c.lastReq = req
	return ChatResponse{Content: c.content}, c.err
}

// fixedRetriever returns the same results for every query.
type fixedRetriever struct {
	results []RetrievalResult
	err     error
}

func (f *fixedRetriever) Retrieve(_ context.Context, _ string, topK int) ([]RetrievalResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > topK {
		return f.results[:topK], nil
	}
	return f.results, nil
}

func TestPipelineQuery_BuildsPrompt(t *testing.T) {
	retriever := &fixedRetriever{results: []RetrievalResult{
		{Content: "Cats sleep a lot.", ChunkID: "cats_chunk_0", Document: "cats"},
		{Content: "Dogs bark.", ChunkID: "dogs_chunk_0", Document: "dogs"},
	}}
	provider := &capturingProvider{content: "  Because they are cats.  "}
	p := NewPipeline(retriever, provider)

	result, err := p.Query(context.Background(), "Why do cats sleep?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if len(provider.lastReq.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(provider.lastReq.Messages))
	}
	prompt := provider.lastReq.Messages[0].Content
	if !strings.HasPrefix(prompt, "Answer the question based on the provided context.") {
		t.Errorf("prompt missing instruction header:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Cats sleep a lot.\n---\nDogs bark.") {
		t.Errorf("prompt missing separator-joined context:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Question: Why do cats sleep?") {
		t.Errorf("prompt missing question:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, "Answer:") {
		t.Errorf("prompt should end with answer cue:\n%s", prompt)
	}

	if result.Answer != "Because they are cats." {
		t.Errorf("Answer = %q, want trimmed response", result.Answer)
	}
	if result.Question != "Why do cats sleep?" {
		t.Errorf("Question = %q", result.Question)
	}
	if len(result.Sources) != 2 {
		t.Errorf("got %d sources, want 2", len(result.Sources))
	}
}

func TestPipelineQuery_GenerationParams(t *testing.T) {
	retriever := &fixedRetriever{}
	provider := &capturingProvider{content: "ok"}
	p := NewPipeline(retriever, provider)

	if _, err := p.Query(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}
	gp := provider.lastReq.GenerationParams
	if gp == nil {
		t.Fatal("GenerationParams not set")
	}
	if gp.Temperature == nil || *gp.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want 0.1", gp.Temperature)
	}
	if gp.MaxTokens == nil || *gp.MaxTokens != 500 {
		t.Errorf("MaxTokens = %v, want 500", gp.MaxTokens)
	}
}

func TestPipelineQuery_Options(t *testing.T) {
	retriever := &fixedRetriever{results: []RetrievalResult{
		{Content: "a"}, {Content: "b"}, {Content: "c"}, {Content: "d"}, {Content: "e"},
	}}
	provider := &capturingProvider{content: "ok"}
	p := NewPipeline(retriever, provider,
		WithTopK(5),
		WithAnswerTemperature(0.7),
		WithMaxAnswerTokens(128),
	)

	result, err := p.Query(context.Background(), "q")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Sources) != 5 {
		t.Errorf("got %d sources, want 5 with WithTopK(5)", len(result.Sources))
	}
	gp := provider.lastReq.GenerationParams
	if *gp.Temperature != 0.7 || *gp.MaxTokens != 128 {
		t.Errorf("params = %v/%v, want 0.7/128", *gp.Temperature, *gp.MaxTokens)
	}
}

func TestPipelineQuery_EmptyRetrievalStillAnswers(t *testing.T) {
	retriever := &fixedRetriever{}
	provider := &capturingProvider{content: "general answer"}
	p := NewPipeline(retriever, provider)

	result, err := p.Query(context.Background(), "q")
	if err != nil {
		t.Fatalf("empty retrieval should not error, got %v", err)
	}
	if result.Answer != "general answer" {
		t.Errorf("Answer = %q", result.Answer)
	}
	if len(result.Sources) != 0 {
		t.Errorf("Sources = %v, want empty", result.Sources)
	}
}

func TestPipelineQuery_RetrieveErrorFails(t *testing.T) {
	retriever := &fixedRetriever{err: errors.New("store gone")}
	p := NewPipeline(retriever, &capturingProvider{})

	if _, err := p.Query(context.Background(), "q"); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestPipelineQuery_ChatErrorFails(t *testing.T) {
	retriever := &fixedRetriever{}
	provider := &capturingProvider{err: errors.New("llm down")}
	p := NewPipeline(retriever, provider)

	if _, err := p.Query(context.Background(), "q"); err == nil {
		t.Fatal("expected error, got nil")
	}
}
