package openaicompat

import (
	rag "github.com/shaonidutta/rag-vs-fine-tuning"
)

// BuildBody converts chat messages and a model name into an OpenAI-format
// ChatRequest. System messages stay in the messages array as role:"system".
// Options configure generation parameters (temperature, top_p, max_tokens).
func BuildBody(messages []rag.ChatMessage, model string, opts ...Option) ChatRequest {
	msgs := make([]Message, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, Message{Role: m.Role, Content: m.Content})
	}

	req := ChatRequest{
		Model:    model,
		Messages: msgs,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}
