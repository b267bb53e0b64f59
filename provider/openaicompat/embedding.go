package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
)

// Embedding implements rag.EmbeddingProvider against the OpenAI v1
// embeddings endpoint. One request embeds a whole batch of texts.
type Embedding struct {
	apiKey  string
	model   string
	baseURL string
	dims    int
	client  *http.Client
	name    string
}

// NewEmbedding creates an OpenAI-compatible embedding provider.
//
// baseURL is the API base; the /embeddings path is appended automatically.
// dims must match the model's output dimensionality (1536 for
// text-embedding-ada-002); it is reported by Dimensions and used by callers
// to size placeholder vectors, the API itself infers it from the model.
func NewEmbedding(apiKey, model, baseURL string, dims int) *Embedding {
	return &Embedding{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		dims:    dims,
		client:  &http.Client{},
		name:    "openai",
	}
}

// Name returns "openai".
func (e *Embedding) Name() string { return e.name }

// Dimensions returns the configured embedding vector size.
func (e *Embedding) Dimensions() int { return e.dims }

// Embed sends all texts in a single request and returns one vector per
// input, in input order. The API may return data entries out of order, so
// vectors are placed by their index field.
func (e *Embedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(EmbeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, &rag.ErrLLM{Provider: e.name, Message: fmt.Sprintf("marshal embed request: %v", err)}
	}

	url := e.baseURL + "/embeddings"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &rag.ErrLLM{Provider: e.name, Message: fmt.Sprintf("create embed request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpErr(resp)
	}

	var parsed EmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &rag.ErrLLM{Provider: e.name, Message: fmt.Sprintf("decode embed response: %v", err)}
	}
	if len(parsed.Data) != len(texts) {
		return nil, &rag.ErrLLM{Provider: e.name, Message: fmt.Sprintf("embed response has %d vectors for %d inputs", len(parsed.Data), len(texts))}
	}

	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, &rag.ErrLLM{Provider: e.name, Message: fmt.Sprintf("embed response index %d out of range", d.Index)}
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// Compile-time interface check.
var _ rag.EmbeddingProvider = (*Embedding)(nil)
