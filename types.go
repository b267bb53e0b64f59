package rag

import "fmt"

// --- Chunking configuration ---

// ChunkingConfig controls how document text is segmented into chunks.
// ChunkSize is the target window width in bytes. OverlapSize is how many
// bytes each window re-covers from the previous chunk's tail, so content
// that straddles a cut survives intact in at least one chunk.
type ChunkingConfig struct {
	ChunkSize   int `json:"chunk_size" toml:"chunk_size"`
	OverlapSize int `json:"overlap_size" toml:"overlap_size"`
}

// DefaultChunkingConfig returns the standard 800-byte window with a
// 200-byte overlap.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{ChunkSize: 800, OverlapSize: 200}
}

// Validate checks that 0 < OverlapSize < ChunkSize.
func (c ChunkingConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.OverlapSize <= 0 {
		return fmt.Errorf("overlap_size must be positive, got %d", c.OverlapSize)
	}
	if c.OverlapSize >= c.ChunkSize {
		return fmt.Errorf("overlap_size %d must be smaller than chunk_size %d", c.OverlapSize, c.ChunkSize)
	}
	return nil
}

// --- Chunk ---

// Chunk is one segment of a source document.
//
// ID has the form "<document>_chunk_<index>" where <index> is zero-based and
// dense per document. StartPos and EndPos are the half-open byte interval
// [StartPos, EndPos) of the window in the original text, before whitespace
// trimming. Text is the trimmed window content and Size its byte length.
// Embedding is filled by the embedding stage and never serialized with the
// chunk.
type Chunk struct {
	ID        string    `json:"chunk_id"`
	Document  string    `json:"document"`
	Text      string    `json:"text"`
	StartPos  int       `json:"start_pos"`
	EndPos    int       `json:"end_pos"`
	Size      int       `json:"size"`
	Embedding []float32 `json:"-"`
}

// ChunkID builds the canonical chunk identifier for a document and index.
func ChunkID(document string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", document, index)
}

// --- LLM protocol types ---

type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// GenerationParams are optional per-request sampling parameters.
// Nil fields leave the provider default in place.
type GenerationParams struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

type ChatRequest struct {
	Messages         []ChatMessage     `json:"messages"`
	GenerationParams *GenerationParams `json:"generation_params,omitempty"`
}

type ChatResponse struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// --- ChatMessage constructors ---

func UserMessage(text string) ChatMessage {
	return ChatMessage{Role: "user", Content: text}
}

func SystemMessage(text string) ChatMessage {
	return ChatMessage{Role: "system", Content: text}
}

func AssistantMessage(text string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: text}
}

// --- GenerationParams helpers ---

// Float64 returns a pointer to v, for GenerationParams literals.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v, for GenerationParams literals.
func Int(v int) *int { return &v }
