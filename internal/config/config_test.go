package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.LLM.Model != "gpt-3.5-turbo" {
		t.Errorf("expected gpt-3.5-turbo, got %s", cfg.LLM.Model)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected 1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Chunking.ChunkSize != 800 || cfg.Chunking.OverlapSize != 200 {
		t.Errorf("expected 800/200 chunking, got %+v", cfg.Chunking)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "rag.db" {
		t.Errorf("expected sqlite at rag.db, got %+v", cfg.Database)
	}
	if cfg.Query.TopK != 3 {
		t.Errorf("expected top_k 3, got %d", cfg.Query.TopK)
	}
	if cfg.RateLimit.RequestsPerMinute != 600 {
		t.Errorf("expected 600 rpm, got %d", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	os.WriteFile(path, []byte(`
[llm]
model = "gpt-4o-mini"

[chunking]
chunk_size = 400
overlap_size = 100
`), 0644)

	cfg := Load(path)
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %s", cfg.LLM.Model)
	}
	if cfg.Chunking.ChunkSize != 400 || cfg.Chunking.OverlapSize != 100 {
		t.Errorf("expected 400/100 chunking, got %+v", cfg.Chunking)
	}
	// Defaults preserved
	if cfg.Embedding.Model != "text-embedding-ada-002" {
		t.Errorf("default should be preserved, got %s", cfg.Embedding.Model)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("RAG_API_KEY", "env-key")
	t.Setenv("RAG_MODEL", "llama-3.1-70b")

	cfg := Load("/nonexistent/path.toml")
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("expected env-key, got %s", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "llama-3.1-70b" {
		t.Errorf("expected llama-3.1-70b, got %s", cfg.LLM.Model)
	}
	// Fallback: embedding gets the LLM key
	if cfg.Embedding.APIKey != "env-key" {
		t.Errorf("expected embedding fallback to env-key, got %s", cfg.Embedding.APIKey)
	}
}

func TestEmbeddingFallbacks(t *testing.T) {
	t.Setenv("RAG_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("RAG_EMBEDDING_API_KEY", "embed-key")

	cfg := Load("/nonexistent/path.toml")
	if cfg.Embedding.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("expected embedding base URL fallback, got %s", cfg.Embedding.BaseURL)
	}
	// Explicit embedding key beats the LLM fallback.
	if cfg.Embedding.APIKey != "embed-key" {
		t.Errorf("expected embed-key, got %s", cfg.Embedding.APIKey)
	}
	// Provider falls back to the LLM provider.
	if cfg.Embedding.Provider != "openai" {
		t.Errorf("expected embedding provider fallback to openai, got %s", cfg.Embedding.Provider)
	}
}
