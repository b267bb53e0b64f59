// Package config loads tool configuration in three layers: built-in
// defaults, an optional TOML file, and RAG_* environment variables, each
// layer overriding the previous one.
package config

import (
	"os"

	"github.com/BurntSushi/toml"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
)

type Config struct {
	LLM       LLMConfig          `toml:"llm"`
	Embedding EmbeddingConfig    `toml:"embedding"`
	Chunking  rag.ChunkingConfig `toml:"chunking"`
	Database  DatabaseConfig     `toml:"database"`
	Query     QueryConfig        `toml:"query"`
	Dataset   DatasetConfig      `toml:"dataset"`
	RateLimit RateLimitConfig    `toml:"ratelimit"`
	Observer  ObserverConfig     `toml:"observer"`
}

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type EmbeddingConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
	BatchSize  int    `toml:"batch_size"`
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
}

type DatabaseConfig struct {
	// Driver selects the store: "sqlite", "postgres", or "chromem".
	Driver      string `toml:"driver"`
	Path        string `toml:"path"`
	PostgresURL string `toml:"postgres_url"`
}

type QueryConfig struct {
	TopK            int     `toml:"top_k"`
	Temperature     float64 `toml:"temperature"`
	MaxAnswerTokens int     `toml:"max_answer_tokens"`
}

type DatasetConfig struct {
	Seed int64 `toml:"seed"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `toml:"requests_per_minute"`
	TokensPerMinute   int `toml:"tokens_per_minute"`
}

type ObserverConfig struct {
	Enabled bool                       `toml:"enabled"`
	Pricing map[string]ObserverPricing `toml:"pricing"`
}

type ObserverPricing struct {
	Input  float64 `toml:"input"`
	Output float64 `toml:"output"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		LLM:       LLMConfig{Provider: "openai", Model: "gpt-3.5-turbo", BaseURL: "https://api.openai.com/v1"},
		Embedding: EmbeddingConfig{Model: "text-embedding-ada-002", Dimensions: 1536, BatchSize: 100},
		Chunking:  rag.DefaultChunkingConfig(),
		Database:  DatabaseConfig{Driver: "sqlite", Path: "rag.db"},
		Query:     QueryConfig{TopK: 3, Temperature: 0.1, MaxAnswerTokens: 500},
		Dataset:   DatasetConfig{Seed: 42},
		RateLimit: RateLimitConfig{RequestsPerMinute: 600},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "rag.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	// Env overrides
	if v := os.Getenv("RAG_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("RAG_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("RAG_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("RAG_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("RAG_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("RAG_POSTGRES_URL"); v != "" {
		cfg.Database.PostgresURL = v
	}
	if os.Getenv("RAG_OBSERVER_ENABLED") == "true" || os.Getenv("RAG_OBSERVER_ENABLED") == "1" {
		cfg.Observer.Enabled = true
	}

	// Fallbacks
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = cfg.LLM.Provider
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = cfg.LLM.APIKey
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = cfg.LLM.BaseURL
	}

	return cfg
}
