package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	rag "github.com/shaonidutta/rag-vs-fine-tuning"
	"github.com/shaonidutta/rag-vs-fine-tuning/internal/config"
	"github.com/shaonidutta/rag-vs-fine-tuning/observer"
	"github.com/shaonidutta/rag-vs-fine-tuning/provider/resolve"
	"github.com/shaonidutta/rag-vs-fine-tuning/store/chromem"
	"github.com/shaonidutta/rag-vs-fine-tuning/store/postgres"
	"github.com/shaonidutta/rag-vs-fine-tuning/store/sqlite"
)

// initObserver sets up OTEL instrumentation when [observer] is enabled in
// config. Returns nil instruments and a no-op shutdown when disabled, so
// callers can defer the shutdown unconditionally.
func initObserver(ctx context.Context, cfg config.Config) (*observer.Instruments, func(context.Context) error, error) {
	if !cfg.Observer.Enabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	pricing := make(map[string]observer.ModelPricing, len(cfg.Observer.Pricing))
	for model, p := range cfg.Observer.Pricing {
		pricing[model] = observer.ModelPricing{InputPerMillion: p.Input, OutputPerMillion: p.Output}
	}
	return observer.Init(ctx, pricing)
}

// rateLimitOpts translates the [ratelimit] section into wrapper options.
func rateLimitOpts(cfg config.Config) []rag.RateLimitOption {
	var opts []rag.RateLimitOption
	if cfg.RateLimit.RequestsPerMinute > 0 {
		opts = append(opts, rag.RPM(cfg.RateLimit.RequestsPerMinute))
	}
	if cfg.RateLimit.TokensPerMinute > 0 {
		opts = append(opts, rag.TPM(cfg.RateLimit.TokensPerMinute))
	}
	return opts
}

// chatProvider builds the chat LLM with the full wrapper stack:
// observe(retry(ratelimit(base))). Retry sits outside the rate limiter so
// every attempt waits for budget; the observer wraps the whole logical call.
func chatProvider(cfg config.Config, logger *slog.Logger, inst *observer.Instruments) (rag.Provider, error) {
	p, err := resolve.Provider(resolve.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	if opts := rateLimitOpts(cfg); len(opts) > 0 {
		p = rag.WithRateLimit(p, opts...)
	}
	p = rag.WithRetry(p, rag.RetryLogger(logger))
	if inst != nil {
		p = observer.WrapProvider(p, cfg.LLM.Model, inst)
	}
	return p, nil
}

// embeddingProvider builds the embedding client with the same wrapper stack.
func embeddingProvider(cfg config.Config, logger *slog.Logger, inst *observer.Instruments) (rag.EmbeddingProvider, error) {
	e, err := resolve.EmbeddingProvider(resolve.EmbeddingConfig{
		Provider:   cfg.Embedding.Provider,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, err
	}
	if opts := rateLimitOpts(cfg); len(opts) > 0 {
		e = rag.WithEmbeddingRateLimit(e, opts...)
	}
	e = rag.WithEmbeddingRetry(e, rag.RetryLogger(logger))
	if inst != nil {
		e = observer.WrapEmbedding(e, cfg.Embedding.Model, inst)
	}
	return e, nil
}

// openStore opens the configured persistence backend. A non-empty dbPath
// overrides the configured path for the file-backed drivers.
func openStore(ctx context.Context, cfg config.Config, dbPath string, logger *slog.Logger) (rag.Store, error) {
	path := cfg.Database.Path
	if dbPath != "" {
		path = dbPath
	}

	switch cfg.Database.Driver {
	case "sqlite", "":
		return sqlite.New(path, sqlite.WithLogger(logger)), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("postgres pool: %w", err)
		}
		return postgres.New(pool, postgres.WithEmbeddingDimension(cfg.Embedding.Dimensions)), nil
	case "chromem":
		return chromem.NewPersistent(path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
