package rag

import (
	"context"
	"sync"
	"time"
)

// rateWindow tracks sliding-window request and token budgets.
// The zero value is ready to use; budgets of zero disable the check.
type rateWindow struct {
	mu sync.Mutex

	// RPM state: sliding window of request timestamps.
	rpm       int
	rpmWindow []time.Time

	// TPM state: sliding window of (timestamp, tokenCount) pairs.
	tpm       int
	tpmWindow []tpmEntry
}

type tpmEntry struct {
	at     time.Time
	tokens int
}

// RateLimitOption configures a rate-limited provider wrapper.
type RateLimitOption func(*rateWindow)

// RPM sets the maximum requests per minute.
func RPM(n int) RateLimitOption {
	return func(w *rateWindow) { w.rpm = n }
}

// TPM sets the maximum tokens per minute (input + output combined).
// Token counts are recorded from ChatResponse.Usage after each request.
// This is a soft limit. The request that exceeds the budget completes,
// but subsequent requests block until the window slides.
func TPM(n int) RateLimitOption {
	return func(w *rateWindow) { w.tpm = n }
}

// waitForBudget blocks until both RPM and TPM budgets allow a request.
// Returns ctx.Err() if the context is cancelled while waiting.
func (w *rateWindow) waitForBudget(ctx context.Context) error {
	for {
		w.mu.Lock()
		now := time.Now()
		cutoff := now.Add(-time.Minute)

		w.rpmWindow = pruneTime(w.rpmWindow, cutoff)
		w.tpmWindow = pruneTpm(w.tpmWindow, cutoff)

		rpmOK := w.rpm <= 0 || len(w.rpmWindow) < w.rpm

		tpmOK := true
		if w.tpm > 0 {
			var total int
			for _, e := range w.tpmWindow {
				total += e.tokens
			}
			tpmOK = total < w.tpm
		}

		if rpmOK && tpmOK {
			if w.rpm > 0 {
				w.rpmWindow = append(w.rpmWindow, now)
			}
			w.mu.Unlock()
			return nil
		}

		// Sleep until the oldest window entry expires, then re-check.
		var wait time.Duration
		if !rpmOK && len(w.rpmWindow) > 0 {
			wait = w.rpmWindow[0].Add(time.Minute).Sub(now)
		}
		if !tpmOK && len(w.tpmWindow) > 0 {
			if d := w.tpmWindow[0].at.Add(time.Minute).Sub(now); d > wait {
				wait = d
			}
		}
		if wait <= 0 {
			wait = 10 * time.Millisecond
		}
		w.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// recordUsage adds token counts to the TPM sliding window.
func (w *rateWindow) recordUsage(u Usage) {
	if w.tpm <= 0 {
		return
	}
	total := u.InputTokens + u.OutputTokens
	if total <= 0 {
		return
	}
	w.mu.Lock()
	w.tpmWindow = append(w.tpmWindow, tpmEntry{at: time.Now(), tokens: total})
	w.mu.Unlock()
}

// pruneTime removes entries older than cutoff from a sorted time slice.
func pruneTime(s []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(s) && s[i].Before(cutoff) {
		i++
	}
	return s[i:]
}

// pruneTpm removes entries older than cutoff from a sorted tpmEntry slice.
func pruneTpm(s []tpmEntry, cutoff time.Time) []tpmEntry {
	i := 0
	for i < len(s) && s[i].at.Before(cutoff) {
		i++
	}
	return s[i:]
}

// --- Provider wrapper ---

// rateLimitProvider wraps a Provider with proactive rate limiting.
// Requests are blocked until the rate budget allows them to proceed.
type rateLimitProvider struct {
	inner  Provider
	window rateWindow
}

// WithRateLimit wraps p with proactive rate limiting. Compose with other wrappers:
//
//	chatLLM = rag.WithRateLimit(provider, rag.RPM(60))
//	chatLLM = rag.WithRateLimit(provider, rag.RPM(60), rag.TPM(100000))
//	chatLLM = rag.WithRateLimit(rag.WithRetry(provider), rag.RPM(60))
func WithRateLimit(p Provider, opts ...RateLimitOption) Provider {
	r := &rateLimitProvider{inner: p}
	for _, opt := range opts {
		opt(&r.window)
	}
	return r
}

func (r *rateLimitProvider) Name() string { return r.inner.Name() }

func (r *rateLimitProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if err := r.window.waitForBudget(ctx); err != nil {
		return ChatResponse{}, err
	}
	resp, err := r.inner.Chat(ctx, req)
	if err == nil {
		r.window.recordUsage(resp.Usage)
	}
	return resp, err
}

// --- EmbeddingProvider wrapper ---

// rateLimitEmbedding wraps an EmbeddingProvider with proactive rate limiting.
// Only the RPM budget applies; the Embed call reports no token usage.
type rateLimitEmbedding struct {
	inner  EmbeddingProvider
	window rateWindow
}

// WithEmbeddingRateLimit wraps p with proactive request rate limiting.
// An RPM of 600 spaces batches roughly 100ms apart:
//
//	emb = rag.WithEmbeddingRateLimit(embedding, rag.RPM(600))
func WithEmbeddingRateLimit(p EmbeddingProvider, opts ...RateLimitOption) EmbeddingProvider {
	r := &rateLimitEmbedding{inner: p}
	for _, opt := range opts {
		opt(&r.window)
	}
	return r
}

func (r *rateLimitEmbedding) Name() string    { return r.inner.Name() }
func (r *rateLimitEmbedding) Dimensions() int { return r.inner.Dimensions() }

func (r *rateLimitEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.window.waitForBudget(ctx); err != nil {
		return nil, err
	}
	return r.inner.Embed(ctx, texts)
}

// compile-time checks
var (
	_ Provider          = (*rateLimitProvider)(nil)
	_ EmbeddingProvider = (*rateLimitEmbedding)(nil)
)
