package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"codeberg.org/qapilot/server/internal/metrics"
	"golang.org/x/time/rate"
)

var errEmptyResponse = errors.New("empty response")

// applies rate limiting, a per-call timeout and metrics to a provider generator.
// every failure, including an empty completion, is returned as a *GenerationError.
type instrumentedGenerator struct {
	next     TextGenerator
	provider Provider
	limiter  *rate.Limiter
	timeout  time.Duration
}

// wraps a provider generator; a nil limiter disables rate limiting
func Instrument(next TextGenerator, provider Provider, limiter *rate.Limiter, timeout time.Duration) TextGenerator {
	return &instrumentedGenerator{
		next:     next,
		provider: provider,
		limiter:  limiter,
		timeout:  timeout,
	}
}

func (g *instrumentedGenerator) Model() string {
	return g.next.Model()
}

func (g *instrumentedGenerator) GenerateText(ctx context.Context, req TextGenerationRequest) (*TextGenerationResponse, error) {
	model := g.next.Model()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			metrics.LLMRequestsTotal.WithLabelValues(string(g.provider), model, "rate_limited").Inc()
			return nil, &GenerationError{Provider: g.provider, Model: model, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	start := time.Now()
	resp, err := g.next.GenerateText(ctx, req)
	metrics.LLMRequestDuration.WithLabelValues(string(g.provider), model).Observe(time.Since(start).Seconds())

	if err == nil && (resp == nil || strings.TrimSpace(resp.Text) == "") {
		err = errEmptyResponse
	}

	metrics.LLMRequestsTotal.WithLabelValues(string(g.provider), model, metrics.Status(err)).Inc()

	if err != nil {
		return nil, &GenerationError{Provider: g.provider, Model: model, Err: err}
	}

	return resp, nil
}

type instrumentedEmbedder struct {
	next     Embedder
	provider Provider
	model    string
	limiter  *rate.Limiter
	timeout  time.Duration
}

// wraps a provider embedder with the same limiter and timeout policy as generation
func InstrumentEmbedder(next Embedder, provider Provider, model string, limiter *rate.Limiter, timeout time.Duration) Embedder {
	return &instrumentedEmbedder{
		next:     next,
		provider: provider,
		model:    model,
		limiter:  limiter,
		timeout:  timeout,
	}
}

func (e *instrumentedEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return embeddings[0], nil
}

func (e *instrumentedEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			metrics.EmbeddingRequestsTotal.WithLabelValues(string(e.provider), e.model, "rate_limited").Inc()
			return nil, fmt.Errorf("embedding rate limiter: %w", err)
		}
	}

	start := time.Now()
	embeddings, err := e.next.GenerateEmbeddings(ctx, texts)
	metrics.EmbeddingRequestDuration.WithLabelValues(string(e.provider), e.model).Observe(time.Since(start).Seconds())

	if err == nil && len(embeddings) != len(texts) {
		err = fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddings))
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(string(e.provider), e.model, metrics.Status(err)).Inc()

	if err != nil {
		return nil, fmt.Errorf("%s embeddings: %w", e.provider, err)
	}

	return embeddings, nil
}
