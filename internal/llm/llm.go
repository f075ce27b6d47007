package llm

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/qapilot/server/internal/config"
	"golang.org/x/time/rate"
)

// combines an Embedder and a TextGenerator into a single LLM
type CompositeLLM struct {
	Embedder
	TextGenerator
}

// creates a new LLM from the application configuration
func NewLLM(ctx context.Context, cfg *config.Config) (LLM, error) {
	return NewLLMWithConfig(ctx, ConfigFromApp(cfg))
}

// creates a new LLM with explicit configuration
func NewLLMWithConfig(ctx context.Context, cfg *Config) (LLM, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	cfg.applyDefaults()

	// one limiter shared by generation and embedding calls
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), burstFor(cfg.RateLimit))

	var generator TextGenerator

	switch cfg.GeneratorProvider {
	case ProviderGemini:
		client, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:    cfg.GoogleAPIKey,
			Model:     cfg.GeneratorModel,
			MaxTokens: cfg.GeneratorMaxTokens,
		})
		if err != nil {
			return nil, err
		}
		generator = client
	case ProviderOpenAI:
		generator = NewOpenAIClient(OpenAIConfig{
			APIKey:    cfg.OpenAIKey,
			Model:     cfg.GeneratorModel,
			MaxTokens: cfg.GeneratorMaxTokens,
		})
	case ProviderOllama:
		client, err := NewOllamaClient(OllamaConfig{
			Host:      cfg.OllamaHost,
			Model:     cfg.GeneratorModel,
			MaxTokens: cfg.GeneratorMaxTokens,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		generator = client
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", cfg.GeneratorProvider)
	}

	var embedder Embedder

	switch cfg.EmbedderProvider {
	case ProviderGemini:
		client, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:         cfg.GoogleAPIKey,
			EmbeddingModel: cfg.EmbedderModel,
		})
		if err != nil {
			return nil, err
		}
		embedder = client
	case ProviderOpenAI:
		embedder = NewOpenAIClient(OpenAIConfig{
			APIKey:         cfg.OpenAIKey,
			EmbeddingModel: cfg.EmbedderModel,
		})
	case ProviderOllama:
		client, err := NewOllamaClient(OllamaConfig{
			Host:           cfg.OllamaHost,
			EmbeddingModel: cfg.EmbedderModel,
			Timeout:        cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		embedder = client
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %s", cfg.EmbedderProvider)
	}

	return &CompositeLLM{
		TextGenerator: Instrument(generator, cfg.GeneratorProvider, limiter, cfg.Timeout),
		Embedder:      InstrumentEmbedder(embedder, cfg.EmbedderProvider, cfg.EmbedderModel, limiter, cfg.Timeout),
	}, nil
}

// sends a single prompt and returns the trimmed completion text
func Complete(ctx context.Context, generator TextGenerator, prompt string, temperature float32) (string, error) {
	resp, err := generator.GenerateText(ctx, TextGenerationRequest{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.Text), nil
}

func burstFor(rps float64) int {
	if rps < 1 {
		return 1
	}

	return int(rps)
}
