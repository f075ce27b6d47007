package llm

import (
	"time"

	"codeberg.org/qapilot/server/internal/config"
)

const (
	defaultGeminiModel          = "gemini-2.0-flash"
	defaultGeminiEmbeddingModel = "text-embedding-004"
	defaultOpenAIModel          = "gpt-4o-mini"
	defaultOpenAIEmbeddingModel = "text-embedding-3-small"
	defaultOllamaModel          = "llama3.1"
	defaultOllamaEmbeddingModel = "nomic-embed-text"

	defaultMaxTokens = 4096
	defaultTimeout   = 60 * time.Second
	defaultRateLimit = 2.0
)

// derives the LLM configuration from the application configuration
func ConfigFromApp(cfg *config.Config) *Config {
	c := &Config{
		GeneratorProvider:  Provider(cfg.LLMProvider),
		GeneratorModel:     cfg.LLMModel,
		GeneratorMaxTokens: defaultMaxTokens,
		EmbedderProvider:   Provider(cfg.EmbedderProvider),
		EmbedderModel:      cfg.EmbedderModel,
		GoogleAPIKey:       cfg.GoogleAPIKey,
		OpenAIKey:          cfg.OpenAIKey,
		OllamaHost:         cfg.OllamaHost,
		Timeout:            cfg.LLMTimeout,
		RateLimit:          cfg.LLMRateLimit,
	}

	c.applyDefaults()

	return c
}

func (c *Config) applyDefaults() {
	if c.GeneratorModel == "" {
		c.GeneratorModel = defaultGenerationModel(c.GeneratorProvider)
	}

	if c.EmbedderModel == "" {
		c.EmbedderModel = defaultEmbeddingModel(c.EmbedderProvider)
	}

	if c.GeneratorMaxTokens <= 0 {
		c.GeneratorMaxTokens = defaultMaxTokens
	}

	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	if c.RateLimit <= 0 {
		c.RateLimit = defaultRateLimit
	}
}

func defaultGenerationModel(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return defaultOpenAIModel
	case ProviderOllama:
		return defaultOllamaModel
	default:
		return defaultGeminiModel
	}
}

func defaultEmbeddingModel(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return defaultOpenAIEmbeddingModel
	case ProviderOllama:
		return defaultOllamaEmbeddingModel
	default:
		return defaultGeminiEmbeddingModel
	}
}
