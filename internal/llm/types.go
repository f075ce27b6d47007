package llm

import (
	"context"
	"time"
)

// represents different model providers
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

// message roles understood by every provider
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// combines text generation and embedding generation
type LLM interface {
	TextGenerator
	Embedder
}

// generates text completions
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextGenerationRequest) (*TextGenerationResponse, error)
	Model() string
}

// generates embeddings from text
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// a single chat message
type Message struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // message content
}

type TextGenerationRequest struct {
	SystemPrompt string
	Messages     []Message
	Temperature  float32
	MaxTokens    int
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

type TextGenerationResponse struct {
	Text  string
	Usage Usage
}

// holds configuration for LLM initialization
type Config struct {
	GeneratorProvider  Provider
	GeneratorModel     string
	GeneratorMaxTokens int

	EmbedderProvider Provider
	EmbedderModel    string

	GoogleAPIKey string
	OpenAIKey    string
	OllamaHost   string

	// per-call timeout and shared request rate (requests per second)
	Timeout   time.Duration
	RateLimit float64
}
