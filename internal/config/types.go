package config

import "time"

// vector store backends
const (
	StoreBadger   = "badger"
	StorePgvector = "pgvector"
	StoreMemory   = "memory"
)

// model providers for generation and embeddings
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type Config struct {
	Environment    string
	Port           string
	AllowedOrigins []string
	RateLimit      string // ulule formatted, e.g. "60-M"

	LLMProvider       string
	LLMModel          string
	EmbedderProvider  string
	EmbedderModel     string
	GoogleAPIKey      string
	OpenAIKey         string
	OllamaHost        string
	LLMTimeout        time.Duration
	LLMRateLimit      float64 // requests per second
	AnswerTemperature float32
	AgentTemperature  float32

	VectorStore     string
	VectorStorePath string
	DatabaseURL     string
	RetrievalTopK   int

	DomainQA    string
	DomainStage string
	DomainProd  string

	TestProjectDir string
	TestSourceDir  string
	TestPackage    string
	TestCommand    []string
	TestTimeout    time.Duration

	AgentMaxIterations int
	AgentTimeout       time.Duration // bound on one chat turn, tool calls included

	JWTSecret     string
	SessionSecret string
	SessionTTL    time.Duration
}

// options shared by the ingester subcommands
type Flags struct {
	Path  string
	Clear bool
}
