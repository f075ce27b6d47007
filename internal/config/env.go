package config

import (
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultMaxIterations = 5
	minMaxIterations     = 3
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	return Load()
}

// builds the configuration from the current process environment
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		RateLimit:   getEnv("RATE_LIMIT", "60-M"),

		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		LLMModel:          os.Getenv("LLM_MODEL"),
		EmbedderProvider:  strings.ToLower(getEnv("EMBEDDER_PROVIDER", ProviderGemini)),
		EmbedderModel:     os.Getenv("EMBEDDER_MODEL"),
		GoogleAPIKey:      os.Getenv("GOOGLE_API_KEY"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		OllamaHost:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
		LLMTimeout:        getDuration("LLM_TIMEOUT", 60*time.Second),
		LLMRateLimit:      getFloat("LLM_RATE_LIMIT", 2),
		AnswerTemperature: float32(getFloat("ANSWER_TEMPERATURE", 0.7)),
		AgentTemperature:  float32(getFloat("AGENT_TEMPERATURE", 0.5)),

		VectorStore:     strings.ToLower(getEnv("VECTOR_STORE", StoreBadger)),
		VectorStorePath: getEnv("VECTOR_STORE_PATH", "./vector_db"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RetrievalTopK:   getInt("RETRIEVAL_TOP_K", 3),

		DomainQA:    getEnv("DOMAIN_QA", "my.qa.charitableimpact.com"),
		DomainStage: getEnv("DOMAIN_STAGE", "my.stg.charitableimpact.com"),
		DomainProd:  getEnv("DOMAIN_PROD", "my.charitableimpact.com"),

		TestProjectDir: getEnv("TEST_PROJECT_DIR", "."),
		TestSourceDir:  getEnv("TEST_SOURCE_DIR", "src/test/java/com/example/generated_tests"),
		TestPackage:    getEnv("TEST_PACKAGE", "com.example.generated_tests"),
		TestCommand:    strings.Fields(getEnv("TEST_COMMAND", "mvn test")),
		TestTimeout:    getDuration("TEST_TIMEOUT", 5*time.Minute),

		AgentMaxIterations: clampIterations(getInt("AGENT_MAX_ITERATIONS", defaultMaxIterations)),
		AgentTimeout:       getDuration("AGENT_TIMEOUT", 10*time.Minute),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    getDuration("SESSION_TTL", 24*time.Hour),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// checks that credentials and paths required by the selected backends are present
func (c *Config) Validate() error {
	providers := []string{ProviderGemini, ProviderOpenAI, ProviderOllama}

	if !slices.Contains(providers, c.LLMProvider) {
		return &ConfigurationError{Key: "LLM_PROVIDER", Reason: "unsupported provider " + strconv.Quote(c.LLMProvider)}
	}

	if !slices.Contains(providers, c.EmbedderProvider) {
		return &ConfigurationError{Key: "EMBEDDER_PROVIDER", Reason: "unsupported provider " + strconv.Quote(c.EmbedderProvider)}
	}

	if c.uses(ProviderGemini) && c.GoogleAPIKey == "" {
		return required("GOOGLE_API_KEY")
	}

	if c.uses(ProviderOpenAI) && c.OpenAIKey == "" {
		return required("OPENAI_API_KEY")
	}

	switch c.VectorStore {
	case StoreBadger:
		if c.VectorStorePath == "" {
			return required("VECTOR_STORE_PATH")
		}
	case StorePgvector:
		if c.DatabaseURL == "" {
			return required("DATABASE_URL")
		}
	case StoreMemory:
	default:
		return &ConfigurationError{Key: "VECTOR_STORE", Reason: "unsupported store " + strconv.Quote(c.VectorStore)}
	}

	if len(c.TestCommand) == 0 {
		return &ConfigurationError{Key: "TEST_COMMAND", Reason: "must not be empty"}
	}

	if c.RetrievalTopK < 1 {
		return &ConfigurationError{Key: "RETRIEVAL_TOP_K", Reason: "must be at least 1"}
	}

	return nil
}

// reports whether either the generator or the embedder uses the provider
func (c *Config) uses(provider string) bool {
	return c.LLMProvider == provider || c.EmbedderProvider == provider
}

// returns true when running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func clampIterations(n int) int {
	if n < minMaxIterations {
		return minMaxIterations
	}

	if n > defaultMaxIterations {
		return defaultMaxIterations
	}

	return n
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}

	return fallback
}

func getInt(key string, fallback int) int {
	if val, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return val
	}

	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return val
	}

	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, err := time.ParseDuration(os.Getenv(key)); err == nil && val > 0 {
		return val
	}

	return fallback
}
