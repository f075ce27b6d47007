package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

type OllamaConfig struct {
	Host           string // e.g., "http://localhost:11434"
	Model          string
	EmbeddingModel string
	MaxTokens      int
	Timeout        time.Duration
}

// local generator and embedder served by Ollama
type OllamaClient struct {
	client         *api.Client
	model          string
	embeddingModel string
	maxTokens      int
}

func NewOllamaClient(config OllamaConfig) (*OllamaClient, error) {
	if config.Host == "" {
		config.Host = "http://localhost:11434"
	}

	if config.Model == "" {
		config.Model = defaultOllamaModel
	}

	if config.EmbeddingModel == "" {
		config.EmbeddingModel = defaultOllamaEmbeddingModel
	}

	baseURL, err := url.Parse(config.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", config.Host, err)
	}

	httpClient := &http.Client{Timeout: config.Timeout}

	return &OllamaClient{
		client:         api.NewClient(baseURL, httpClient),
		model:          config.Model,
		embeddingModel: config.EmbeddingModel,
		maxTokens:      config.MaxTokens,
	}, nil
}

func (o *OllamaClient) Model() string {
	return o.model
}

func (o *OllamaClient) GenerateText(ctx context.Context, req TextGenerationRequest) (*TextGenerationResponse, error) {
	messages := make([]api.Message, 0, len(req.Messages)+1)

	if req.SystemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.SystemPrompt})
	}

	for _, msg := range req.Messages {
		messages = append(messages, api.Message{Role: msg.Role, Content: msg.Content})
	}

	stream := false
	options := map[string]any{
		"temperature": req.Temperature,
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = o.maxTokens
	}

	if maxTokens > 0 {
		options["num_predict"] = maxTokens
	}

	var text strings.Builder
	var usage Usage

	err := o.client.Chat(ctx, &api.ChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}, func(resp api.ChatResponse) error {
		text.WriteString(resp.Message.Content)

		if resp.Done {
			usage = Usage{
				InputTokens:  resp.PromptEvalCount,
				OutputTokens: resp.EvalCount,
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}

	return &TextGenerationResponse{Text: text.String(), Usage: usage}, nil
}

func (o *OllamaClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := o.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return embeddings[0], nil
}

func (o *OllamaClient) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := o.client.Embed(ctx, &api.EmbedRequest{
		Model: o.embeddingModel,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	return resp.Embeddings, nil
}
