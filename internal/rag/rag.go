package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codeberg.org/qapilot/server/internal/llm"
	"codeberg.org/qapilot/server/internal/logger"
)

const (
	// returned in place of an answer when the model call fails
	SentinelAnswer = "Error: Could not generate response."

	DefaultTopK        = 3
	DefaultTemperature = 0.7
)

// the subset of the retriever the answerer depends on
type ContextRetriever interface {
	Retrieve(ctx context.Context, query, domainFilter string, k int) (string, error)
}

type Config struct {
	DefaultDomain string // used when no domain is given, normally the PROD domain
	TopK          int
	Temperature   float32
}

// answers questions from retrieved knowledge-base context
type Answerer struct {
	retriever     ContextRetriever
	generator     llm.TextGenerator
	defaultDomain string
	topK          int
	temperature   float32
}

func New(retriever ContextRetriever, generator llm.TextGenerator, cfg Config) *Answerer {
	if cfg.TopK < 1 {
		cfg.TopK = DefaultTopK
	}

	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}

	return &Answerer{
		retriever:     retriever,
		generator:     generator,
		defaultDomain: cfg.DefaultDomain,
		topK:          cfg.TopK,
		temperature:   cfg.Temperature,
	}
}

// answers the query using context scoped to envDomain (the default domain when empty).
// retrieval failures are returned; a model failure yields SentinelAnswer and a nil error.
func (a *Answerer) Answer(ctx context.Context, query, envDomain string) (string, error) {
	domain := a.ResolveDomain(envDomain)

	contextText, err := a.retriever.Retrieve(ctx, query, domain, a.topK)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve context: %w", err)
	}

	text, err := llm.Complete(ctx, a.generator, BuildPrompt(contextText, query), a.temperature)
	if err != nil {
		var genErr *llm.GenerationError
		if !errors.As(err, &genErr) {
			genErr = &llm.GenerationError{Model: a.generator.Model(), Err: err}
		}

		logger.FromContext(ctx).Warn("answer degraded to sentinel",
			"domain", domain,
			"error", genErr,
		)

		return SentinelAnswer, nil
	}

	return text, nil
}

// returns envDomain, or the default domain when it is empty
func (a *Answerer) ResolveDomain(envDomain string) string {
	if d := strings.TrimSpace(envDomain); d != "" {
		return d
	}

	return a.defaultDomain
}

// builds the answering prompt around the retrieved context
func BuildPrompt(contextText, query string) string {
	var sb strings.Builder

	sb.WriteString("You are an expert Test Automation Engineer. Use the following context to answer the user's query.\n")
	sb.WriteString("If the context does not contain enough information, state that.\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\nUser Query: ")
	sb.WriteString(query)

	return sb.String()
}
