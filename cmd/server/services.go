package main

import (
	"context"
	"fmt"

	"codeberg.org/qapilot/server/internal/agent"
	"codeberg.org/qapilot/server/internal/codegen"
	"codeberg.org/qapilot/server/internal/config"
	"codeberg.org/qapilot/server/internal/environment"
	"codeberg.org/qapilot/server/internal/executor"
	"codeberg.org/qapilot/server/internal/knowledge"
	"codeberg.org/qapilot/server/internal/llm"
	"codeberg.org/qapilot/server/internal/rag"
	"codeberg.org/qapilot/server/internal/retriever"
	"codeberg.org/qapilot/server/internal/vectorstore"
)

// creates and configures all service clients
func InitializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	llmClient, err := llm.NewLLM(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	store, err := vectorstore.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	bindings := environment.NewBindings(cfg.DomainQA, cfg.DomainStage, cfg.DomainProd)

	retrieverClient := retriever.New(llmClient, store)

	answerer := rag.New(retrieverClient, llmClient, rag.Config{
		DefaultDomain: bindings.Default(),
		TopK:          cfg.RetrievalTopK,
		Temperature:   cfg.AnswerTemperature,
	})

	generator := codegen.New(answerer)

	testExecutor := executor.New(executor.Config{
		ProjectDir: cfg.TestProjectDir,
		SourceDir:  cfg.TestSourceDir,
		Package:    cfg.TestPackage,
		Command:    cfg.TestCommand,
		Timeout:    cfg.TestTimeout,
	})

	orchestrator := agent.New(llmClient, agent.NewCatalog(answerer, generator, agentRunner(cfg, testExecutor)), agent.Config{
		Bindings:      bindings,
		MaxIterations: cfg.AgentMaxIterations,
		Temperature:   cfg.AgentTemperature,
	})

	return &Services{
		LLM:          llmClient,
		Store:        store,
		Bindings:     bindings,
		Retriever:    retrieverClient,
		Answerer:     answerer,
		Generator:    generator,
		Executor:     testExecutor,
		Orchestrator: orchestrator,
		Ingestor:     knowledge.NewIngestor(llmClient, store, bindings),
	}, nil
}

// the agent can run tests too, so it is held to the same rule as /tests/run
func agentRunner(cfg *config.Config, testExecutor *executor.Executor) agent.TestRunner {
	if cfg.JWTSecret != "" {
		return agent.RequireCaller(testExecutor)
	}

	return testExecutor
}
