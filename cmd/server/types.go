package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/qapilot/server/internal/agent"
	"codeberg.org/qapilot/server/internal/codegen"
	"codeberg.org/qapilot/server/internal/config"
	"codeberg.org/qapilot/server/internal/environment"
	"codeberg.org/qapilot/server/internal/executor"
	"codeberg.org/qapilot/server/internal/knowledge"
	"codeberg.org/qapilot/server/internal/llm"
	"codeberg.org/qapilot/server/internal/rag"
	"codeberg.org/qapilot/server/internal/retriever"
	"codeberg.org/qapilot/server/internal/sessions"
	"codeberg.org/qapilot/server/internal/vectorstore"
	ws "codeberg.org/qapilot/server/internal/websocket"
)

// holds all dependencies and state for the API server
type Server struct {
	config   *config.Config
	services *Services
	sessions *sessions.Manager
	chat     *sessions.ChatService
	hub      *ws.Hub
	router   *gin.Engine
}

// holds the model clients, the knowledge base and everything built on them
type Services struct {
	LLM          llm.LLM
	Store        vectorstore.Store
	Bindings     *environment.Bindings
	Retriever    *retriever.Retriever
	Answerer     *rag.Answerer
	Generator    *codegen.Generator
	Executor     *executor.Executor
	Orchestrator *agent.Orchestrator
	Ingestor     *knowledge.Ingestor
}
