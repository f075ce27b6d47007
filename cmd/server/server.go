package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"codeberg.org/qapilot/server/internal/config"
	"codeberg.org/qapilot/server/internal/logger"
	"codeberg.org/qapilot/server/internal/metrics"
	"codeberg.org/qapilot/server/internal/sessions"
	ws "codeberg.org/qapilot/server/internal/websocket"
)

// creates and configures a new server instance with all dependencies
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rateLimit, err := RateLimitMiddleware(cfg.RateLimit)
	if err != nil {
		return nil, &config.ConfigurationError{Key: "RATE_LIMIT", Reason: err.Error()}
	}

	services, err := InitializeServices(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	count, err := services.Store.Count(ctx)
	if err != nil {
		logger.Warn("knowledge base unavailable at startup", "error", err)
	} else {
		logger.Info("knowledge base ready",
			"documents", count,
			"vector_store", cfg.VectorStore,
		)
	}

	metrics.Register()

	sessionManager := sessions.NewManager(cfg.SessionTTL)
	chat := sessions.NewChatService(services.Orchestrator, sessionManager)

	hub := ws.NewHub()
	hub.RegisterHandler(ws.TypeAgentRequest, ws.AgentRequestHandler(chat))
	hub.RegisterHandler(ws.TypePing, ws.PingHandler())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	server := &Server{
		config:   cfg,
		services: services,
		sessions: sessionManager,
		chat:     chat,
		hub:      hub,
		router:   router,
	}

	RegisterRoutes(router, server, rateLimit)

	return server, nil
}

// releases the session manager and the vector store
func (s *Server) Close() {
	s.sessions.Close()

	if err := s.services.Store.Close(); err != nil {
		logger.ErrorErr(err, "failed to close vector store")
	}
}
