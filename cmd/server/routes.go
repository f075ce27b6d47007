package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codeberg.org/qapilot/server/api/rest/agent"
	"codeberg.org/qapilot/server/api/rest/health"
	"codeberg.org/qapilot/server/api/rest/knowledge"
	"codeberg.org/qapilot/server/api/rest/tests"
	"codeberg.org/qapilot/server/api/websocket"
	"codeberg.org/qapilot/server/internal/auth"
	"codeberg.org/qapilot/server/internal/metrics"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server, rateLimit gin.HandlerFunc) {
	cfg := server.config
	services := server.services

	router.Use(CORSMiddleware(cfg))
	router.Use(RequestIDMiddleware())
	router.Use(metrics.Middleware())

	router.GET("/health", health.Handler)
	router.GET("/health/ready", health.ReadyHandler(services.Store))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// writes and test runs need a token once a JWT secret is configured
	var guard []gin.HandlerFunc
	if cfg.JWTSecret != "" {
		guard = append(guard, auth.AuthMiddleware(cfg.JWTSecret))
	}

	v1 := router.Group("/api/v1")
	v1.Use(rateLimit)
	v1.Use(auth.OptionalAuthMiddleware(cfg.JWTSecret))

	{
		v1.GET("/ping", health.PingHandler)

		cookies := agent.NewSessionCookies(cfg.SessionSecret, cfg.IsProduction(), int(cfg.SessionTTL.Seconds()))
		agent.RegisterRoutes(v1, server.chat, cookies, cfg.AgentTimeout)

		knowledge.RegisterRoutes(v1, knowledge.Handlers{
			Answerer:  services.Answerer,
			Retriever: services.Retriever,
			Ingestor:  services.Ingestor,
			Bindings:  services.Bindings,
			TopK:      cfg.RetrievalTopK,
		}, guard...)

		tests.RegisterRoutes(v1, services.Generator, services.Executor, services.Bindings, guard...)

		websocket.RegisterRoutes(v1, server.hub, server.sessions, websocket.Options{
			JWTSecret:      cfg.JWTSecret,
			AllowedOrigins: cfg.AllowedOrigins,
			Production:     cfg.IsProduction(),
		})
	}
}
