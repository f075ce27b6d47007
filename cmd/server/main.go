package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/qapilot/server/internal/config"
	"codeberg.org/qapilot/server/internal/logger"
)

// @title QA Pilot API
// @version 1.0
// @description AI test-automation assistant
// @description
// @description Features:
// @description - Knowledge-base answers scoped to the QA, STAGE and PROD environments
// @description - Test code generation (Selenium Java TestNG by default)
// @description - Test execution through the project's Maven build
// @description - A tool-using agent over chat, with streaming over WebSockets

// @contact.name API Support
// @contact.url https://codeberg.org/qapilot/server

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for protected endpoints. Format: Bearer {token}

func main() {
	logger.Info("starting qapilot server")

	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.FatalErr(err, "failed to load configuration")
	}

	srv, err := NewServer(context.Background(), cfg)
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.Fatal("invalid configuration", "key", cfgErr.Key, "reason", cfgErr.Reason)
		}

		logger.FatalErr(err, "failed to create server")
	}

	// handlers give up before the server does, so a reply is always written
	writeTimeout := max(cfg.AgentTimeout, cfg.TestTimeout) + time.Minute

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalErr(err, "server failed to start")
		}
	}()

	go srv.hub.Run()

	// wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// notify websocket clients and close connections first
	srv.hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.ErrorErr(err, "server forced to shutdown")
	}

	srv.Close()

	logger.Info("server stopped")
}
