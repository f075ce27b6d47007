package errors

import (
	"errors"
	"net/http"
	"strings"

	"codeberg.org/qapilot/server/internal/agent"
	"codeberg.org/qapilot/server/internal/auth"
	"codeberg.org/qapilot/server/internal/config"
	"codeberg.org/qapilot/server/internal/environment"
	"codeberg.org/qapilot/server/internal/executor"
	"codeberg.org/qapilot/server/internal/knowledge"
	"codeberg.org/qapilot/server/internal/llm"
	"codeberg.org/qapilot/server/internal/logger"
	"codeberg.org/qapilot/server/internal/retriever"
	"codeberg.org/qapilot/server/internal/sessions"
	"codeberg.org/qapilot/server/internal/vectorstore"
	"github.com/gin-gonic/gin"
)

// Error Handling Guidelines:
//
// For HTTP REST handlers:
//   - Use errors.FromDomainError() for errors returned by internal packages
//   - Use errors.BadRequest(), errors.ValidationError(), etc. for request problems
//   - These functions handle both logging and HTTP response automatically
//
// For WebSocket handlers:
//   - Log with the request logger and send an error message to the client
//
// For internal packages:
//   - Return wrapped errors with context using fmt.Errorf("context: %w", err)
//   - Let the caller (handler) decide how to log and respond

// errors caused by the caller's input
var validationErrors = []error{
	agent.ErrEmptyQuery,
	retriever.ErrEmptyQuery,
	retriever.ErrInvalidK,
	executor.ErrInvalidClassName,
	environment.ErrUnknownDomain,
	vectorstore.ErrMissingID,
	knowledge.ErrEmptyContent,
}

// returns a 401 unauthorized error
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}

	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   CodeUnauthorized,
		Message: message,
	})
}

// returns a 403 forbidden error
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "permission denied"
	}

	c.JSON(http.StatusForbidden, ErrorResponse{
		Error:   CodeForbidden,
		Message: message,
	})
}

// returns a 404 not found error
func NotFound(c *gin.Context, resource string) {
	message := "resource not found"

	if resource != "" {
		message = resource + " not found"
	}

	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   CodeNotFound,
		Message: message,
	})
}

// returns a 400 bad request error
func BadRequest(c *gin.Context, message string, err error) {
	if message == "" {
		message = "invalid request"
	}

	response := ErrorResponse{
		Error:   CodeBadRequest,
		Message: message,
	}

	if err != nil {
		response.Details = Sanitize(err)
	}

	c.JSON(http.StatusBadRequest, response)
}

// returns a 400 bad request error for validation failures
func ValidationError(c *gin.Context, err error) {
	message := "validation failed"
	details := ""

	if err != nil {
		details = Sanitize(err)
		if strings.Contains(err.Error(), "binding") || strings.Contains(err.Error(), "validation") {
			message = "request validation failed"
		}
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   CodeValidationError,
		Message: message,
		Details: details,
	})
}

// returns a 500 internal server error
func InternalError(c *gin.Context, message string, err error) {
	if message == "" {
		message = "an error occurred"
	}

	// log full error server-side with context
	logger.FromContext(c.Request.Context()).Error(message,
		"error", err,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"subject", c.GetString(auth.ContextSubject),
	)

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   CodeServerError,
		Message: message,
		Details: Sanitize(err),
	})
}

// returns a 503 when a backing service (vector store, language model) cannot serve the request
func ServiceUnavailable(c *gin.Context, message string, err error) {
	if message == "" {
		message = "service unavailable"
	}

	logger.FromContext(c.Request.Context()).Warn(message,
		"error", err,
		"path", c.Request.URL.Path,
		"category", classifyError(err).category,
	)

	c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error:   CodeServiceUnavailable,
		Message: message,
		Details: Sanitize(err),
	})
}

// returns a 429 too many requests error
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "too many requests"
	}

	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:   CodeTooManyRequests,
		Message: message,
	})
}

// returns a 404 error for session not found
func SessionNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   CodeSessionNotFound,
		Message: "session not found",
	})
}

// maps an error returned by an internal package onto its HTTP response
func FromDomainError(c *gin.Context, err error) {
	if IsValidation(err) {
		ValidationError(c, err)
		return
	}

	if errors.Is(err, sessions.ErrSessionNotFound) || errors.Is(err, sessions.ErrSessionExpired) {
		SessionNotFound(c)
		return
	}

	var retrievalErr *retriever.RetrievalError
	if errors.As(err, &retrievalErr) {
		ServiceUnavailable(c, "knowledge base unavailable", err)
		return
	}

	var generationErr *llm.GenerationError
	if errors.As(err, &generationErr) {
		ServiceUnavailable(c, "language model unavailable", err)
		return
	}

	var configErr *config.ConfigurationError
	if errors.As(err, &configErr) {
		logger.FromContext(c.Request.Context()).Error("server misconfigured",
			"error", err,
			"key", configErr.Key,
		)

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   CodeConfiguration,
			Message: "server is not configured",
			Details: Sanitize(err),
		})
		return
	}

	InternalError(c, "", err)
}

// reports whether err was caused by invalid caller input
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
