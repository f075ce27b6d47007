package agent

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/qapilot/server/api/rest/pagination"
	agentcore "codeberg.org/qapilot/server/internal/agent"
	"codeberg.org/qapilot/server/internal/errors"
	"codeberg.org/qapilot/server/internal/logger"
	"codeberg.org/qapilot/server/internal/sessions"
)

const maxHistoryMessages = 50

const defaultChatTimeout = 10 * time.Minute

const (
	defaultHistoryPage = 50
	maxHistoryPage     = 200
)

// ChatHandler godoc
// @Summary Chat with the test automation agent
// @Description Runs the agent loop for one query. The answer is always a string, even when a tool or the model fails.
// @Tags agent
// @Accept json
// @Produce json
// @Param request body ChatRequest true "Chat request"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/agent/chat [post]
func ChatHandler(chat *sessions.ChatService, cookies *SessionCookies, timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = defaultChatTimeout
	}

	return func(c *gin.Context) {
		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = cookies.Get(c)
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		result, err := chat.Send(ctx, sessions.ChatRequest{
			SessionID:   sessionID,
			Query:       req.Query,
			Environment: req.Environment,
			History:     toAgentMessages(req.History),
		})
		if err != nil {
			errors.FromDomainError(c, err)
			return
		}

		cookies.Set(c, result.SessionID)

		logger.FromContext(c.Request.Context()).Info("agent chat answered",
			"session_id", result.SessionID,
			"domain", result.Domain,
			"iterations", result.Iterations,
			"completed", result.Completed,
		)

		c.JSON(http.StatusOK, ChatResponse{
			Answer:     result.Answer,
			Steps:      result.Steps,
			Iterations: result.Iterations,
			Completed:  result.Completed,
			Domain:     result.Domain,
			SessionID:  result.SessionID,
		})
	}
}

// HistoryHandler godoc
// @Summary Get chat history
// @Description Returns the conversation turns recorded for a chat session
// @Tags agent
// @Produce json
// @Param id path string true "Session ID"
// @Param limit query int false "Max messages (default 50, max 200)"
// @Param offset query int false "Messages to skip"
// @Success 200 {object} HistoryResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/agent/sessions/{id}/history [get]
func HistoryHandler(chat *sessions.ChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")

		history, err := chat.History(sessionID)
		if err != nil {
			errors.FromDomainError(c, err)
			return
		}

		params := pagination.FromQuery(c, defaultHistoryPage, maxHistoryPage)
		page := pagination.Slice(history, params)

		messages := make([]Message, len(page))
		for i, msg := range page {
			messages[i] = Message{Role: msg.Role, Content: msg.Content}
		}

		c.JSON(http.StatusOK, HistoryResponse{
			SessionID:  sessionID,
			Messages:   messages,
			Pagination: pagination.NewMeta(params, len(history)),
		})
	}
}

// drops empty turns and keeps the most recent ones
func toAgentMessages(history []Message) []agentcore.Message {
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}

	out := make([]agentcore.Message, 0, len(history))
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}

		out = append(out, agentcore.Message{Role: msg.Role, Content: msg.Content})
	}

	return out
}
