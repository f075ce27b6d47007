package agent

import (
	"codeberg.org/qapilot/server/api/rest/pagination"
	agentcore "codeberg.org/qapilot/server/internal/agent"
)

// request payload for a chat turn
type ChatRequest struct {
	Query       string    `json:"query" binding:"required"`
	History     []Message `json:"history,omitempty" binding:"omitempty,dive"`
	Environment string    `json:"environment,omitempty"` // QA, STAGE or PROD (default)
	SessionID   string    `json:"session_id,omitempty"`
}

// conversation message
type Message struct {
	Role    string `json:"role" binding:"omitempty,oneof=user assistant"`
	Content string `json:"content"`
}

// response payload for a chat turn
type ChatResponse struct {
	Answer     string           `json:"answer"`
	Steps      []agentcore.Step `json:"steps"`
	Iterations int              `json:"iterations"`
	Completed  bool             `json:"completed"`
	Domain     string           `json:"domain"`
	SessionID  string           `json:"session_id"`
}

type HistoryResponse struct {
	SessionID  string          `json:"session_id"`
	Messages   []Message       `json:"messages"`
	Pagination pagination.Meta `json:"pagination"`
}
