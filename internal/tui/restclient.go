package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// manages HTTP requests to the agent REST API
type AgentClient struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// creates a new agent REST client
func NewAgentClient(serverURL, token string) *AgentClient {
	return &AgentClient{
		endpoint: strings.TrimRight(serverURL, "/"),
		token:    token,
		httpClient: &http.Client{
			Timeout: agentRequestTimeout,
		},
	}
}

// sends a chat turn; the server keeps the history for sessionID
func (c *AgentClient) Chat(ctx context.Context, query, environment, sessionID string) (*AgentResponseMsg, error) {
	payloadBytes, err := json.Marshal(chatRequest{
		Query:       query,
		Environment: environment,
		SessionID:   sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/agent/chat", c.endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("%s: %s", errResp.Error, errResp.Message)
		}
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &AgentResponseMsg{
		answer:     result.Answer,
		domain:     result.Domain,
		iterations: result.Iterations,
		completed:  result.Completed,
		sessionID:  result.SessionID,
		steps:      result.Steps,
	}, nil
}

// returns a tea.Cmd that sends a chat turn
func (c *AgentClient) ChatCmd(query, environment, sessionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), agentRequestTimeout)
		defer cancel()

		resp, err := c.Chat(ctx, query, environment, sessionID)
		if err != nil {
			return AgentErrorMsg{err: err}
		}

		return *resp
	}
}

type chatRequest struct {
	Query       string `json:"query"`
	Environment string `json:"environment,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Answer     string     `json:"answer"`
	Steps      []StepView `json:"steps"`
	Iterations int        `json:"iterations"`
	Completed  bool       `json:"completed"`
	Domain     string     `json:"domain"`
	SessionID  string     `json:"session_id"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
