package sessions

import (
	"context"

	"codeberg.org/qapilot/server/internal/agent"
	"codeberg.org/qapilot/server/internal/logger"
)

// runs one agent query
type AgentRunner interface {
	Run(ctx context.Context, req agent.Request) (*agent.Result, error)
}

// runs chat turns against the agent and records them in a session
type ChatService struct {
	runner   AgentRunner
	sessions *Manager
}

type ChatRequest struct {
	SessionID   string
	Query       string
	Environment string

	// overrides the stored history when non-empty
	History []agent.Message

	OnStep func(agent.Step)
}

type ChatResult struct {
	*agent.Result
	SessionID string
}

func NewChatService(runner AgentRunner, sessions *Manager) *ChatService {
	return &ChatService{runner: runner, sessions: sessions}
}

// answers a query in the context of a session, creating the session when the
// id is empty or unknown. The user turn and the answer are appended to its history.
func (s *ChatService) Send(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	session, err := s.sessions.GetOrCreate(req.SessionID)
	if err != nil {
		return nil, err
	}

	history := req.History
	if len(history) == 0 {
		history = session.History
	}

	environment := req.Environment
	if environment == "" {
		environment = session.Environment
	}

	result, err := s.runner.Run(ctx, agent.Request{
		Query:       req.Query,
		History:     history,
		Environment: environment,
		OnStep:      req.OnStep,
	})
	if err != nil {
		return nil, err
	}

	err = s.sessions.AppendTurns(session.ID, environment,
		agent.Message{Role: "user", Content: req.Query},
		agent.Message{Role: "assistant", Content: result.Answer},
	)
	if err != nil {
		// the answer is still returned; only the history is lost
		logger.FromContext(ctx).Warn("failed to record chat turns",
			"session_id", session.ID,
			"error", err,
		)
	}

	return &ChatResult{Result: result, SessionID: session.ID}, nil
}

// returns a snapshot of a session's history
func (s *ChatService) History(sessionID string) ([]agent.Message, error) {
	session, ok := s.sessions.GetSession(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	return session.History, nil
}
