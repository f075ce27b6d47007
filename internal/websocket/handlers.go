package websocket

import (
	"context"
	"strings"

	"codeberg.org/qapilot/server/internal/agent"
	"codeberg.org/qapilot/server/internal/auth"
	"codeberg.org/qapilot/server/internal/errors"
	"codeberg.org/qapilot/server/internal/logger"
	"codeberg.org/qapilot/server/internal/sessions"
)

// runs a chat turn against the agent
type ChatSender interface {
	Send(ctx context.Context, req sessions.ChatRequest) (*sessions.ChatResult, error)
}

// handles agent request messages; each step is broadcast to every client of
// the session as it happens, followed by the final answer
func AgentRequestHandler(chat ChatSender) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		if !client.checkAgentRequestRateLimit() {
			client.SendError(msg.RequestID, errors.CodeTooManyRequests, "too many agent requests. maximum 10 per minute.", "")
			return nil
		}

		var payload AgentRequestPayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError(msg.RequestID, errors.CodeValidationError, "failed to parse agent request", err.Error())
			return nil
		}

		query := strings.TrimSpace(payload.Query)
		if query == "" {
			client.SendError(msg.RequestID, errors.CodeValidationError, "query cannot be empty", "")
			return nil
		}

		if len(query) > maxQueryLength {
			client.SendError(msg.RequestID, errors.CodeBadRequest, "query exceeds maximum size. maximum 10000 characters allowed.", "")
			return nil
		}

		if !client.beginRequest() {
			client.SendError(msg.RequestID, errors.CodeTooManyRequests, "an agent request is already in progress", "")
			return nil
		}
		defer client.endRequest()

		ctx, cancel := context.WithTimeout(context.Background(), agentRequestTimeout)
		defer cancel()

		ctx = logger.WithContext(ctx, logger.With(
			"request_id", msg.RequestID,
			"session_id", client.SessionID,
			"client_id", client.ID,
		))

		if client.Subject != "" {
			ctx = auth.WithSubject(ctx, client.Subject)
		}

		result, err := chat.Send(ctx, sessions.ChatRequest{
			SessionID:   client.SessionID,
			Query:       query,
			Environment: payload.Environment,
			History:     toAgentMessages(payload.History),
			OnStep: func(step agent.Step) {
				stepMsg, err := NewMessage(TypeAgentStep, client.SessionID, AgentStepPayload(step))
				if err != nil {
					return
				}

				stepMsg.RequestID = msg.RequestID
				hub.BroadcastToSession(client.SessionID, stepMsg, "")
			},
		})
		if err != nil {
			code := errors.CodeServerError
			if errors.IsValidation(err) {
				code = errors.CodeValidationError
			}

			client.SendError(msg.RequestID, code, "failed to process agent request", errors.Sanitize(err))
			return err
		}

		responseMsg, err := NewMessage(TypeAgentResponse, client.SessionID, AgentResponsePayload{
			Answer:     result.Answer,
			Iterations: result.Iterations,
			Completed:  result.Completed,
			Domain:     result.Domain,
			RateLimit:  client.GetAgentRateLimitStatus(),
		})
		if err != nil {
			return err
		}

		responseMsg.RequestID = msg.RequestID
		hub.BroadcastToSession(client.SessionID, responseMsg, "")

		return nil
	}
}

// handles ping messages from clients (keep-alive)
func PingHandler() MessageHandler {
	return func(_ *Hub, client *Client, msg *Message) error {
		pongMsg, err := NewMessage(TypePong, client.SessionID, nil)
		if err != nil {
			return err
		}

		pongMsg.RequestID = msg.RequestID
		client.Send(pongMsg) //nolint:errcheck,gosec // best-effort pong
		return nil
	}
}

func toAgentMessages(history []HistoryMessage) []agent.Message {
	out := make([]agent.Message, 0, len(history))

	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}

		out = append(out, agent.Message{Role: m.Role, Content: m.Content})
	}

	return out
}

// converts stored history for the session state message
func FromAgentMessages(history []agent.Message) []HistoryMessage {
	out := make([]HistoryMessage, 0, len(history))

	for _, m := range history {
		out = append(out, HistoryMessage{Role: m.Role, Content: m.Content})
	}

	return out
}
