package websocket

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/qapilot/server/internal/agent"
	"codeberg.org/qapilot/server/internal/auth"
	"codeberg.org/qapilot/server/internal/sessions"
)

func TestHubRegisterSendsSessionState(t *testing.T) {
	hub := NewHub()
	client := newTestClient("c1", "s1")
	client.Subject = "alice"
	client.InitialEnvironment = "QA"
	client.InitialHistory = []HistoryMessage{{Role: "user", Content: "hi"}}

	hub.registerClient(client)

	msg := receive(t, client)
	assert.Equal(t, TypeSessionState, msg.Type)

	var state SessionStatePayload
	require.NoError(t, msg.UnmarshalPayload(&state))
	assert.Equal(t, "s1", state.SessionID)
	assert.Equal(t, "QA", state.Environment)
	assert.Len(t, state.History, 1)

	assert.Equal(t, 1, hub.GetClientCount("s1"))
	assert.Equal(t, 1, hub.GetSessionCount())
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	client := newTestClient("c1", "s1")
	client.IPAddress = "10.0.0.1"

	hub.TrackIPConnection(client.IPAddress)
	hub.registerClient(client)
	hub.unregisterClient(client)

	assert.True(t, client.IsClosed())
	assert.Zero(t, hub.GetSessionCount())
	assert.Empty(t, hub.ipConnections)

	// unknown clients are ignored
	hub.unregisterClient(newTestClient("c2", "s2"))
}

func TestHubCanAcceptConnection(t *testing.T) {
	hub := NewHub()

	for i := 0; i < maxConnectionsPerIP; i++ {
		ok, _ := hub.CanAcceptConnection("", "10.0.0.1")
		require.True(t, ok)
		hub.TrackIPConnection("10.0.0.1")
	}

	ok, reason := hub.CanAcceptConnection("", "10.0.0.1")
	assert.False(t, ok)
	assert.Contains(t, reason, "IP address")

	hub.UntrackIPConnection("10.0.0.1")
	ok, _ = hub.CanAcceptConnection("", "10.0.0.1")
	assert.True(t, ok)

	hub.subjectConnections["bob"] = maxConnectionsPerUser
	ok, reason = hub.CanAcceptConnection("bob", "10.0.0.2")
	assert.False(t, ok)
	assert.Contains(t, reason, "per user")
}

func TestHubRejectsUnknownMessageType(t *testing.T) {
	hub := NewHub()
	client := newTestClient("c1", "s1")
	hub.registerClient(client)
	receive(t, client) // session state

	hub.handleMessage(&Message{Type: "code_update", SessionID: "s1", ClientID: "c1", RequestID: "r1"})

	msg := receive(t, client)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, "r1", msg.RequestID)
}

func TestBroadcastToSessionSequences(t *testing.T) {
	hub := NewHub()
	a := newTestClient("a", "s1")
	b := newTestClient("b", "s1")
	hub.registerClient(a)
	hub.registerClient(b)
	receive(t, a)
	receive(t, b)

	for range 2 {
		msg, err := NewMessage(TypePong, "s1", nil)
		require.NoError(t, err)
		hub.BroadcastToSession("s1", msg, "")
	}

	assert.Equal(t, uint64(1), receive(t, a).Sequence)
	assert.Equal(t, uint64(2), receive(t, a).Sequence)
	assert.Equal(t, uint64(1), receive(t, b).Sequence)
	assert.Equal(t, uint64(2), receive(t, b).Sequence)
}

type mockChat struct {
	gotRequest sessions.ChatRequest
	sendFunc   func(ctx context.Context, req sessions.ChatRequest) (*sessions.ChatResult, error)
}

func (m *mockChat) Send(ctx context.Context, req sessions.ChatRequest) (*sessions.ChatResult, error) {
	m.gotRequest = req

	if m.sendFunc != nil {
		return m.sendFunc(ctx, req)
	}

	req.OnStep(agent.Step{Iteration: 1, Action: "GenerateTestCode", ActionInput: "login", Observation: "public class LoginTest {}"})

	return &sessions.ChatResult{
		Result: &agent.Result{
			Answer:     "Here is your login test.",
			Iterations: 2,
			Completed:  true,
			Domain:     "my.qa.charitableimpact.com",
		},
		SessionID: req.SessionID,
	}, nil
}

func agentRequest(t *testing.T, payload AgentRequestPayload) *Message {
	t.Helper()

	msg, err := NewMessage(TypeAgentRequest, "s1", payload)
	require.NoError(t, err)

	msg.ClientID = "c1"
	msg.RequestID = "req-7"

	return msg
}

func TestAgentRequestHandler(t *testing.T) {
	hub := NewHub()
	client := newTestClient("c1", "s1")
	hub.registerClient(client)
	receive(t, client)

	chat := &mockChat{}
	handler := AgentRequestHandler(chat)

	err := handler(hub, client, agentRequest(t, AgentRequestPayload{
		Query:       "  write a login test  ",
		Environment: "QA",
		History:     []HistoryMessage{{Role: "user", Content: ""}, {Role: "assistant", Content: "hello"}},
	}))
	require.NoError(t, err)

	assert.Equal(t, "write a login test", chat.gotRequest.Query)
	assert.Equal(t, "QA", chat.gotRequest.Environment)
	assert.Equal(t, "s1", chat.gotRequest.SessionID)
	assert.Len(t, chat.gotRequest.History, 1)

	step := receive(t, client)
	assert.Equal(t, TypeAgentStep, step.Type)
	assert.Equal(t, "req-7", step.RequestID)

	resp := receive(t, client)
	assert.Equal(t, TypeAgentResponse, resp.Type)

	var payload AgentResponsePayload
	require.NoError(t, resp.UnmarshalPayload(&payload))
	assert.Equal(t, "Here is your login test.", payload.Answer)
	assert.True(t, payload.Completed)
	require.NotNil(t, payload.RateLimit)
	assert.Equal(t, maxAgentRequestsPerMinute-1, payload.RateLimit.RequestsRemaining)

	// the busy flag is cleared afterwards
	assert.True(t, client.beginRequest())
}

func TestAgentRequestHandler_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		payload AgentRequestPayload
		prepare func(c *Client)
		code    string
	}{
		{
			name:    "empty query",
			payload: AgentRequestPayload{Query: "   "},
			code:    "validation_error",
		},
		{
			name:    "rate limited",
			payload: AgentRequestPayload{Query: "q"},
			prepare: func(c *Client) {
				for i := 0; i < maxAgentRequestsPerMinute; i++ {
					c.checkAgentRequestRateLimit()
				}
			},
			code: "too_many_requests",
		},
		{
			name:    "request in flight",
			payload: AgentRequestPayload{Query: "q"},
			prepare: func(c *Client) { c.beginRequest() },
			code:    "too_many_requests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub()
			client := newTestClient("c1", "s1")

			if tt.prepare != nil {
				tt.prepare(client)
			}

			chat := &mockChat{}
			require.NoError(t, AgentRequestHandler(chat)(hub, client, agentRequest(t, tt.payload)))

			msg := receive(t, client)
			assert.Equal(t, TypeError, msg.Type)
			assert.Contains(t, string(msg.Payload), tt.code)
			assert.Empty(t, chat.gotRequest.Query, "agent must not run")
		})
	}
}

func TestAgentRequestHandler_ChatFailure(t *testing.T) {
	hub := NewHub()
	client := newTestClient("c1", "s1")

	chat := &mockChat{
		sendFunc: func(ctx context.Context, req sessions.ChatRequest) (*sessions.ChatResult, error) {
			return nil, errors.New("boom")
		},
	}

	err := AgentRequestHandler(chat)(hub, client, agentRequest(t, AgentRequestPayload{Query: "q"}))
	assert.Error(t, err)

	msg := receive(t, client)
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, string(msg.Payload), "server_error")
}

func TestPingHandler(t *testing.T) {
	client := newTestClient("c1", "s1")

	require.NoError(t, PingHandler()(NewHub(), client, &Message{Type: TypePing, RequestID: "p1"}))

	msg := receive(t, client)
	assert.Equal(t, TypePong, msg.Type)
	assert.Equal(t, "p1", msg.RequestID)
}

func TestOriginChecker(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/agent/ws", nil)
	req.Header.Set("Origin", "https://qa-tools.example.com")

	assert.True(t, NewOriginChecker(nil, false)(req))
	assert.False(t, NewOriginChecker(nil, true)(req))
	assert.True(t, NewOriginChecker([]string{"https://qa-tools.example.com"}, true)(req))
	assert.False(t, NewOriginChecker([]string{"https://other.example.com"}, true)(req))

	noOrigin := httptest.NewRequest("GET", "/api/v1/agent/ws", nil)
	assert.False(t, NewOriginChecker([]string{"https://qa-tools.example.com"}, true)(noOrigin))
}

func TestHubShutdownTwice(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	client := newTestClient("c1", "s1")
	hub.Register <- client

	assert.NotPanics(t, func() {
		hub.Shutdown()
		hub.Shutdown()
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("hub did not stop")
	}

	assert.True(t, client.IsClosed())
	assert.NotPanics(t, hub.Shutdown)
}

func TestAgentRequestHandler_CarriesSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
		wantOK  bool
	}{
		{"authenticated", "ci-pipeline", "ci-pipeline", true},
		{"anonymous", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub()
			client := newTestClient("c1", "s1")
			client.Subject = tt.subject
			hub.registerClient(client)
			receive(t, client)

			var got string
			var gotOK bool
			chat := &mockChat{sendFunc: func(ctx context.Context, req sessions.ChatRequest) (*sessions.ChatResult, error) {
				got, gotOK = auth.SubjectFromContext(ctx)
				return &sessions.ChatResult{Result: &agent.Result{Answer: "ok"}, SessionID: req.SessionID}, nil
			}}

			require.NoError(t, AgentRequestHandler(chat)(hub, client, agentRequest(t, AgentRequestPayload{Query: "run the login test"})))

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, gotOK)
		})
	}
}
