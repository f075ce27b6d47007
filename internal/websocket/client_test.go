package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id, sessionID string) *Client {
	return &Client{
		ID:                     id,
		SessionID:              sessionID,
		send:                   make(chan []byte, 256),
		agentRequestTimestamps: make([]time.Time, 0, maxAgentRequestsPerMinute),
	}
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()

	select {
	case raw := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	default:
		t.Fatal("expected a queued message")
		return Message{}
	}
}

func TestClientSendError(t *testing.T) {
	client := newTestClient("test-client", "test-session")

	client.SendError("req-1", "validation_error", "query cannot be empty", "")

	msg := receive(t, client)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, "req-1", msg.RequestID)
	assert.Contains(t, string(msg.Payload), "validation_error")
	assert.Contains(t, string(msg.Payload), "query cannot be empty")
}

func TestClientSendMessage(t *testing.T) {
	client := newTestClient("test-client", "test-session")

	msg, err := NewMessage(TypeAgentStep, "test-session", AgentStepPayload{
		Iteration:   1,
		Action:      "QueryKnowledgeBase",
		ActionInput: "login selectors",
		Observation: "use the 'loginBtn' id",
	})
	require.NoError(t, err)
	require.NoError(t, client.Send(msg))

	received := receive(t, client)
	assert.Equal(t, TypeAgentStep, received.Type)

	var payload AgentStepPayload
	require.NoError(t, received.UnmarshalPayload(&payload))
	assert.Equal(t, "QueryKnowledgeBase", payload.Action)
}

func TestClientSendAfterClose(t *testing.T) {
	client := newTestClient("test-client", "test-session")
	client.Close()

	msg, err := NewMessage(TypePong, "test-session", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, client.Send(msg), ErrConnectionClosed)
	assert.True(t, client.IsClosed())

	// closing twice is safe
	client.Close()
}

func TestClientSendToClosedChannel(t *testing.T) {
	client := newTestClient("test-client", "test-session")
	close(client.send)

	msg, err := NewMessage(TypePong, "test-session", nil)
	require.NoError(t, err)

	assert.Error(t, client.Send(msg))
}

func TestClientBusyGuard(t *testing.T) {
	client := newTestClient("test-client", "test-session")

	require.True(t, client.beginRequest())
	assert.False(t, client.beginRequest())

	client.endRequest()
	assert.True(t, client.beginRequest())
}

func TestUnmarshalPayload_Empty(t *testing.T) {
	msg := &Message{Type: TypeAgentRequest}

	var payload AgentRequestPayload
	assert.ErrorIs(t, msg.UnmarshalPayload(&payload), ErrInvalidMessage)
}
