package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

var errConnectionClosed = errors.New("connection to server closed")

// streams agent runs over the websocket endpoint
type WSClient struct {
	endpoint  string
	conn      *websocket.Conn
	sessionID string
	connected bool
	events    chan tea.Msg
	mu        sync.Mutex
	requestN  int
}

type wsMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type agentRequestPayload struct {
	Query       string `json:"query"`
	Environment string `json:"environment,omitempty"`
}

type agentResponsePayload struct {
	Answer     string `json:"answer"`
	Iterations int    `json:"iterations"`
	Completed  bool   `json:"completed"`
	Domain     string `json:"domain"`
}

type sessionStatePayload struct {
	SessionID string `json:"session_id"`
}

// creates a new webSocket client; serverURL is the http(s) base URL of the server
func NewWSClient(serverURL, token, sessionID string) (*WSClient, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	u.Path += "/api/v1/agent/ws"

	query := u.Query()
	if token != "" {
		query.Set("token", token)
	}
	if sessionID != "" {
		query.Set("session_id", sessionID)
	}
	u.RawQuery = query.Encode()

	return &WSClient{
		endpoint: u.String(),
		events:   make(chan tea.Msg, 64),
	}, nil
}

// dials the server and waits for the session state
func (c *WSClient) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.Dial(c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec

	var state wsMessage
	if err := conn.ReadJSON(&state); err != nil {
		conn.Close() //nolint:errcheck,gosec
		return fmt.Errorf("failed to read session state: %w", err)
	}

	if state.Type != typeSessionState {
		conn.Close() //nolint:errcheck,gosec
		return fmt.Errorf("unexpected first message %q", state.Type)
	}

	var payload sessionStatePayload
	if err := json.Unmarshal(state.Payload, &payload); err == nil && payload.SessionID != "" {
		c.sessionID = payload.SessionID
	} else {
		c.sessionID = state.SessionID
	}

	c.conn = conn
	c.connected = true

	go c.readPump(conn)
	go c.pingPump(conn)

	return nil
}

// converts server messages into tea messages
func (c *WSClient) readPump(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()

		conn.Close() //nolint:errcheck,gosec
		close(c.events)
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec

		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		if event := toEvent(msg); event != nil {
			c.events <- event
		}
	}
}

func toEvent(msg wsMessage) tea.Msg {
	switch msg.Type {
	case typeAgentStep:
		var step StepView
		if err := json.Unmarshal(msg.Payload, &step); err != nil {
			return AgentErrorMsg{err: fmt.Errorf("failed to parse step: %w", err)}
		}
		return AgentStepMsg{step: step}

	case typeAgentResponse:
		var resp agentResponsePayload
		if err := json.Unmarshal(msg.Payload, &resp); err != nil {
			return AgentErrorMsg{err: fmt.Errorf("failed to parse response: %w", err)}
		}
		return AgentResponseMsg{
			answer:     resp.Answer,
			domain:     resp.Domain,
			iterations: resp.Iterations,
			completed:  resp.Completed,
			sessionID:  msg.SessionID,
		}

	case typeError:
		var errResp errorResponse
		if err := json.Unmarshal(msg.Payload, &errResp); err != nil {
			return AgentErrorMsg{err: fmt.Errorf("failed to parse error: %w", err)}
		}
		return AgentErrorMsg{err: fmt.Errorf("%s: %s", errResp.Error, errResp.Message)}

	default:
		return nil
	}
}

// sends periodic pings to keep the connection alive
func (c *WSClient) pingPump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()

		if !c.connected {
			c.mu.Unlock()
			return
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec
		err := conn.WriteMessage(websocket.PingMessage, nil)
		c.mu.Unlock()

		if err != nil {
			return
		}
	}
}

// sends an agent request; steps and the answer arrive through WaitCmd
func (c *WSClient) Send(query, environment string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return errConnectionClosed
	}

	payload, err := json.Marshal(agentRequestPayload{Query: query, Environment: environment})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	c.requestN++

	c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec
	return c.conn.WriteJSON(wsMessage{
		Type:      typeAgentRequest,
		RequestID: fmt.Sprintf("tui-%d", c.requestN),
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// returns a tea.Cmd that connects and reports the session id
func (c *WSClient) ConnectCmd() tea.Cmd {
	return func() tea.Msg {
		if err := c.Connect(); err != nil {
			return ErrorMsg{err: err}
		}

		return WSConnectedMsg{sessionID: c.SessionID()}
	}
}

// returns a tea.Cmd that sends a request and waits for its first event
func (c *WSClient) SendCmd(query, environment string) tea.Cmd {
	return func() tea.Msg {
		if err := c.Send(query, environment); err != nil {
			return AgentErrorMsg{err: err}
		}

		return c.WaitCmd()()
	}
}

// returns a tea.Cmd that waits for the next streamed event
func (c *WSClient) WaitCmd() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-c.events
		if !ok {
			return AgentErrorMsg{err: errConnectionClosed}
		}

		return event
	}
}

func (c *WSClient) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// closes the webSocket connection
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")) //nolint:errcheck,gosec

		c.conn.Close() //nolint:errcheck,gosec
	}
	c.connected = false
}
