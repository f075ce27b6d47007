package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// message type constants for websocket communication
const (
	// is sent by clients with a query for the agent
	TypeAgentRequest = "agent_request"

	// is sent for every reasoning step while the agent works
	TypeAgentStep = "agent_step"

	// is sent with the final answer of an agent request
	TypeAgentResponse = "agent_response"

	// is sent when an error occurs
	TypeError = "error"

	// is sent by clients to keep the connection alive
	TypePing = "ping"

	// is sent by server in response to ping
	TypePong = "pong"

	// is sent by server before shutdown
	TypeServerShutdown = "server_shutdown"

	// is sent to connecting client with session info
	TypeSessionState = "session_state"
)

// client connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maximum message size allowed from peer
	maxMessageSize = 256 * 1024

	maxAgentRequestsPerMinute = 10
	maxQueryLength            = 10000

	// an agent run may call the test runner, which is slow
	agentRequestTimeout = 10 * time.Minute
)

// hub connection limit constants
const (
	maxConnectionsPerUser = 5
	maxConnectionsPerIP   = 10
)

var (
	ErrInvalidMessage    = errors.New("invalid message format")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrRequestInFlight   = errors.New("agent request already in progress")
	ErrQueryTooLarge     = errors.New("query too large")
)

// represents a websocket message with typed payload
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	RequestID string          `json:"request_id,omitempty"`
	ClientID  string          `json:"-"` // internal only, not sent to clients
	Subject   string          `json:"-"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  uint64          `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// a query for the agent
type AgentRequestPayload struct {
	Query       string           `json:"query"`
	Environment string           `json:"environment,omitempty"`
	History     []HistoryMessage `json:"history,omitempty"`
}

// one reasoning step of the agent
type AgentStepPayload struct {
	Iteration   int    `json:"iteration"`
	Thought     string `json:"thought,omitempty"`
	Action      string `json:"action,omitempty"`
	ActionInput string `json:"action_input,omitempty"`
	Observation string `json:"observation"`
}

// the final answer of an agent request
type AgentResponsePayload struct {
	Answer     string     `json:"answer"`
	Iterations int        `json:"iterations"`
	Completed  bool       `json:"completed"`
	Domain     string     `json:"domain,omitempty"`
	RateLimit  *RateLimit `json:"rate_limit,omitempty"`
}

// contains information about server shutdown
type ServerShutdownPayload struct {
	Reason string `json:"reason"`
}

// contains session info sent to connecting client
type SessionStatePayload struct {
	SessionID   string           `json:"session_id"`
	Environment string           `json:"environment,omitempty"`
	History     []HistoryMessage `json:"history"`
}

type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type RateLimit struct {
	RequestsRemaining int `json:"requests_remaining"`
	RequestsLimit     int `json:"requests_limit"`
	ResetSeconds      int `json:"reset_seconds"`
}

// represents a websocket client connection
type Client struct {
	// unique identifier for this client
	ID string

	// chat session this client is attached to
	SessionID string

	// token subject (empty for anonymous callers)
	Subject string

	// IP address of the client (for connection tracking)
	IPAddress string

	// environment and history to send on connect
	InitialEnvironment string
	InitialHistory     []HistoryMessage

	// websocket connection
	conn *websocket.Conn

	// hub reference for message routing
	hub *Hub

	// buffered channel of outbound messages
	send chan []byte

	// mutex for thread-safe operations
	mu sync.RWMutex

	// flag indicating if client is closed
	closed bool

	// set while an agent request is running
	busy bool

	// rate limiting: agent request timestamps (sliding window)
	agentRequestTimestamps []time.Time
}

// maintains the set of active clients grouped by chat session
type Hub struct {
	// registered clients by session ID and client ID
	sessions map[string]map[string]*Client

	// register requests from clients
	Register chan *Client

	// unregister requests from clients
	Unregister chan *Client

	// inbound messages from clients
	Inbound chan *Message

	// mutex for thread-safe access to sessions
	mu sync.RWMutex

	// message handlers for different message types
	handlers map[string]MessageHandler

	// channel to signal shutdown; closed once, a hub that was shut down stays down
	shutdown     chan struct{}
	shutdownOnce sync.Once

	// connection tracking: subject -> count of connections
	subjectConnections map[string]int

	// connection tracking: IP address -> count of connections
	ipConnections map[string]int

	// sequence numbers per session for message ordering
	sessionSequences map[string]uint64
}

// processes a specific message type
type MessageHandler func(hub *Hub, client *Client, msg *Message) error

// creates a new message with the given payload
func NewMessage(msgType, sessionID string, payload any) (*Message, error) {
	var raw json.RawMessage

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}

	return &Message{
		Type:      msgType,
		SessionID: sessionID,
		Timestamp: time.Now(),
		Payload:   raw,
	}, nil
}

// decodes the message payload into v
func (m *Message) UnmarshalPayload(v any) error {
	if len(m.Payload) == 0 {
		return ErrInvalidMessage
	}

	return json.Unmarshal(m.Payload, v)
}
