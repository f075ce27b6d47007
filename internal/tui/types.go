package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
)

// represents the current state of the TUI
type AppState int

const (
	StateWelcome AppState = iota
	StateChat
)

type Options struct {
	ServerURL   string // e.g. http://localhost:8080
	Environment string // preselected environment; the welcome screen is skipped when set
	Token       string // optional bearer token
	Stream      bool   // use the websocket endpoint and show steps as they happen
	Width       int
}

// main TUI application model
type Model struct {
	state   AppState
	opts    Options
	width   int
	height  int
	err     error
	welcome *Welcome
	chat    *ChatModel
}

// sent when an error occurs
type ErrorMsg struct {
	err error
}

// sent when an environment has been picked
type EnterChatMsg struct {
	environment string
}

// a rendered turn of the conversation
type ChatMessage struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Metadata string `json:"-"`
}

// step of a streamed agent run
type StepView struct {
	Iteration   int    `json:"iteration"`
	Thought     string `json:"thought,omitempty"`
	Action      string `json:"action,omitempty"`
	ActionInput string `json:"action_input,omitempty"`
	Observation string `json:"observation"`
}

// chat interface
type ChatModel struct {
	input       textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	renderer    *glamour.TermRenderer
	width       int
	height      int
	environment string
	sessionID   string
	history     []ChatMessage
	steps       []StepView
	isFetching  bool
	ready       bool
	rest        *AgentClient
	ws          *WSClient
}

// sent when the agent completes a request
type AgentResponseMsg struct {
	answer     string
	domain     string
	iterations int
	completed  bool
	sessionID  string
	steps      []StepView
}

// sent when the agent request fails
type AgentErrorMsg struct {
	err error
}

// sent for each streamed step
type AgentStepMsg struct {
	step StepView
}

// sent once the websocket session is open
type WSConnectedMsg struct {
	sessionID string
}

// welcome screen model
type Welcome struct {
	environments []string
	cursor       int
	serverURL    string
}
