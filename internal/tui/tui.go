package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// builds the app; with opts.Environment set the chat opens directly
func NewApp(opts Options) (*Model, error) {
	var ws *WSClient

	if opts.Stream {
		client, err := NewWSClient(opts.ServerURL, opts.Token, "")
		if err != nil {
			return nil, err
		}
		ws = client
	}

	m := &Model{
		state:   StateWelcome,
		opts:    opts,
		width:   opts.Width,
		welcome: NewWelcome(opts.ServerURL),
		chat:    NewChatModel(NewAgentClient(opts.ServerURL, opts.Token), ws, opts.Width),
	}

	if opts.Environment != "" {
		m.state = StateChat
		m.chat.SetEnvironment(opts.Environment)
	}

	return m, nil
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{}

	if m.chat.ws != nil {
		cmds = append(cmds, m.chat.ws.ConnectCmd())
	}

	if m.state == StateChat {
		cmds = append(cmds, m.chat.Init())
	}

	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.Close()
			return m, tea.Quit

		case "esc":
			// a running request keeps the chat screen
			if m.state == StateChat && !m.chat.isFetching {
				m.state = StateWelcome
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chat, _ = m.chat.Update(msg)
		return m, nil

	case ErrorMsg:
		m.err = msg.err
		return m, nil

	case WSConnectedMsg, AgentStepMsg, AgentResponseMsg, AgentErrorMsg:
		return m.updateChat(msg)

	case EnterChatMsg:
		m.state = StateChat
		m.chat.SetEnvironment(msg.environment)
		m.chat.refresh()
		return m, m.chat.Init()
	}

	switch m.state {
	case StateWelcome:
		return m.updateWelcome(msg)

	case StateChat:
		return m.updateChat(msg)

	default:
		return m, nil
	}
}

func (m *Model) View() string {
	if m.err != nil {
		return errorView(m.err)
	}

	switch m.state {
	case StateWelcome:
		return m.welcome.View()

	case StateChat:
		return m.chat.View()

	default:
		return "Unknown state"
	}
}

// closes the streaming connection if there is one
func (m *Model) Close() {
	if m.chat.ws != nil {
		m.chat.ws.Close()
	}
}

func (m *Model) updateWelcome(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.welcome, cmd = m.welcome.Update(msg)

	return m, cmd
}

func (m *Model) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)

	return m, cmd
}

func errorView(err error) string {
	return fmt.Sprintf("\n  Error: %v\n\n  Press Ctrl+C to exit\n", err)
}
