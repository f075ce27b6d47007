package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	headerHeight = 2
	footerHeight = 4
)

// returns a chat model; ws is nil when streaming is off
func NewChatModel(rest *AgentClient, ws *WSClient, width int) *ChatModel {
	ti := textinput.New()
	ti.Placeholder = "e.g. write a login test for Chrome and run it"
	ti.Focus()
	ti.CharLimit = 4000
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorLightGray)
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorWhite)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorGray)

	m := &ChatModel{
		input:   ti,
		spinner: sp,
		history: []ChatMessage{},
		rest:    rest,
		ws:      ws,
	}

	m.resize(width, 0)

	return m
}

func (m *ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *ChatModel) SetEnvironment(environment string) {
	m.environment = environment
}

func (m *ChatModel) resize(width, height int) {
	if width <= 0 {
		width = 80
	}

	m.width = width
	m.height = height
	m.input.Width = max(width-6, 10)

	vpHeight := max(height-headerHeight-footerHeight, 5)

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err == nil {
		m.renderer = renderer
	}

	m.refresh()
}

func (m *ChatModel) Update(msg tea.Msg) (*ChatModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return m, m.submit()

		case "ctrl+l":
			m.history = []ChatMessage{}
			m.steps = nil
			// a streaming session lives as long as the connection
			if m.ws == nil {
				m.sessionID = ""
			}
			m.refresh()
			return m, nil

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case WSConnectedMsg:
		m.sessionID = msg.sessionID
		m.refresh()
		return m, nil

	case AgentStepMsg:
		m.steps = append(m.steps, msg.step)
		m.refresh()

		// keep listening until the answer arrives
		return m, m.ws.WaitCmd()

	case AgentResponseMsg:
		m.isFetching = false
		if msg.sessionID != "" {
			m.sessionID = msg.sessionID
		}

		steps := msg.steps
		if len(steps) == 0 {
			steps = m.steps
		}

		if len(steps) > 0 {
			lines := make([]string, len(steps))
			for i, step := range steps {
				lines[i] = formatStep(step)
			}
			m.history = append(m.history, ChatMessage{Role: "steps", Content: strings.Join(lines, "\n")})
		}

		m.history = append(m.history, ChatMessage{
			Role:     "assistant",
			Content:  msg.answer,
			Metadata: formatMetadata(msg.domain, msg.iterations, msg.completed),
		})
		m.steps = nil
		m.refresh()
		m.input.Focus()
		return m, nil

	case AgentErrorMsg:
		m.isFetching = false
		m.steps = nil
		m.history = append(m.history, ChatMessage{Role: "error", Content: msg.err.Error()})
		m.refresh()
		m.input.Focus()
		return m, nil

	case spinner.TickMsg:
		if m.isFetching {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *ChatModel) submit() tea.Cmd {
	query := strings.TrimSpace(m.input.Value())
	if query == "" || m.isFetching {
		return nil
	}

	m.input.SetValue("")
	m.isFetching = true
	m.steps = nil
	m.history = append(m.history, ChatMessage{Role: "user", Content: query})
	m.refresh()

	request := m.rest.ChatCmd(query, m.environment, m.sessionID)
	if m.ws != nil {
		request = m.ws.SendCmd(query, m.environment)
	}

	return tea.Batch(request, m.spinner.Tick)
}

// re-renders the conversation into the viewport and scrolls to the end
func (m *ChatModel) refresh() {
	if !m.ready {
		return
	}

	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m *ChatModel) renderConversation() string {
	if len(m.history) == 0 && !m.isFetching {
		return infoStyle.Render("ask about a page, generate a test or run one. answers use the " + m.environment + " knowledge base.")
	}

	var b strings.Builder

	for _, msg := range m.history {
		switch msg.Role {
		case "user":
			b.WriteString(userStyle.Render("you: " + msg.Content))
		case "error":
			b.WriteString(errorStyle.Render("error: " + msg.Content))
		case "steps":
			b.WriteString(stepStyle.Render(msg.Content))
		default:
			b.WriteString(m.renderMarkdown(msg.Content))
			if msg.Metadata != "" {
				b.WriteString(infoStyle.Render(msg.Metadata))
			}
		}

		b.WriteString("\n\n")
	}

	for _, step := range m.steps {
		b.WriteString(stepStyle.Render(formatStep(step)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *ChatModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}

	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimRight(out, "\n")
}

func (m *ChatModel) View() string {
	var b strings.Builder

	session := "new session"
	if m.sessionID != "" {
		session = "session " + m.sessionID[:min(8, len(m.sessionID))]
	}

	header := fmt.Sprintf("%s  %s", successStyle.Render(m.environment), infoStyle.Render(session))
	b.WriteString(header)
	b.WriteString("\n\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	b.WriteString(borderStyle.Width(max(m.width-4, 10)).Render(m.input.View()))
	b.WriteString("\n")

	if m.isFetching {
		b.WriteString(m.spinner.View() + infoStyle.Render(" agent is working..."))
	} else {
		b.WriteString(helpStyle.Render("[enter: send] [ctrl+l: new session] [pgup/pgdown: scroll] [esc: environments] [ctrl+c: quit]"))
	}

	return b.String()
}
