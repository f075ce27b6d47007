package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/qapilot/server/internal/environment"
)

// returns a new welcome screen; PROD is preselected
func NewWelcome(serverURL string) *Welcome {
	environments := make([]string, len(environment.All))
	for i, env := range environment.All {
		environments[i] = string(env)
	}

	return &Welcome{
		environments: environments,
		cursor:       len(environments) - 1,
		serverURL:    serverURL,
	}
}

func (m *Welcome) Update(msg tea.Msg) (*Welcome, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.environments)-1 {
			m.cursor++
		}
	case "1", "2", "3":
		m.cursor = int(keyMsg.String()[0] - '1')
		return m, m.enter()
	case "q":
		return m, tea.Quit
	case "enter":
		return m, m.enter()
	}

	return m, nil
}

func (m *Welcome) Selected() string {
	return m.environments[m.cursor]
}

func (m *Welcome) enter() tea.Cmd {
	environment := m.Selected()

	return func() tea.Msg {
		return EnterChatMsg{environment: environment}
	}
}

func (m *Welcome) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(logo))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("generate, run and debug UI tests by chatting"))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render("server: " + m.serverURL))
	b.WriteString("\n\n")
	b.WriteString(userStyle.Render("environment:"))
	b.WriteString("\n\n")

	for i, env := range m.environments {
		line := fmt.Sprintf("%d. %s", i+1, env)

		if i == m.cursor {
			b.WriteString(menuItemSelectedStyle.Render("> " + line))
		} else {
			b.WriteString(menuItemStyle.Render("  " + line))
		}

		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ or 1-3 to choose, enter to start, q to quit."))

	return b.String()
}
