package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	colorWhite     = lipgloss.Color("#FFFFFF")
	colorLightGray = lipgloss.Color("#CCCCCC")
	colorGray      = lipgloss.Color("#888888")
	colorDarkGray  = lipgloss.Color("#444444")
	colorGreen     = lipgloss.Color("#3FB950")
	colorYellow    = lipgloss.Color("#D29922")
	colorRed       = lipgloss.Color("#F85149")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			MarginTop(1).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorLightGray).
			MarginBottom(1)

	menuItemStyle = lipgloss.NewStyle().
			Foreground(colorLightGray).
			PaddingLeft(2)

	menuItemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorWhite).
				Bold(true).
				PaddingLeft(2)

	userStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Bold(true)

	stepStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)

	successStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorGray)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDarkGray).
			Italic(true).
			MarginTop(1)
)

const logo = `
   ██████╗  █████╗     ██████╗ ██╗██╗      ██████╗ ████████╗
  ██╔═══██╗██╔══██╗    ██╔══██╗██║██║     ██╔═══██╗╚══██╔══╝
  ██║   ██║███████║    ██████╔╝██║██║     ██║   ██║   ██║
  ██║▄▄ ██║██╔══██║    ██╔═══╝ ██║██║     ██║   ██║   ██║
  ╚██████╔╝██║  ██║    ██║     ██║███████╗╚██████╔╝   ██║
   ╚══▀▀═╝ ╚═╝  ╚═╝    ╚═╝     ╚═╝╚══════╝ ╚═════╝    ╚═╝
`
