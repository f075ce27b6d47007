package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"codeberg.org/qapilot/server/internal/environment"
	"codeberg.org/qapilot/server/internal/tui"
)

const defaultServerURL = "http://localhost:8080"

var opts tui.Options

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Terminal chat client for the QA Pilot agent",
	Long: `Opens a chat with the test automation agent. Pick an environment on the
welcome screen or pass --env to start chatting right away.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load() //nolint:errcheck
	},
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&opts.ServerURL, "server", "s", "", "server base URL (default $QAPILOT_SERVER or "+defaultServerURL+")")
	rootCmd.Flags().StringVarP(&opts.Environment, "env", "e", "", "environment to chat about: QA, STAGE or PROD")
	rootCmd.Flags().StringVarP(&opts.Token, "token", "t", "", "bearer token (default $QAPILOT_TOKEN)")
	rootCmd.Flags().BoolVar(&opts.Stream, "stream", false, "stream agent steps over the websocket endpoint")
}

func run(cmd *cobra.Command, args []string) error {
	if opts.ServerURL == "" {
		opts.ServerURL = os.Getenv("QAPILOT_SERVER")
	}
	if opts.ServerURL == "" {
		opts.ServerURL = defaultServerURL
	}

	if opts.Token == "" {
		opts.Token = os.Getenv("QAPILOT_TOKEN")
	}

	if opts.Environment != "" {
		if !environment.Valid(opts.Environment) {
			return fmt.Errorf("unknown environment %q, expected QA, STAGE or PROD", opts.Environment)
		}
		opts.Environment = string(environment.Parse(opts.Environment))
	}

	if width, _, err := term.GetSize(os.Stdout.Fd()); err == nil {
		opts.Width = width
	}

	app, err := tui.NewApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running chat: %w", err)
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
