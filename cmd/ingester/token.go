package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"codeberg.org/qapilot/server/internal/auth"
)

var (
	tokenSubject string
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a JWT for the protected endpoints",
	Long: `Signs a token with JWT_SECRET. The server requires one for running tests
and adding documents when JWT_SECRET is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			return errors.New("JWT_SECRET is not set")
		}

		token, err := auth.GenerateJWT(secret, tokenSubject, tokenRole, tokenTTL)
		if err != nil {
			return err
		}

		cmd.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "ci", "token subject, logged with every protected request")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "runner", "role claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
