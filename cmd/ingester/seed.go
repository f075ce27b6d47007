package main

import (
	"github.com/spf13/cobra"

	"codeberg.org/qapilot/server/internal/knowledge"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the built-in starter documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kb, err := openKnowledgeBase(cmd.Context())
		if err != nil {
			return err
		}
		defer kb.Close()

		return kb.ingest(cmd, knowledge.SeedDocuments(kb.bindings))
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
