package main

import (
	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of documents in the knowledge base",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kb, err := openKnowledgeBase(cmd.Context())
		if err != nil {
			return err
		}
		defer kb.Close()

		count, err := kb.ingestor.Count(cmd.Context())
		if err != nil {
			return err
		}

		cmd.Println(count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}
