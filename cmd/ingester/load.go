package main

import (
	"errors"

	"github.com/spf13/cobra"

	"codeberg.org/qapilot/server/internal/knowledge"
)

var loadFile string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load documents from a YAML file",
	Long: `Loads documents from a YAML file holding either a list of documents
or a mapping with a "documents" key. Each document has an optional id,
content and string metadata (type, domain, environment, framework, ...).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loadFile == "" {
			return errors.New("--file is required")
		}

		docs, err := knowledge.LoadFile(loadFile)
		if err != nil {
			return err
		}

		kb, err := openKnowledgeBase(cmd.Context())
		if err != nil {
			return err
		}
		defer kb.Close()

		return kb.ingest(cmd, docs)
	},
}

func init() {
	loadCmd.Flags().StringVarP(&loadFile, "file", "f", "", "YAML file with documents")
	rootCmd.AddCommand(loadCmd)
}
