package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codeberg.org/qapilot/server/internal/knowledge"
	"codeberg.org/qapilot/server/internal/logger"
)

var (
	docsMaxTokens int
	docsDomain    string
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Chunk and load a directory of markdown documentation",
	Long: `Splits every markdown file under --path into header-bounded chunks.
Frontmatter keys become chunk metadata; --domain applies to files that set none.`,
	Args: cobra.NoArgs,
	RunE: runDocs,
}

func init() {
	docsCmd.Flags().StringVarP(&flags.Path, "path", "p", "./docs", "directory of markdown files")
	docsCmd.Flags().IntVar(&docsMaxTokens, "max-tokens", knowledge.DefaultOptions().MaxTokens, "approximate chunk size")
	docsCmd.Flags().StringVar(&docsDomain, "domain", "", "domain for files without one in their frontmatter (default general)")
	rootCmd.AddCommand(docsCmd)
}

func runDocs(cmd *cobra.Command, args []string) error {
	logger.Info("chunking documentation files", "path", flags.Path)

	opts := knowledge.DefaultOptions()
	opts.MaxTokens = docsMaxTokens

	docs, errs := knowledge.ChunkDirectory(flags.Path, opts)
	for _, err := range errs {
		logger.Warn("chunking error", "error", err)
	}

	if len(docs) == 0 {
		return fmt.Errorf("no chunks generated from %s", flags.Path)
	}

	if docsDomain != "" {
		for i := range docs {
			if docs[i].Metadata[knowledge.MetaDomain] == "" {
				docs[i].Metadata[knowledge.MetaDomain] = docsDomain
			}
		}
	}

	logger.Info("generated chunks", "count", len(docs), "errors", len(errs))

	kb, err := openKnowledgeBase(cmd.Context())
	if err != nil {
		return err
	}
	defer kb.Close()

	return kb.ingest(cmd, docs)
}
