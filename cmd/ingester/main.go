package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"codeberg.org/qapilot/server/internal/config"
	"codeberg.org/qapilot/server/internal/environment"
	"codeberg.org/qapilot/server/internal/knowledge"
	"codeberg.org/qapilot/server/internal/llm"
	"codeberg.org/qapilot/server/internal/logger"
	"codeberg.org/qapilot/server/internal/vectorstore"
)

var flags config.Flags

var rootCmd = &cobra.Command{
	Use:   "ingester",
	Short: "Manage the test-automation knowledge base",
	Long: `Loads documents into the vector store used for retrieval.
Documents carry a domain (general or one of the QA, STAGE and PROD domains)
that scopes which environment sees them.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			_ = err // not an error - production environments may not have .env file
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flags.Clear, "clear", false, "remove every document before ingesting")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// the vector store and an ingestor bound to the configured domains
type knowledgeBase struct {
	store    vectorstore.Store
	ingestor *knowledge.Ingestor
	bindings *environment.Bindings
}

func openKnowledgeBase(ctx context.Context) (*knowledgeBase, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	llmClient, err := llm.NewLLM(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	store, err := vectorstore.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	bindings := environment.NewBindings(cfg.DomainQA, cfg.DomainStage, cfg.DomainProd)

	logger.Info("opened knowledge base", "vector_store", cfg.VectorStore)

	return &knowledgeBase{
		store:    store,
		ingestor: knowledge.NewIngestor(llmClient, store, bindings),
		bindings: bindings,
	}, nil
}

func (kb *knowledgeBase) Close() {
	kb.store.Close() //nolint:errcheck,gosec // best-effort cleanup
}

// optionally clears the store, ingests docs and reports the new total
func (kb *knowledgeBase) ingest(cmd *cobra.Command, docs []knowledge.Document) error {
	ctx := cmd.Context()

	if flags.Clear {
		logger.Info("clearing existing documents")

		if err := kb.ingestor.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear existing documents: %w", err)
		}
	}

	added, err := kb.ingestor.Ingest(ctx, docs)
	if err != nil {
		return err
	}

	total, err := kb.ingestor.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify document count: %w", err)
	}

	logger.Info("ingestion complete", "added", added, "total", total)
	cmd.Printf("added %d documents (%d total)\n", added, total)

	return nil
}
