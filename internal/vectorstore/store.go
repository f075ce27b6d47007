package vectorstore

import (
	"context"
	"fmt"

	"codeberg.org/qapilot/server/internal/config"
)

// opens the backend selected by VECTOR_STORE
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.VectorStore {
	case config.StoreBadger:
		return NewBadgerStore(cfg.VectorStorePath)
	case config.StorePgvector:
		return NewPgvectorStore(ctx, cfg.DatabaseURL)
	case config.StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store: %s", cfg.VectorStore)
	}
}
