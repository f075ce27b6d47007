package vectorstore

import (
	"context"
	"sync"
)

// an in-process store, used for tests and ephemeral deployments
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (m *MemoryStore) Add(_ context.Context, docs ...Document) error {
	for _, doc := range docs {
		if err := doc.validate(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, doc := range docs {
		doc.Metadata = copyMetadata(doc.Metadata)
		m.docs[doc.ID] = doc
	}

	return nil
}

func (m *MemoryStore) Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	docs := make([]Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	m.mu.RUnlock()

	return rank(docs, embedding, k, filter)
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.docs), nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs = make(map[string]Document)

	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
