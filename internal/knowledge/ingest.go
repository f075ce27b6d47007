package knowledge

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/qapilot/server/internal/environment"
	"codeberg.org/qapilot/server/internal/llm"
	"codeberg.org/qapilot/server/internal/vectorstore"
	"github.com/google/uuid"
)

const defaultBatchSize = 32

// embeds knowledge documents and writes them to the vector store
type Ingestor struct {
	embedder  llm.Embedder
	store     vectorstore.Store
	bindings  *environment.Bindings
	batchSize int
}

func NewIngestor(embedder llm.Embedder, store vectorstore.Store, bindings *environment.Bindings) *Ingestor {
	if bindings == nil {
		bindings = environment.DefaultBindings()
	}

	return &Ingestor{
		embedder:  embedder,
		store:     store,
		bindings:  bindings,
		batchSize: defaultBatchSize,
	}
}

// validates, embeds and stores documents. Every document is checked before
// anything is written, so a bad document leaves the store untouched.
func (i *Ingestor) Ingest(ctx context.Context, docs []Document) (int, error) {
	prepared := make([]Document, 0, len(docs))

	for n, doc := range docs {
		p, err := i.prepare(doc)
		if err != nil {
			return 0, fmt.Errorf("document %d (%s): %w", n, doc.ID, err)
		}

		prepared = append(prepared, p)
	}

	written := 0

	for start := 0; start < len(prepared); start += i.batchSize {
		end := min(start+i.batchSize, len(prepared))
		batch := prepared[start:end]

		texts := make([]string, len(batch))
		for n, doc := range batch {
			texts[n] = doc.Content
		}

		embeddings, err := i.embedder.GenerateEmbeddings(ctx, texts)
		if err != nil {
			return written, fmt.Errorf("failed to generate embeddings: %w", err)
		}

		if len(embeddings) != len(batch) {
			return written, fmt.Errorf("embedder returned %d embeddings for %d documents", len(embeddings), len(batch))
		}

		records := make([]vectorstore.Document, len(batch))
		for n, doc := range batch {
			records[n] = vectorstore.Document{
				ID:        doc.ID,
				Content:   doc.Content,
				Metadata:  doc.Metadata,
				Embedding: embeddings[n],
			}
		}

		if err := i.store.Add(ctx, records...); err != nil {
			return written, fmt.Errorf("failed to store documents: %w", err)
		}

		written += len(batch)
	}

	return written, nil
}

// removes every document from the store
func (i *Ingestor) Clear(ctx context.Context) error {
	return i.store.Clear(ctx)
}

func (i *Ingestor) Count(ctx context.Context) (int, error) {
	return i.store.Count(ctx)
}

// fills in the id and type, and checks the content and the domain
func (i *Ingestor) prepare(doc Document) (Document, error) {
	doc.Content = strings.TrimSpace(doc.Content)
	if doc.Content == "" {
		return doc, ErrEmptyContent
	}

	md := make(map[string]string, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		md[k] = v
	}

	if md[MetaType] == "" {
		md[MetaType] = DefaultType
	}

	if err := i.bindings.ValidateDomain(md[MetaDomain]); err != nil {
		return doc, err
	}

	// documents tagged only with an environment get its domain
	if md[MetaDomain] == "" && md[MetaEnvironment] != "" && environment.Valid(md[MetaEnvironment]) {
		md[MetaDomain] = i.bindings.Resolve(md[MetaEnvironment])
	}

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	doc.Metadata = md

	return doc, nil
}
