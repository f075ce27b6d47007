package vectorstore

import (
	"context"
	"errors"
)

var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrEmptyEmbedding    = errors.New("embedding is empty")
	ErrMissingID         = errors.New("document id is required")
)

// a similarity-searchable document collection
type Store interface {
	// upserts documents by id
	Add(ctx context.Context, docs ...Document) error

	// returns up to k documents matching the filter, nearest first
	Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]Match, error)

	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Close() error
}

type Document struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata"`
	Embedding []float32         `json:"embedding"`
}

// a document returned by Query with its cosine distance to the query (lower is closer)
type Match struct {
	ID       string
	Content  string
	Metadata map[string]string
	Distance float64
}

func (d Document) validate() error {
	if d.ID == "" {
		return ErrMissingID
	}

	if len(d.Embedding) == 0 {
		return ErrEmptyEmbedding
	}

	return nil
}
