package retriever

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuery = errors.New("query cannot be empty")
	ErrInvalidK   = errors.New("k must be at least 1")
)

// a candidate document returned for a single query, never persisted
type Item struct {
	ID       string
	Content  string
	Metadata map[string]string
	Distance float64
}

// returns the document type, or N/A
func (i Item) Type() string {
	return metadataOr(i.Metadata, "type")
}

// returns the document domain, or N/A
func (i Item) Domain() string {
	return metadataOr(i.Metadata, "domain")
}

// the vector store or the embedding provider could not serve a query
type RetrievalError struct {
	Op  string // "embed" or "query"
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed during %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

func metadataOr(md map[string]string, key string) string {
	if v, ok := md[key]; ok && v != "" {
		return v
	}

	return "N/A"
}
