package retriever

import (
	"context"
	"sort"
	"strings"
	"time"

	"codeberg.org/qapilot/server/internal/environment"
	"codeberg.org/qapilot/server/internal/llm"
	"codeberg.org/qapilot/server/internal/metrics"
	"codeberg.org/qapilot/server/internal/vectorstore"
)

// how many candidates are requested from the store per requested result
const overfetchFactor = 2

// builds domain-scoped context blocks for prompts
type Retriever struct {
	embedder llm.Embedder
	store    vectorstore.Store
}

func New(embedder llm.Embedder, store vectorstore.Store) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
	}
}

// returns up to k formatted context blocks for the query; an empty domainFilter disables filtering
func (r *Retriever) Retrieve(ctx context.Context, query, domainFilter string, k int) (string, error) {
	items, err := r.Search(ctx, query, domainFilter, k)
	if err != nil {
		return "", err
	}

	return Format(items), nil
}

// returns up to k ranked items. with a domain filter only documents of that domain
// or the general domain are returned, and exact-domain documents always come first.
func (r *Retriever) Search(ctx context.Context, query, domainFilter string, k int) (items []Item, err error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	if k < 1 {
		return nil, ErrInvalidK
	}

	start := time.Now()
	defer func() {
		metrics.RetrievalDuration.
			WithLabelValues(filteredLabel(domainFilter), metrics.Status(err)).
			Observe(time.Since(start).Seconds())
	}()

	embedding, err := r.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Op: "embed", Err: err}
	}

	matches, err := r.store.Query(ctx, embedding, k*overfetchFactor, domainPredicate(domainFilter))
	if err != nil {
		return nil, &RetrievalError{Op: "query", Err: err}
	}

	items = make([]Item, 0, len(matches))

	for _, m := range matches {
		item := Item{
			ID:       m.ID,
			Content:  m.Content,
			Metadata: m.Metadata,
			Distance: m.Distance,
		}

		if domainFilter != "" && !inScope(item, domainFilter) {
			continue
		}

		items = append(items, item)
	}

	Rank(items, domainFilter)

	if len(items) > k {
		items = items[:k]
	}

	return items, nil
}

// sorts items in place. with a domain filter, items whose domain equals the filter
// precede all others regardless of distance; within a tier, and without a filter,
// items are ordered by ascending distance. ties keep their input order.
func Rank(items []Item, domainFilter string) {
	sort.SliceStable(items, func(i, j int) bool {
		if domainFilter != "" {
			ti, tj := tier(items[i], domainFilter), tier(items[j], domainFilter)
			if ti != tj {
				return ti < tj
			}
		}

		return items[i].Distance < items[j].Distance
	})
}

// renders items as "Document ID: ..." blocks separated by a blank line
func Format(items []Item) string {
	blocks := make([]string, 0, len(items))

	for _, item := range items {
		blocks = append(blocks, "Document ID: "+item.ID+
			", Type: "+item.Type()+
			", Domain: "+item.Domain()+
			"\nContent: "+item.Content)
	}

	return strings.Join(blocks, "\n\n")
}

func domainPredicate(domainFilter string) vectorstore.Filter {
	if domainFilter == "" {
		return vectorstore.Filter{}
	}

	return vectorstore.Or(
		vectorstore.Eq("domain", domainFilter),
		vectorstore.Eq("domain", environment.General),
	)
}

func inScope(item Item, domainFilter string) bool {
	domain := item.Metadata["domain"]
	return domain == domainFilter || domain == environment.General
}

func tier(item Item, domainFilter string) int {
	if item.Metadata["domain"] == domainFilter {
		return 0
	}

	return 1
}

func filteredLabel(domainFilter string) string {
	if domainFilter == "" {
		return "false"
	}

	return "true"
}
