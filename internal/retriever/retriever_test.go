package retriever

import (
	"context"
	"errors"
	"testing"

	"codeberg.org/qapilot/server/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	prodDomain = "my.charitableimpact.com"
	qaDomain   = "my.qa.charitableimpact.com"
)

type mockEmbedder struct {
	embedFunc func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if m.embedFunc != nil {
		return m.embedFunc(ctx, text)
	}

	return []float32{1, 0}, nil
}

func (m *mockEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	for _, text := range texts {
		vec, err := m.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}

	return out, nil
}

// returns canned matches so distances are fully controlled by the test
type mockStore struct {
	vectorstore.Store
	matches   []vectorstore.Match
	err       error
	lastK     int
	lastQuery vectorstore.Filter
}

func (m *mockStore) Query(_ context.Context, _ []float32, k int, filter vectorstore.Filter) ([]vectorstore.Match, error) {
	m.lastK = k
	m.lastQuery = filter

	if m.err != nil {
		return nil, m.err
	}

	var out []vectorstore.Match

	for _, match := range m.matches {
		if filter.Matches(match.Metadata) {
			out = append(out, match)
		}
	}

	if len(out) > k {
		out = out[:k]
	}

	return out, nil
}

func match(id, domain string, distance float64) vectorstore.Match {
	md := map[string]string{"type": "test_case"}
	if domain != "" {
		md["domain"] = domain
	}

	return vectorstore.Match{ID: id, Content: "content " + id, Metadata: md, Distance: distance}
}

func TestSearch_ExactDomainOutranksCloserGeneral(t *testing.T) {
	store := &mockStore{matches: []vectorstore.Match{
		match("general-close", "general", 0.01),
		match("prod-far", prodDomain, 0.9),
	}}

	r := New(&mockEmbedder{}, store)

	items, err := r.Search(context.Background(), "login", prodDomain, 3)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "prod-far", items[0].ID)
	assert.Equal(t, "general-close", items[1].ID)
}

func TestSearch_NoOtherDomainLeaks(t *testing.T) {
	store := &mockStore{matches: []vectorstore.Match{
		match("qa", qaDomain, 0.05),
		match("general", "general", 0.2),
		match("untagged", "", 0.1),
		match("prod", prodDomain, 0.3),
	}}

	r := New(&mockEmbedder{}, store)

	items, err := r.Search(context.Background(), "login", prodDomain, 3)
	require.NoError(t, err)

	for _, item := range items {
		assert.Contains(t, []string{prodDomain, "general"}, item.Domain())
	}

	assert.Len(t, items, 2)
	assert.Equal(t, 6, store.lastK)
	assert.Len(t, store.lastQuery.Any, 2)
}

func TestSearch_UnfilteredIsPureDistanceOrder(t *testing.T) {
	store := &mockStore{matches: []vectorstore.Match{
		match("c", prodDomain, 0.7),
		match("a", qaDomain, 0.1),
		match("b", "general", 0.4),
	}}

	r := New(&mockEmbedder{}, store)

	items, err := r.Search(context.Background(), "login", "", 3)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, []string{"a", "b", "c"}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.True(t, store.lastQuery.IsEmpty())
}

func TestSearch_RespectsK(t *testing.T) {
	var matches []vectorstore.Match
	for i, id := range []string{"1", "2", "3", "4", "5"} {
		matches = append(matches, match(id, "general", float64(i)/10))
	}

	r := New(&mockEmbedder{}, &mockStore{matches: matches})

	items, err := r.Search(context.Background(), "login", prodDomain, 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	few := New(&mockEmbedder{}, &mockStore{matches: matches[:2]})

	items, err = few.Search(context.Background(), "login", prodDomain, 3)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSearch_Validation(t *testing.T) {
	r := New(&mockEmbedder{}, &mockStore{})

	_, err := r.Search(context.Background(), "   ", prodDomain, 3)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = r.Search(context.Background(), "login", prodDomain, 0)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestRetrieve_FailuresAreRetrievalErrors(t *testing.T) {
	embedFail := New(&mockEmbedder{
		embedFunc: func(_ context.Context, _ string) ([]float32, error) {
			return nil, errors.New("embedding service down")
		},
	}, &mockStore{})

	_, err := embedFail.Retrieve(context.Background(), "login", prodDomain, 3)

	var retrievalErr *RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, "embed", retrievalErr.Op)

	storeFail := New(&mockEmbedder{}, &mockStore{err: errors.New("connection refused")})

	_, err = storeFail.Retrieve(context.Background(), "login", prodDomain, 3)
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, "query", retrievalErr.Op)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRetrieve_EmptyResultIsEmptyString(t *testing.T) {
	r := New(&mockEmbedder{}, &mockStore{})

	out, err := r.Retrieve(context.Background(), "login", prodDomain, 3)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestFormat(t *testing.T) {
	items := []Item{
		{ID: "7", Content: "Register a user", Metadata: map[string]string{"type": "test_case", "domain": qaDomain}},
		{ID: "9", Content: "Untyped", Metadata: nil},
	}

	want := "Document ID: 7, Type: test_case, Domain: my.qa.charitableimpact.com\nContent: Register a user" +
		"\n\n" +
		"Document ID: 9, Type: N/A, Domain: N/A\nContent: Untyped"

	assert.Equal(t, want, Format(items))
	assert.Equal(t, "", Format(nil))
}

func TestRank_StableForTies(t *testing.T) {
	items := []Item{
		{ID: "first", Distance: 0.5, Metadata: map[string]string{"domain": "general"}},
		{ID: "second", Distance: 0.5, Metadata: map[string]string{"domain": "general"}},
		{ID: "exact", Distance: 2.5, Metadata: map[string]string{"domain": prodDomain}},
	}

	Rank(items, prodDomain)

	assert.Equal(t, []string{"exact", "first", "second"}, []string{items[0].ID, items[1].ID, items[2].ID})
}

func TestRetriever_WithMemoryStore(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx,
		vectorstore.Document{ID: "g", Content: "general", Metadata: map[string]string{"type": "how_to", "domain": "general"}, Embedding: []float32{1, 0}},
		vectorstore.Document{ID: "p", Content: "prod", Metadata: map[string]string{"type": "alert", "domain": prodDomain}, Embedding: []float32{0, 1}},
		vectorstore.Document{ID: "q", Content: "qa", Metadata: map[string]string{"type": "test_case", "domain": qaDomain}, Embedding: []float32{1, 0}},
	))

	r := New(&mockEmbedder{}, store)

	out, err := r.Retrieve(ctx, "anything", prodDomain, 3)
	require.NoError(t, err)

	assert.Equal(t,
		"Document ID: p, Type: alert, Domain: my.charitableimpact.com\nContent: prod\n\n"+
			"Document ID: g, Type: how_to, Domain: general\nContent: general",
		out)
}
