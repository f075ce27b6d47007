package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/qapilot/server/internal/environment"
	"codeberg.org/qapilot/server/internal/knowledge"
	"codeberg.org/qapilot/server/internal/retriever"
	"codeberg.org/qapilot/server/internal/vectorstore"
)

type mockAnswerer struct {
	gotDomain  string
	answerFunc func(ctx context.Context, query, envDomain string) (string, error)
}

func (m *mockAnswerer) Answer(ctx context.Context, query, envDomain string) (string, error) {
	m.gotDomain = envDomain

	if m.answerFunc != nil {
		return m.answerFunc(ctx, query, envDomain)
	}

	return "answer", nil
}

func (m *mockAnswerer) ResolveDomain(envDomain string) string {
	if envDomain == "" {
		return "my.charitableimpact.com"
	}

	return envDomain
}

type mockRetriever struct {
	gotDomain    string
	gotK         int
	retrieveFunc func(ctx context.Context, query, domainFilter string, k int) (string, error)
}

func (m *mockRetriever) Retrieve(ctx context.Context, query, domainFilter string, k int) (string, error) {
	m.gotDomain = domainFilter
	m.gotK = k

	if m.retrieveFunc != nil {
		return m.retrieveFunc(ctx, query, domainFilter, k)
	}

	return "Document ID: 1, Type: concept, Domain: general\nContent: POM", nil
}

type mockEmbedder struct{}

func (mockEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (mockEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}

	return out, nil
}

func setupRouter(answerer *mockAnswerer, ret *mockRetriever, store vectorstore.Store, guard ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	bindings := environment.DefaultBindings()
	router := gin.New()

	RegisterRoutes(router.Group("/api/v1"), Handlers{
		Answerer:  answerer,
		Retriever: ret,
		Ingestor:  knowledge.NewIngestor(mockEmbedder{}, store, bindings),
		Bindings:  bindings,
		TopK:      3,
	}, guard...)

	return router
}

func post(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body) //nolint:errcheck
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func TestQueryHandler(t *testing.T) {
	answerer := &mockAnswerer{}
	router := setupRouter(answerer, &mockRetriever{}, vectorstore.NewMemoryStore())

	w := post(router, "/api/v1/knowledge/query", QueryRequest{Query: "known STAGE bugs?", Environment: "stage"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "answer", resp.Answer)
	assert.Equal(t, "my.stg.charitableimpact.com", resp.Domain)
	assert.Equal(t, "my.stg.charitableimpact.com", answerer.gotDomain)

	// no environment narrows to PROD
	w = post(router, "/api/v1/knowledge/query", QueryRequest{Query: "alerts?"})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "my.charitableimpact.com", resp.Domain)
}

func TestQueryHandler_RetrievalFailure(t *testing.T) {
	answerer := &mockAnswerer{
		answerFunc: func(ctx context.Context, query, envDomain string) (string, error) {
			return "", &retriever.RetrievalError{Op: "query", Err: errors.New("connection refused")}
		},
	}
	router := setupRouter(answerer, &mockRetriever{}, vectorstore.NewMemoryStore())

	w := post(router, "/api/v1/knowledge/query", QueryRequest{Query: "q"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestContextHandler(t *testing.T) {
	ret := &mockRetriever{}
	router := setupRouter(&mockAnswerer{}, ret, vectorstore.NewMemoryStore())

	w := post(router, "/api/v1/knowledge/context", ContextRequest{Query: "page objects"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", ret.gotDomain, "no environment means no filter")
	assert.Equal(t, 3, ret.gotK)

	w = post(router, "/api/v1/knowledge/context", ContextRequest{Query: "page objects", Environment: "QA", K: 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "my.qa.charitableimpact.com", ret.gotDomain)
	assert.Equal(t, 5, ret.gotK)

	w = post(router, "/api/v1/knowledge/context", ContextRequest{Query: "q", K: 50})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlers_RejectUnknownEnvironment(t *testing.T) {
	answerer := &mockAnswerer{}
	ret := &mockRetriever{}
	router := setupRouter(answerer, ret, vectorstore.NewMemoryStore())

	w := post(router, "/api/v1/knowledge/query", QueryRequest{Query: "known DEV bugs?", Environment: "DEV"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown environment")
	assert.Empty(t, answerer.gotDomain, "nothing is answered for an unknown environment")

	w = post(router, "/api/v1/knowledge/context", ContextRequest{Query: "page objects", Environment: "staging"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ret.gotDomain)

	// STG is an accepted alias
	w = post(router, "/api/v1/knowledge/context", ContextRequest{Query: "page objects", Environment: "stg"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "my.stg.charitableimpact.com", ret.gotDomain)
}

func TestAddDocumentsHandler(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	router := setupRouter(&mockAnswerer{}, &mockRetriever{}, store)

	w := post(router, "/api/v1/knowledge/documents", AddDocumentsRequest{
		Documents: []DocumentInput{
			{ID: "qa-1", Content: "QA uses the 'loginBtn' id.", Metadata: map[string]string{"domain": "my.qa.charitableimpact.com", "type": "feature_doc"}},
			{Content: "Prefer CSS selectors.", Metadata: map[string]string{"domain": "general"}},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp AddDocumentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Added)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAddDocumentsHandler_Rejects(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	router := setupRouter(&mockAnswerer{}, &mockRetriever{}, store)

	w := post(router, "/api/v1/knowledge/documents", AddDocumentsRequest{
		Documents: []DocumentInput{{Content: "x", Metadata: map[string]string{"domain": "dev.example.com"}}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(router, "/api/v1/knowledge/documents", AddDocumentsRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(router, "/api/v1/knowledge/documents", AddDocumentsRequest{Documents: []DocumentInput{{Content: "   "}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAddDocumentsHandler_Guarded(t *testing.T) {
	deny := func(c *gin.Context) {
		c.AbortWithStatus(http.StatusUnauthorized)
	}
	router := setupRouter(&mockAnswerer{}, &mockRetriever{}, vectorstore.NewMemoryStore(), deny)

	w := post(router, "/api/v1/knowledge/documents", AddDocumentsRequest{Documents: []DocumentInput{{Content: "x"}}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// reads stay open
	w = post(router, "/api/v1/knowledge/query", QueryRequest{Query: "q"})
	assert.Equal(t, http.StatusOK, w.Code)
}
