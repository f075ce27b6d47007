package knowledge

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/qapilot/server/internal/environment"
	"codeberg.org/qapilot/server/internal/errors"
	"codeberg.org/qapilot/server/internal/knowledge"
)

type Answerer interface {
	Answer(ctx context.Context, query, envDomain string) (string, error)
	ResolveDomain(envDomain string) string
}

type ContextRetriever interface {
	Retrieve(ctx context.Context, query, domainFilter string, k int) (string, error)
}

type Ingestor interface {
	Ingest(ctx context.Context, docs []knowledge.Document) (int, error)
}

// QueryHandler godoc
// @Summary Ask the knowledge base
// @Description Answers a question from documents scoped to the environment's domain and general documents
// @Tags knowledge
// @Accept json
// @Produce json
// @Param request body QueryRequest true "Query request"
// @Success 200 {object} QueryResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/v1/knowledge/query [post]
func QueryHandler(answerer Answerer, bindings *environment.Bindings) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		envDomain, ok := domainFor(bindings, req.Environment)
		if !ok {
			unknownEnvironment(c, req.Environment)
			return
		}

		domain := answerer.ResolveDomain(envDomain)

		answer, err := answerer.Answer(c.Request.Context(), req.Query, domain)
		if err != nil {
			errors.FromDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, QueryResponse{Answer: answer, Domain: domain})
	}
}

// ContextHandler godoc
// @Summary Retrieve knowledge-base context
// @Description Returns the formatted documents that would be given to the model for a query
// @Tags knowledge
// @Accept json
// @Produce json
// @Param request body ContextRequest true "Context request"
// @Success 200 {object} ContextResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/v1/knowledge/context [post]
func ContextHandler(retriever ContextRetriever, bindings *environment.Bindings, defaultK int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ContextRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		k := req.K
		if k == 0 {
			k = defaultK
		}

		domain, ok := domainFor(bindings, req.Environment)
		if !ok {
			unknownEnvironment(c, req.Environment)
			return
		}

		text, err := retriever.Retrieve(c.Request.Context(), req.Query, domain, k)
		if err != nil {
			errors.FromDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, ContextResponse{Context: text, Domain: domain, K: k})
	}
}

// AddDocumentsHandler godoc
// @Summary Add knowledge-base documents
// @Description Embeds and stores documents; every domain must be a bound environment domain or "general"
// @Tags knowledge
// @Accept json
// @Produce json
// @Param request body AddDocumentsRequest true "Documents"
// @Success 201 {object} AddDocumentsResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/knowledge/documents [post]
func AddDocumentsHandler(ingestor Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddDocumentsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		docs := make([]knowledge.Document, len(req.Documents))
		for i, d := range req.Documents {
			docs[i] = knowledge.Document{ID: d.ID, Content: d.Content, Metadata: d.Metadata}
		}

		added, err := ingestor.Ingest(c.Request.Context(), docs)
		if err != nil {
			errors.FromDomainError(c, err)
			return
		}

		c.JSON(http.StatusCreated, AddDocumentsResponse{Added: added})
	}
}

// maps an environment name to its domain; an empty name means no filter.
// ok is false for names that are not QA, STAGE (STG) or PROD.
func domainFor(bindings *environment.Bindings, env string) (string, bool) {
	if env == "" {
		return "", true
	}

	if !environment.Valid(env) {
		return "", false
	}

	return bindings.Resolve(env), true
}

func unknownEnvironment(c *gin.Context, env string) {
	errors.BadRequest(c, fmt.Sprintf("unknown environment %q; expected QA, STAGE or PROD", env), nil)
}
