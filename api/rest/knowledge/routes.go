package knowledge

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/qapilot/server/internal/environment"
)

type Handlers struct {
	Answerer  Answerer
	Retriever ContextRetriever
	Ingestor  Ingestor
	Bindings  *environment.Bindings
	TopK      int
}

// writes go through guard (the auth middleware when a JWT secret is configured)
func RegisterRoutes(router *gin.RouterGroup, h Handlers, guard ...gin.HandlerFunc) {
	knowledgeGroup := router.Group("/knowledge")
	{
		knowledgeGroup.POST("/query", QueryHandler(h.Answerer, h.Bindings))
		knowledgeGroup.POST("/context", ContextHandler(h.Retriever, h.Bindings, h.TopK))
		knowledgeGroup.POST("/documents", append(guard, AddDocumentsHandler(h.Ingestor))...)
	}
}
