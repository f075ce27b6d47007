package health

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/qapilot/server/internal/errors"
)

const (
	serviceName = "qapilot"
	version     = "1.0.0"
)

// number of documents in the knowledge base
type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}

// returns the server health status
func Handler(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Status:  "healthy",
		Service: serviceName,
		Version: version,
	})
}

// ReadyHandler godoc
// @Summary Readiness check
// @Description Reports whether the knowledge base is reachable and how many documents it holds
// @Tags health
// @Produce json
// @Success 200 {object} ReadyResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /health/ready [get]
func ReadyHandler(store DocumentCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := store.Count(c.Request.Context())
		if err != nil {
			errors.ServiceUnavailable(c, "knowledge base unavailable", err)
			return
		}

		status := "ready"
		if count == 0 {
			status = "empty"
		}

		c.JSON(http.StatusOK, ReadyResponse{Status: status, Documents: count})
	}
}

// responds with pong for testing
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{Message: "pong"})
}
