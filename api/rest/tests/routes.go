package tests

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/qapilot/server/internal/environment"
)

// running a test goes through guard (the auth middleware when a JWT secret is configured)
func RegisterRoutes(router *gin.RouterGroup, generator Generator, runner Runner, bindings *environment.Bindings, guard ...gin.HandlerFunc) {
	testsGroup := router.Group("/tests")
	{
		testsGroup.POST("/generate", GenerateHandler(generator, bindings))
		testsGroup.POST("/run", append(guard, RunHandler(runner))...)
	}
}
