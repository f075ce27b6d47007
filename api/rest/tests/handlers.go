package tests

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/qapilot/server/internal/auth"
	"codeberg.org/qapilot/server/internal/codegen"
	"codeberg.org/qapilot/server/internal/environment"
	"codeberg.org/qapilot/server/internal/errors"
	"codeberg.org/qapilot/server/internal/executor"
	"codeberg.org/qapilot/server/internal/logger"
)

// longest build output returned to the client
const maxOutputBytes = 16 * 1024

type Generator interface {
	Generate(ctx context.Context, query, framework, envDomain string) (string, error)
}

type Runner interface {
	RunTest(ctx context.Context, code, className string) (*executor.Report, error)
}

// GenerateHandler godoc
// @Summary Generate a test
// @Description Generates a test class for a scenario using the knowledge base of the selected environment
// @Tags tests
// @Accept json
// @Produce json
// @Param request body GenerateRequest true "Generation request"
// @Success 200 {object} GenerateResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/v1/tests/generate [post]
func GenerateHandler(generator Generator, bindings *environment.Bindings) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		framework := req.Framework
		if framework == "" {
			framework = codegen.DefaultFramework
		}

		domain := bindings.Resolve(req.Environment)

		code, err := generator.Generate(c.Request.Context(), req.Query, framework, domain)
		if err != nil {
			errors.FromDomainError(c, err)
			return
		}

		className := executor.InferClassName(code)

		c.JSON(http.StatusOK, GenerateResponse{
			Code:      code,
			ClassName: className,
			Framework: framework,
			Domain:    domain,
		})
	}
}

// RunHandler godoc
// @Summary Run a test
// @Description Writes the test class into the build project and runs the test command. A failing build is a FAIL verdict, not an error.
// @Tags tests
// @Accept json
// @Produce json
// @Param request body RunRequest true "Run request"
// @Success 200 {object} RunResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/tests/run [post]
func RunHandler(runner Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RunRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		code := req.Code
		if block, ok := codegen.ExtractFencedBlock(code, "java"); ok {
			code = block
		}

		className := req.ClassName
		if className == "" {
			className = executor.InferClassName(code)
		}

		report, err := runner.RunTest(c.Request.Context(), code, className)
		if err != nil && errors.IsValidation(err) {
			errors.ValidationError(c, err)
			return
		}

		if report == nil {
			errors.FromDomainError(c, err)
			return
		}

		subject, _ := auth.GetSubject(c)
		logger.FromContext(c.Request.Context()).Info("test run finished",
			"verdict", report.Verdict,
			"exit_code", report.ExitCode,
			"class_name", className,
			"subject", subject,
		)

		resp := RunResponse{
			Verdict:    string(report.Verdict),
			ExitCode:   report.ExitCode,
			Output:     report.Output(maxOutputBytes),
			File:       report.FilePath,
			DurationMs: report.Duration.Milliseconds(),
		}

		// an execution fault is still a verdict
		if err != nil {
			resp.Error = err.Error()
		}

		c.JSON(http.StatusOK, resp)
	}
}
