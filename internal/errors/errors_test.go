package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/qapilot/server/internal/agent"
	"codeberg.org/qapilot/server/internal/config"
	"codeberg.org/qapilot/server/internal/environment"
	"codeberg.org/qapilot/server/internal/executor"
	"codeberg.org/qapilot/server/internal/llm"
	"codeberg.org/qapilot/server/internal/retriever"
	"codeberg.org/qapilot/server/internal/sessions"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func respond(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/test", nil)

	FromDomainError(c, err)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return w.Code, body
}

func TestFromDomainError(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "empty agent query",
			err:      agent.ErrEmptyQuery,
			wantCode: http.StatusBadRequest,
			wantErr:  CodeValidationError,
		},
		{
			name:     "invalid k",
			err:      fmt.Errorf("search: %w", retriever.ErrInvalidK),
			wantCode: http.StatusBadRequest,
			wantErr:  CodeValidationError,
		},
		{
			name:     "invalid class name inside an execution fault",
			err:      &executor.ExecutionFault{Command: "mvn test", Err: fmt.Errorf("%w: %q", executor.ErrInvalidClassName, "1abc")},
			wantCode: http.StatusBadRequest,
			wantErr:  CodeValidationError,
		},
		{
			name:     "unknown domain",
			err:      environment.DefaultBindings().ValidateDomain("dev.example"),
			wantCode: http.StatusBadRequest,
			wantErr:  CodeValidationError,
		},
		{
			name:     "retrieval failure",
			err:      &retriever.RetrievalError{Op: "query", Err: errors.New("connection refused")},
			wantCode: http.StatusServiceUnavailable,
			wantErr:  CodeServiceUnavailable,
		},
		{
			name:     "generation failure",
			err:      &llm.GenerationError{Provider: "gemini", Model: "m", Err: errors.New("quota")},
			wantCode: http.StatusServiceUnavailable,
			wantErr:  CodeServiceUnavailable,
		},
		{
			name:     "configuration error",
			err:      &config.ConfigurationError{Key: "GOOGLE_API_KEY", Reason: "environment variable is required"},
			wantCode: http.StatusInternalServerError,
			wantErr:  CodeConfiguration,
		},
		{
			name:     "missing session",
			err:      sessions.ErrSessionNotFound,
			wantCode: http.StatusNotFound,
			wantErr:  CodeSessionNotFound,
		},
		{
			name:     "anything else",
			err:      errors.New("boom"),
			wantCode: http.StatusInternalServerError,
			wantErr:  CodeServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := respond(t, tt.err)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantErr, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestSanitizeError_Production(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	assert.Equal(t, "request timed out", Sanitize(context.DeadlineExceeded))
	assert.Equal(t, "connection error occurred", Sanitize(errors.New("dial tcp 127.0.0.1:5432: connection refused")))
	assert.Equal(t, "database operation failed", Sanitize(errors.New("badger: txn too big")))
	assert.Equal(t, "an error occurred", Sanitize(errors.New("boom")))
	assert.Empty(t, Sanitize(nil))
}

func TestSanitizeError_Development(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	assert.Equal(t, "dial tcp: connection refused", Sanitize(errors.New("dial tcp: connection refused")))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(fmt.Errorf("wrap: %w", retriever.ErrEmptyQuery)))
	assert.False(t, IsValidation(errors.New("query cannot be empty")))
	assert.False(t, IsValidation(nil))
}
