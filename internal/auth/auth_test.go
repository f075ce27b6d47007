package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing"

func TestGenerateJWT_Success(t *testing.T) {
	token, err := GenerateJWT(testSecret, "ci-runner", "runner", time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(token, ".")), "JWT should have 3 parts")
}

func TestGenerateJWT_MissingSecret(t *testing.T) {
	_, err := GenerateJWT("", "ci-runner", "", 0)

	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestValidateJWT_ValidToken(t *testing.T) {
	token, err := GenerateJWT(testSecret, "ci-runner", "runner", 0)
	require.NoError(t, err)

	claims, err := ValidateJWT(testSecret, token)

	require.NoError(t, err)
	assert.Equal(t, "ci-runner", claims.Subject)
	assert.Equal(t, "runner", claims.Role)
	assert.Equal(t, "qapilot", claims.Issuer)
}

func TestValidateJWT_ExpiredToken(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ci-runner",
			Issuer:    "qapilot",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ValidateJWT(testSecret, tokenString)

	assert.Error(t, err, "Expired token should be rejected")
}

func TestValidateJWT_WrongSecretOrTampered(t *testing.T) {
	token, err := GenerateJWT(testSecret, "ci-runner", "", 0)
	require.NoError(t, err)

	_, err = ValidateJWT("another-secret", token)
	assert.Error(t, err)

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = ValidateJWT(testSecret, tampered)
	assert.Error(t, err)
}

func TestValidateJWT_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "x", Issuer: "qapilot"},
	})

	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateJWT(testSecret, tokenString)
	assert.Error(t, err)
}

func newProtectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/protected", AuthMiddleware(testSecret), func(c *gin.Context) {
		subject, _ := GetSubject(c)
		c.String(http.StatusOK, subject)
	})
	r.GET("/optional", OptionalAuthMiddleware(testSecret), func(c *gin.Context) {
		subject, ok := GetSubject(c)
		if !ok {
			subject = "anonymous"
		}
		c.String(http.StatusOK, subject)
	})

	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newProtectedRouter()

	token, err := GenerateJWT(testSecret, "ci-runner", "", 0)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "Bearer not-a-token", http.StatusUnauthorized, ""},
		{"valid token", "Bearer " + token, http.StatusOK, "ci-runner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	r := newProtectedRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/optional", nil))
	assert.Equal(t, "anonymous", w.Body.String())

	token, err := GenerateJWT(testSecret, "ci-runner", "", 0)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/optional", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "ci-runner", w.Body.String())
}

func TestOptionalAuthMiddleware_SubjectOnRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ctx", OptionalAuthMiddleware(testSecret), func(c *gin.Context) {
		subject, ok := SubjectFromContext(c.Request.Context())
		if !ok {
			subject = "none"
		}
		c.String(http.StatusOK, subject)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ctx", nil))
	assert.Equal(t, "none", w.Body.String())

	token, err := GenerateJWT(testSecret, "ci-runner", "", 0)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ctx", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "ci-runner", w.Body.String())
}

func TestSubjectFromContext_EmptySubject(t *testing.T) {
	_, ok := SubjectFromContext(WithSubject(context.Background(), ""))
	assert.False(t, ok)
}
