package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// rejects requests without a valid bearer token and stores the caller in the context
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "authorization header required"})
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "invalid authorization header format"})
			return
		}

		claims, err := ValidateJWT(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "invalid or expired token"})
			return
		}

		setCaller(c, claims)
		c.Next()
	}
}

// validates a bearer token if present but doesn't require it
func OptionalAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok && secret != "" {
			if claims, err := ValidateJWT(secret, token); err == nil {
				setCaller(c, claims)
			}
		}

		c.Next()
	}
}

// extracts the caller subject after AuthMiddleware
func GetSubject(c *gin.Context) (string, bool) {
	subject, exists := c.Get(ContextSubject)
	if !exists {
		return "", false
	}

	s, ok := subject.(string)
	return s, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

// stores the caller on the gin context and on the request context, which is
// what the services below the handlers see
func setCaller(c *gin.Context, claims *Claims) {
	c.Set(ContextSubject, claims.Subject)
	c.Set(ContextRole, claims.Role)

	c.Request = c.Request.WithContext(WithSubject(c.Request.Context(), claims.Subject))
}
