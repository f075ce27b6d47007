package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// context keys set by the middleware
const (
	ContextSubject = "auth_subject"
	ContextRole    = "auth_role"
)

// represents JWT claims; the subject names the caller (a user or a CI job)
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}
