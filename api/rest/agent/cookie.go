package agent

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"codeberg.org/qapilot/server/internal/logger"
)

const (
	cookieName     = "qapilot_chat"
	cookieSessionK = "session_id"
)

// remembers the chat session id in a signed cookie
type SessionCookies struct {
	store sessions.Store
}

// returns nil when secret is empty; a nil *SessionCookies is a no-op
func NewSessionCookies(secret string, secure bool, maxAge int) *SessionCookies {
	if secret == "" {
		return nil
	}

	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionCookies{store: store}
}

// returns the session id stored in the request cookie
func (s *SessionCookies) Get(c *gin.Context) string {
	if s == nil {
		return ""
	}

	session, err := s.store.Get(c.Request, cookieName)
	if err != nil {
		// tampered or signed with an old secret; a new cookie replaces it
		return ""
	}

	id, _ := session.Values[cookieSessionK].(string)
	return id
}

// writes the session id cookie on the response
func (s *SessionCookies) Set(c *gin.Context, sessionID string) {
	if s == nil {
		return
	}

	session, _ := s.store.Get(c.Request, cookieName) //nolint:errcheck // a fresh session is returned on error
	session.Values[cookieSessionK] = sessionID

	if err := session.Save(c.Request, c.Writer); err != nil {
		logger.FromContext(c.Request.Context()).Warn("failed to save session cookie", "error", err)
	}
}
