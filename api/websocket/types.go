package websocket

type ConnectParams struct {
	SessionID string `form:"session_id" binding:"omitempty,max=64"` // resumes a chat session; a new one is created when empty or unknown
	Token     string `form:"token"`                                 // jwt, for clients that cannot set headers
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Production     bool
}
