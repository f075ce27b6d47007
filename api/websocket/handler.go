package websocket

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"codeberg.org/qapilot/server/internal/auth"
	"codeberg.org/qapilot/server/internal/errors"
	"codeberg.org/qapilot/server/internal/logger"
	"codeberg.org/qapilot/server/internal/sessions"
	ws "codeberg.org/qapilot/server/internal/websocket"
)

type SessionSource interface {
	GetOrCreate(sessionID string) (*sessions.Session, error)
}

// handles WebSocket connections for streaming agent runs. The client sends
// agent_request messages and receives agent_step messages followed by agent_response.
func WebSocketHandler(hub *ws.Hub, source SessionSource, opts Options) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     ws.NewOriginChecker(opts.AllowedOrigins, opts.Production),
	}

	return func(c *gin.Context) {
		var params ConnectParams
		if err := c.ShouldBindQuery(&params); err != nil {
			errors.BadRequest(c, "invalid parameters", err)
			return
		}

		subject, _ := auth.GetSubject(c)

		if params.Token != "" && opts.JWTSecret != "" {
			claims, err := auth.ValidateJWT(opts.JWTSecret, params.Token)
			if err != nil {
				errors.Unauthorized(c, "invalid or expired token")
				return
			}

			subject = claims.Subject
		}

		ipAddress := c.ClientIP()

		canAccept, reason := hub.CanAcceptConnection(subject, ipAddress)
		if !canAccept {
			errors.TooManyRequests(c, reason)
			return
		}

		session, err := source.GetOrCreate(params.SessionID)
		if err != nil {
			errors.InternalError(c, "failed to create session", err)
			return
		}

		clientID, err := ws.GenerateClientID()
		if err != nil {
			errors.InternalError(c, "failed to generate client ID", err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.ErrorErr(err, "failed to upgrade connection",
				"session_id", session.ID,
				"ip", ipAddress,
			)

			return
		}

		// track IP connection only after successful upgrade
		hub.TrackIPConnection(ipAddress)

		client := ws.NewClient(clientID, session.ID, subject, ipAddress, session.Environment, ws.FromAgentMessages(session.History), conn, hub)

		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()

		logger.Info("websocket connection established",
			"client_id", clientID,
			"session_id", session.ID,
			"subject", subject,
			"ip", ipAddress,
		)
	}
}
