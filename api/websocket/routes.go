package websocket

import (
	"github.com/gin-gonic/gin"

	ws "codeberg.org/qapilot/server/internal/websocket"
)

func RegisterRoutes(router *gin.RouterGroup, hub *ws.Hub, source SessionSource, opts Options) {
	router.GET("/agent/ws", WebSocketHandler(hub, source, opts))
}
