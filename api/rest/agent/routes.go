package agent

import (
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/qapilot/server/internal/sessions"
)

// timeout bounds a whole chat turn; the agent answers with what it has when it expires
func RegisterRoutes(router *gin.RouterGroup, chat *sessions.ChatService, cookies *SessionCookies, timeout time.Duration) {
	agentGroup := router.Group("/agent")
	{
		agentGroup.POST("/chat", ChatHandler(chat, cookies, timeout))
		agentGroup.GET("/sessions/:id/history", HistoryHandler(chat))
	}
}
