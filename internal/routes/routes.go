package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rohitmehra/OpenMentor/internal/handlers"
	"github.com/rohitmehra/OpenMentor/internal/middlewares"
)

// RegisterPublicEndpoints wires the endpoints that need no identity.
func RegisterPublicEndpoints(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterProtectedEndpoints wires the session surface behind JWT auth.
// The websocket route sits in the same group; the middleware accepts the
// token as a query parameter there since browsers cannot set headers on
// websocket upgrades.
func RegisterProtectedEndpoints(
	router *gin.Engine,
	videoCallHandler *handlers.VideoCallHandler,
	chatHandler *handlers.ChatHandler,
	sharedFileHandler *handlers.SharedFileHandler,
	presenceHandler *handlers.PresenceHandler,
	jwtSecret string,
) {
	protected := router.Group("/api")
	protected.Use(middlewares.AuthMiddleware(jwtSecret))

	protected.POST("/sessions/quick-join", videoCallHandler.QuickJoin)
	protected.POST("/sessions/:sessionId/join", videoCallHandler.Join)
	protected.POST("/sessions/:sessionId/leave", videoCallHandler.Leave)
	protected.POST("/sessions/:sessionId/refresh-token", videoCallHandler.RefreshToken)
	protected.POST("/sessions/:sessionId/reconnect", videoCallHandler.Reconnect)
	protected.GET("/sessions/:sessionId/status", videoCallHandler.Status)
	protected.POST("/sessions/:sessionId/end", videoCallHandler.End)

	protected.POST("/sessions/:sessionId/chat", chatHandler.Save)
	protected.GET("/sessions/:sessionId/chat", chatHandler.Get)

	protected.POST("/sessions/:sessionId/files", sharedFileHandler.Register)
	protected.GET("/sessions/:sessionId/files", sharedFileHandler.List)
	protected.DELETE("/sessions/:sessionId/files/:imageKey", sharedFileHandler.Delete)

	protected.GET("/ws/sessions", presenceHandler.Watch)
}
