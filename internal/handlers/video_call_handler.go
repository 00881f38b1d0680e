package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rohitmehra/OpenMentor/internal/dtos"
	"github.com/rohitmehra/OpenMentor/internal/middlewares"
	"github.com/rohitmehra/OpenMentor/internal/services"
)

type VideoCallHandler struct {
	videoCallService *services.VideoCallService
	chatService      *services.ChatService
	logger           zerolog.Logger
}

func NewVideoCallHandler(
	videoCallService *services.VideoCallService,
	chatService *services.ChatService,
	logger zerolog.Logger,
) *VideoCallHandler {
	return &VideoCallHandler{
		videoCallService: videoCallService,
		chatService:      chatService,
		logger:           logger.With().Str("handler", "videocall").Logger(),
	}
}

// QuickJoin resolves or creates a session and returns a join bundle.
func (h *VideoCallHandler) QuickJoin(c *gin.Context) {
	_, username, ok := middlewares.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dtos.QuickJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SessionID == "" && req.SessionName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id or session_name required"})
		return
	}

	bundle, err := h.videoCallService.QuickJoin(c.Request.Context(), req, username)
	if err != nil {
		h.logger.Warn().Err(err).Str("username", username).Msg("quick join failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// Join requires an existing active session; it never creates one.
func (h *VideoCallHandler) Join(c *gin.Context) {
	_, username, ok := middlewares.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	bundle, err := h.videoCallService.JoinSession(c.Request.Context(), c.Param("sessionId"), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// Leave marks the caller's connection as left. Repeating the call for the
// same connection id succeeds without effect.
func (h *VideoCallHandler) Leave(c *gin.Context) {
	connectionID := c.Query("connection_id")
	if connectionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "connection_id required"})
		return
	}

	if err := h.videoCallService.LeaveSession(c.Request.Context(), connectionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"left": true})
}

// RefreshToken issues a fresh connection for the session.
func (h *VideoCallHandler) RefreshToken(c *gin.Context) {
	_, username, ok := middlewares.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	bundle, err := h.videoCallService.RefreshToken(c.Request.Context(), c.Param("sessionId"), username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// Reconnect recovers after network loss, closing out the stale connection
// when it is still known.
func (h *VideoCallHandler) Reconnect(c *gin.Context) {
	_, username, ok := middlewares.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dtos.ReconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bundle, err := h.videoCallService.AutoReconnect(c.Request.Context(), c.Param("sessionId"), username, req.LastConnectionID)
	if err != nil {
		h.logger.Warn().Err(err).
			Str("session_id", c.Param("sessionId")).
			Str("username", username).
			Msg("auto reconnect failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// Status returns a read-only snapshot of the session.
func (h *VideoCallHandler) Status(c *gin.Context) {
	status, err := h.videoCallService.GetSessionStatus(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// End deactivates the session, optionally archiving the final chat payload
// carried in the request first.
func (h *VideoCallHandler) End(c *gin.Context) {
	_, username, ok := middlewares.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	sessionID := c.Param("sessionId")

	var req dtos.EndSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if req.ChatHistory != nil {
		if err := h.chatService.SaveOrUpdate(c.Request.Context(), sessionID, *req.ChatHistory, username); err != nil {
			h.logger.Error().Err(err).Str("session_id", sessionID).Msg("final transcript save failed")
			respondError(c, err)
			return
		}
	}

	if err := h.videoCallService.EndSession(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ended": true})
}
