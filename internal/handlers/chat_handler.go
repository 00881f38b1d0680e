package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rohitmehra/OpenMentor/internal/dtos"
	"github.com/rohitmehra/OpenMentor/internal/middlewares"
	"github.com/rohitmehra/OpenMentor/internal/services"
)

type ChatHandler struct {
	chatService *services.ChatService
	logger      zerolog.Logger
}

func NewChatHandler(chatService *services.ChatService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger.With().Str("handler", "chat").Logger(),
	}
}

// Save archives the session's transcript. A 409 means another save
// committed first; the client re-reads and retries with current data.
func (h *ChatHandler) Save(c *gin.Context) {
	_, username, ok := middlewares.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dtos.ChatHistorySaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID := c.Param("sessionId")
	if err := h.chatService.SaveOrUpdate(c.Request.Context(), sessionID, req, username); err != nil {
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("transcript save failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true, "total_messages": len(req.Messages)})
}

// Get returns the archived transcript.
func (h *ChatHandler) Get(c *gin.Context) {
	transcript, err := h.chatService.GetTranscript(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transcript)
}
