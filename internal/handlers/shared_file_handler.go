package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rohitmehra/OpenMentor/internal/dtos"
	"github.com/rohitmehra/OpenMentor/internal/middlewares"
	"github.com/rohitmehra/OpenMentor/internal/services"
)

type SharedFileHandler struct {
	fileService *services.SharedFileService
	logger      zerolog.Logger
}

func NewSharedFileHandler(fileService *services.SharedFileService, logger zerolog.Logger) *SharedFileHandler {
	return &SharedFileHandler{
		fileService: fileService,
		logger:      logger.With().Str("handler", "sharedfile").Logger(),
	}
}

// Register records metadata for an object the client already placed in
// storage. Duplicate keys for the same session come back as 409.
func (h *SharedFileHandler) Register(c *gin.Context) {
	userID, username, ok := middlewares.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req dtos.SharedFileUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID := c.Param("sessionId")
	file, err := h.fileService.Register(c.Request.Context(), sessionID, req, userID, username)
	if err != nil {
		h.logger.Warn().Err(err).
			Str("session_id", sessionID).
			Str("image_key", req.ImageKey).
			Msg("shared file registration failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, file)
}

// List returns the session's registered files, newest first.
func (h *SharedFileHandler) List(c *gin.Context) {
	files, err := h.fileService.List(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// Delete removes a registration after its storage object was deleted.
func (h *SharedFileHandler) Delete(c *gin.Context) {
	userID, _, ok := middlewares.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	sessionID := c.Param("sessionId")
	imageKey := c.Param("imageKey")
	if err := h.fileService.Delete(c.Request.Context(), sessionID, imageKey, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
