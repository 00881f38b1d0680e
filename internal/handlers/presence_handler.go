package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/rohitmehra/OpenMentor/internal/middlewares"
	"github.com/rohitmehra/OpenMentor/internal/services"
	ws "github.com/rohitmehra/OpenMentor/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now, restrict in production
	},
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// PresenceHandler upgrades watchers onto the presence hub. Watchers receive
// participant_joined / participant_left / session_ended events for one
// session; they never send anything except pings.
type PresenceHandler struct {
	videoCallService *services.VideoCallService
	hub              *ws.Hub
	logger           zerolog.Logger
}

func NewPresenceHandler(videoCallService *services.VideoCallService, hub *ws.Hub, logger zerolog.Logger) *PresenceHandler {
	return &PresenceHandler{
		videoCallService: videoCallService,
		hub:              hub,
		logger:           logger.With().Str("handler", "presence").Logger(),
	}
}

// Watch subscribes the caller to a session's presence events over websocket.
func (h *PresenceHandler) Watch(c *gin.Context) {
	_, username, ok := middlewares.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}

	// Reject unknown sessions before committing to the upgrade.
	if _, err := h.videoCallService.GetSessionStatus(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("websocket upgrade failed")
		return
	}

	client := &ws.Client{
		ID:        uuid.New(),
		SessionID: sessionID,
		Username:  username,
		Conn:      conn,
		Send:      make(chan ws.Event, 64),
		Done:      make(chan struct{}),
	}
	h.hub.Subscribe(client)

	h.logger.Info().
		Str("session_id", sessionID).
		Str("username", username).
		Msg("presence watcher connected")

	go h.readPump(client)
	go h.writePump(client)
}

// readPump only services control frames and detects the close.
func (h *PresenceHandler) readPump(client *ws.Client) {
	defer func() {
		h.hub.Unsubscribe(client)
		client.Close()
	}()

	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug().Err(err).
					Str("session_id", client.SessionID).
					Msg("watcher closed unexpectedly")
			}
			return
		}
	}
}

// writePump forwards hub events and keeps the connection alive with pings.
func (h *PresenceHandler) writePump(client *ws.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case event := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.Done:
			return
		}
	}
}
