package dtos

import (
	"time"

	"github.com/rohitmehra/OpenMentor/internal/models"
)

// Quick join: resolve-or-create a session and issue a connection in one call.
// Exactly one of session_id / session_name should be set; session_id wins
// when both are present.
type QuickJoinRequest struct {
	SessionID   string `json:"session_id"`
	SessionName string `json:"session_name" binding:"omitempty,sessionname"`
	AutoCreate  bool   `json:"auto_create"`
}

type ReconnectRequest struct {
	LastConnectionID string `json:"last_connection_id"`
}

// JoinBundle is the result shape shared by quick join, explicit join, token
// refresh and reconnect. The token is the only credential the client needs
// to attach to the media room.
type JoinBundle struct {
	SessionID      string `json:"session_id"`
	SessionName    string `json:"session_name"`
	Username       string `json:"username"`
	ConnectionID   string `json:"connection_id"`
	Token          string `json:"token"`
	IsNewSession   bool   `json:"is_new_session"`
	IsTokenRefresh bool   `json:"is_token_refresh,omitempty"`
	IsReconnection bool   `json:"is_reconnection,omitempty"`
}

type ParticipantInfo struct {
	Username     string    `json:"username"`
	ConnectionID string    `json:"connection_id"`
	JoinedAt     time.Time `json:"joined_at"`
	IsConnected  bool      `json:"is_connected"`
}

type SessionStatusResponse struct {
	SessionID        string            `json:"session_id"`
	SessionName      string            `json:"session_name"`
	IsActive         bool              `json:"is_active"`
	ParticipantCount int               `json:"participant_count"`
	Participants     []ParticipantInfo `json:"participants"`
	CreatedAt        time.Time         `json:"created_at"`
	EndedAt          *time.Time        `json:"ended_at,omitempty"`
}

// Chat transcript save. Messages is the full transcript as held by the
// client; every save replaces the previous archive outright.
type ChatHistorySaveRequest struct {
	Messages         []models.ChatMessage `json:"messages" binding:"required"`
	SessionStartTime *time.Time           `json:"session_start_time"`
	SessionEndTime   *time.Time           `json:"session_end_time"`
}

type ChatHistoryResponse struct {
	SessionID        string               `json:"session_id"`
	Messages         []models.ChatMessage `json:"messages"`
	TotalMessages    int                  `json:"total_messages"`
	SessionStartTime *time.Time           `json:"session_start_time,omitempty"`
	SessionEndTime   *time.Time           `json:"session_end_time,omitempty"`
	SavedBy          string               `json:"saved_by"`
	CreatedAt        time.Time            `json:"created_at"`
}

// EndSessionRequest optionally carries the final chat payload so ending a
// session and archiving its transcript happen in one request.
type EndSessionRequest struct {
	ChatHistory *ChatHistorySaveRequest `json:"chat_history,omitempty"`
}

// Shared file registration. The object bytes are already in external storage
// under ImageKey when this request arrives; only metadata is recorded here.
type SharedFileUploadRequest struct {
	ImageKey    string `json:"image_key" binding:"required"`
	FileName    string `json:"file_name" binding:"required"`
	FileSize    int64  `json:"file_size" binding:"required,gt=0"`
	ContentType string `json:"content_type"`
}

type SharedFileResponse struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	ImageKey         string    `json:"image_key"`
	FileName         string    `json:"file_name"`
	FileSize         int64     `json:"file_size"`
	ContentType      string    `json:"content_type,omitempty"`
	UploadedByUserID string    `json:"uploaded_by_user_id"`
	UploadedByName   string    `json:"uploaded_by_name"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

type SharedFileListResponse struct {
	SessionID  string               `json:"session_id"`
	Files      []SharedFileResponse `json:"files"`
	TotalCount int                  `json:"total_count"`
}

// NewSharedFileResponse converts a stored row into its API shape.
func NewSharedFileResponse(f *models.SharedFile) SharedFileResponse {
	return SharedFileResponse{
		ID:               f.ID.String(),
		SessionID:        f.SessionID,
		ImageKey:         f.ImageKey,
		FileName:         f.FileName,
		FileSize:         f.FileSize,
		ContentType:      f.ContentType,
		UploadedByUserID: f.UploadedByUserID,
		UploadedByName:   f.UploadedByName,
		UploadedAt:       f.UploadedAt,
	}
}
