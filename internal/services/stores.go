package services

import (
	"context"

	"github.com/rohitmehra/OpenMentor/internal/models"
)

// Narrow store interfaces the services compose. The repositories package
// provides the Postgres implementations; tests provide in-memory ones that
// enforce the same uniqueness invariants.

type SessionStore interface {
	Create(ctx context.Context, session *models.VideoSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.VideoSession, error)
	GetActiveBySessionID(ctx context.Context, sessionID string) (*models.VideoSession, error)
	GetActiveBySessionName(ctx context.Context, sessionName string) (*models.VideoSession, error)
	End(ctx context.Context, sessionID string) error
}

type ParticipantStore interface {
	Register(ctx context.Context, participant *models.Participant) error
	MarkLeft(ctx context.Context, connectionID string) error
	FindByConnectionID(ctx context.Context, connectionID string) (*models.Participant, error)
	ListConnected(ctx context.Context, sessionID string) ([]models.Participant, error)
}

type ChatLogStore interface {
	GetBySessionID(ctx context.Context, sessionID string) (*models.SessionChatLog, error)
	Insert(ctx context.Context, log *models.SessionChatLog) error
	UpdateVersioned(ctx context.Context, log *models.SessionChatLog, expectedVersion int64) error
}

type SharedFileStore interface {
	Create(ctx context.Context, file *models.SharedFile) error
	ExistsByKey(ctx context.Context, sessionID, imageKey string) (bool, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.SharedFile, error)
	FindByKey(ctx context.Context, sessionID, imageKey string) (*models.SharedFile, error)
	DeleteByKey(ctx context.Context, imageKey string) error
}

// SessionNotifier fans presence changes out to live watchers (the websocket
// hub). Publishing is fire-and-forget; nothing in the session lifecycle
// depends on delivery.
type SessionNotifier interface {
	ParticipantJoined(sessionID, username, connectionID string)
	ParticipantLeft(sessionID, username, connectionID string)
	SessionEnded(sessionID string)
}

// NopNotifier satisfies SessionNotifier when no watcher transport is wired.
type NopNotifier struct{}

func (NopNotifier) ParticipantJoined(string, string, string) {}
func (NopNotifier) ParticipantLeft(string, string, string)   {}
func (NopNotifier) SessionEnded(string)                      {}
