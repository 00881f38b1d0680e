package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rohitmehra/OpenMentor/internal/dtos"
	"github.com/rohitmehra/OpenMentor/internal/models"
	"github.com/rohitmehra/OpenMentor/internal/repositories"
)

// ChatService archives the chat transcript of a session: exactly one row per
// session, full replacement on every save, optimistic versioning between
// racing writers. This is the one path where concurrent writers are routine
// (periodic autosave racing the final save), so no lock broader than the
// per-row version counter is taken.
type ChatService struct {
	chatRepo    ChatLogStore
	sessionRepo SessionStore
	logger      zerolog.Logger
}

func NewChatService(chatRepo ChatLogStore, sessionRepo SessionStore, logger zerolog.Logger) *ChatService {
	return &ChatService{
		chatRepo:    chatRepo,
		sessionRepo: sessionRepo,
		logger:      logger.With().Str("component", "chat").Logger(),
	}
}

// SaveOrUpdate archives the transcript for sessionID. First save inserts the
// row; later saves replace it wholesale and bump the version. When another
// writer commits between this writer's read and write, the save fails with
// ErrConcurrentModification and the caller retries against the re-read row;
// merging divergent transcripts is never attempted.
func (s *ChatService) SaveOrUpdate(ctx context.Context, sessionID string, req dtos.ChatHistorySaveRequest, savedBy string) error {
	if _, err := s.sessionRepo.GetBySessionID(ctx, sessionID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: session id %q", models.ErrSessionNotFound, sessionID)
		}
		return err
	}

	serialized, err := json.Marshal(req.Messages)
	if err != nil {
		return fmt.Errorf("%w: encode messages: %v", models.ErrChatSaveFailed, err)
	}

	existing, err := s.chatRepo.GetBySessionID(ctx, sessionID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %v", models.ErrChatSaveFailed, err)
	}

	if existing == nil {
		log := &models.SessionChatLog{
			SessionID:        sessionID,
			ChatMessages:     string(serialized),
			TotalMessages:    len(req.Messages),
			SessionStartTime: req.SessionStartTime,
			SessionEndTime:   req.SessionEndTime,
			SavedBy:          savedBy,
		}
		err = s.chatRepo.Insert(ctx, log)
		if errors.Is(err, repositories.ErrDuplicate) {
			// Another writer inserted the first row between our read and
			// write. Same treatment as a version conflict.
			return fmt.Errorf("%w: session id %q", models.ErrConcurrentModification, sessionID)
		}
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrChatSaveFailed, err)
		}
		s.logger.Info().
			Str("session_id", sessionID).
			Int("message_count", len(req.Messages)).
			Str("saved_by", savedBy).
			Msg("chat transcript archived")
		return nil
	}

	// Re-saving an identical payload is common when the client retries the
	// final save; skip the write instead of burning a version.
	if existing.TotalMessages == len(req.Messages) && len(existing.ChatMessages) == len(serialized) {
		s.logger.Debug().
			Str("session_id", sessionID).
			Int("message_count", len(req.Messages)).
			Msg("identical transcript already archived, skipping")
		return nil
	}

	updated := &models.SessionChatLog{
		SessionID:      sessionID,
		ChatMessages:   string(serialized),
		TotalMessages:  len(req.Messages),
		SessionEndTime: req.SessionEndTime,
		SavedBy:        savedBy,
	}
	err = s.chatRepo.UpdateVersioned(ctx, updated, existing.Version)
	if errors.Is(err, repositories.ErrVersionConflict) {
		return fmt.Errorf("%w: session id %q", models.ErrConcurrentModification, sessionID)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrChatSaveFailed, err)
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int("message_count", len(req.Messages)).
		Int64("version", updated.Version).
		Str("saved_by", savedBy).
		Msg("chat transcript updated")
	return nil
}

// GetTranscript reads back the archived transcript with its messages
// deserialized.
func (s *ChatService) GetTranscript(ctx context.Context, sessionID string) (*dtos.ChatHistoryResponse, error) {
	log, err := s.chatRepo.GetBySessionID(ctx, sessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: session id %q", models.ErrTranscriptNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}

	var messages []models.ChatMessage
	if err := json.Unmarshal([]byte(log.ChatMessages), &messages); err != nil {
		return nil, fmt.Errorf("decode archived messages for session %q: %w", sessionID, err)
	}

	return &dtos.ChatHistoryResponse{
		SessionID:        log.SessionID,
		Messages:         messages,
		TotalMessages:    log.TotalMessages,
		SessionStartTime: log.SessionStartTime,
		SessionEndTime:   log.SessionEndTime,
		SavedBy:          log.SavedBy,
		CreatedAt:        log.CreatedAt,
	}, nil
}
