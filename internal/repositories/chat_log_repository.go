package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rohitmehra/OpenMentor/internal/models"
)

type ChatLogRepository struct {
	db *sql.DB
}

func NewChatLogRepository(db *sql.DB) *ChatLogRepository {
	return &ChatLogRepository{db: db}
}

// GetBySessionID returns the session's single transcript row, if saved yet.
func (r *ChatLogRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.SessionChatLog, error) {
	const query = `
	SELECT session_id, chat_messages, total_messages, session_start_time,
	       session_end_time, saved_by, version, created_at, updated_at
	FROM session_chat_logs
	WHERE session_id = $1
	`

	var log models.SessionChatLog
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&log.SessionID, &log.ChatMessages, &log.TotalMessages, &log.SessionStartTime,
		&log.SessionEndTime, &log.SavedBy, &log.Version, &log.CreatedAt, &log.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// Insert creates the first transcript row for a session at version 1.
// A racing first save loses to the unique index on session_id and gets
// ErrDuplicate back; the caller treats that as a version conflict.
func (r *ChatLogRepository) Insert(ctx context.Context, log *models.SessionChatLog) error {
	const query = `
	INSERT INTO session_chat_logs
		(session_id, chat_messages, total_messages, session_start_time, session_end_time, saved_by, version)
	VALUES ($1, $2, $3, $4, $5, $6, 1)
	RETURNING version, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		log.SessionID, log.ChatMessages, log.TotalMessages,
		log.SessionStartTime, log.SessionEndTime, log.SavedBy,
	).Scan(&log.Version, &log.CreatedAt, &log.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert chat log: %w", err)
	}
	return nil
}

// UpdateVersioned replaces the transcript only if nobody committed since the
// row was read at expectedVersion. Zero rows affected means a concurrent
// writer won the race; the caller re-reads and decides whether to retry.
func (r *ChatLogRepository) UpdateVersioned(ctx context.Context, log *models.SessionChatLog, expectedVersion int64) error {
	const query = `
	UPDATE session_chat_logs
	SET chat_messages = $1,
	    total_messages = $2,
	    session_end_time = $3,
	    saved_by = $4,
	    version = version + 1,
	    updated_at = NOW()
	WHERE session_id = $5 AND version = $6
	RETURNING version, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		log.ChatMessages, log.TotalMessages, log.SessionEndTime, log.SavedBy,
		log.SessionID, expectedVersion,
	).Scan(&log.Version, &log.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("update chat log: %w", err)
	}
	return nil
}
