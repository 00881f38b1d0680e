package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rohitmehra/OpenMentor/internal/models"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `session_id, session_name, is_active, created_at, ended_at`

func scanSession(row *sql.Row) (*models.VideoSession, error) {
	var s models.VideoSession
	err := row.Scan(&s.SessionID, &s.SessionName, &s.IsActive, &s.CreatedAt, &s.EndedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new active session. Two callers racing on the same name
// both reach here after finding no active row; the partial unique index
// rejects the loser, surfaced as ErrDuplicate so the caller can re-read the
// winning row instead of failing the request.
func (r *SessionRepository) Create(ctx context.Context, session *models.VideoSession) error {
	const query = `
	INSERT INTO video_sessions (session_id, session_name, is_active, created_at)
	VALUES ($1, $2, TRUE, NOW())
	RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, session.SessionID, session.SessionName).
		Scan(&session.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	session.IsActive = true
	return nil
}

// GetBySessionID returns the session regardless of lifecycle state.
func (r *SessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.VideoSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM video_sessions WHERE session_id = $1`
	return scanSession(r.db.QueryRowContext(ctx, query, sessionID))
}

// GetActiveBySessionID returns the session only while it is active.
func (r *SessionRepository) GetActiveBySessionID(ctx context.Context, sessionID string) (*models.VideoSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM video_sessions WHERE session_id = $1 AND is_active`
	return scanSession(r.db.QueryRowContext(ctx, query, sessionID))
}

// GetActiveBySessionName resolves the single active session carrying a name.
func (r *SessionRepository) GetActiveBySessionName(ctx context.Context, sessionName string) (*models.VideoSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM video_sessions WHERE session_name = $1 AND is_active`
	return scanSession(r.db.QueryRowContext(ctx, query, sessionName))
}

// End deactivates the session and stamps ended_at exactly once. Running it
// against an already ended session matches zero rows and is a no-op, which
// makes the endSession operation idempotent without a read-first.
func (r *SessionRepository) End(ctx context.Context, sessionID string) error {
	const query = `
	UPDATE video_sessions
	SET is_active = FALSE, ended_at = NOW()
	WHERE session_id = $1 AND is_active
	`

	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}
