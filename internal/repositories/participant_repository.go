package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rohitmehra/OpenMentor/internal/models"
)

type ParticipantRepository struct {
	db *sql.DB
}

func NewParticipantRepository(db *sql.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

const participantColumns = `connection_id, session_id, token, username, joined_at, left_at, is_connected`

// Register records a fresh join. Connection ids are provider-issued and
// unique, so a duplicate insert means a provider-level anomaly; it is
// surfaced as ErrDuplicate and never silently overwrites the existing row.
func (r *ParticipantRepository) Register(ctx context.Context, p *models.Participant) error {
	const query = `
	INSERT INTO participants (connection_id, session_id, token, username, joined_at, is_connected)
	VALUES ($1, $2, $3, $4, NOW(), TRUE)
	RETURNING joined_at
	`

	err := r.db.QueryRowContext(ctx, query, p.ConnectionID, p.SessionID, p.Token, p.Username).
		Scan(&p.JoinedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	p.IsConnected = true
	return nil
}

// MarkLeft performs the LEFT transition: is_connected drops to false and
// left_at is stamped, irreversibly for that row. Already-left rows are left
// untouched so repeated leave calls converge on the same state. Returns
// ErrNotFound when the connection id was never registered.
func (r *ParticipantRepository) MarkLeft(ctx context.Context, connectionID string) error {
	const query = `
	UPDATE participants
	SET is_connected = FALSE,
	    left_at = COALESCE(left_at, NOW())
	WHERE connection_id = $1
	`

	res, err := r.db.ExecContext(ctx, query, connectionID)
	if err != nil {
		return fmt.Errorf("mark participant left: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByConnectionID loads one join record, connected or not.
func (r *ParticipantRepository) FindByConnectionID(ctx context.Context, connectionID string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE connection_id = $1`

	var p models.Participant
	err := r.db.QueryRowContext(ctx, query, connectionID).Scan(
		&p.ConnectionID, &p.SessionID, &p.Token, &p.Username, &p.JoinedAt, &p.LeftAt, &p.IsConnected,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListConnected returns the currently connected participants of a session,
// oldest join first.
func (r *ParticipantRepository) ListConnected(ctx context.Context, sessionID string) ([]models.Participant, error) {
	query := `SELECT ` + participantColumns + `
	FROM participants
	WHERE session_id = $1 AND is_connected
	ORDER BY joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list connected participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(
			&p.ConnectionID, &p.SessionID, &p.Token, &p.Username, &p.JoinedAt, &p.LeftAt, &p.IsConnected,
		); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
