package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rohitmehra/OpenMentor/internal/dtos"
	"github.com/rohitmehra/OpenMentor/internal/models"
	"github.com/rohitmehra/OpenMentor/internal/repositories"
	"github.com/rohitmehra/OpenMentor/internal/rtc"
)

// VideoCallService orchestrates the meeting session lifecycle: resolving or
// creating rooms, issuing connections through the RTC provider, and keeping
// the participant history consistent across joins, leaves and reconnects.
type VideoCallService struct {
	sessionRepo     SessionStore
	participantRepo ParticipantStore
	provider        rtc.Provider
	notifier        SessionNotifier
	logger          zerolog.Logger
}

func NewVideoCallService(
	sessionRepo SessionStore,
	participantRepo ParticipantStore,
	provider rtc.Provider,
	notifier SessionNotifier,
	logger zerolog.Logger,
) *VideoCallService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &VideoCallService{
		sessionRepo:     sessionRepo,
		participantRepo: participantRepo,
		provider:        provider,
		notifier:        notifier,
		logger:          logger.With().Str("component", "videocall").Logger(),
	}
}

// QuickJoin resolves a target session by id or name, creating it when
// allowed, then issues a connection and registers the participant.
//
// Ordering matters for crash consistency: the session row is committed
// before the token request, so a provider failure leaves an active, reusable
// session and no participant row. A participant row only ever appears after
// its token was successfully issued.
func (s *VideoCallService) QuickJoin(ctx context.Context, req dtos.QuickJoinRequest, username string) (*dtos.JoinBundle, error) {
	session, isNew, err := s.resolveOrCreate(ctx, req)
	if err != nil {
		return nil, err
	}

	conn, err := s.issueConnection(ctx, session.SessionID, username)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", session.SessionID).
		Str("username", username).
		Bool("is_new_session", isNew).
		Msg("quick join completed")

	return &dtos.JoinBundle{
		SessionID:    session.SessionID,
		SessionName:  session.SessionName,
		Username:     username,
		ConnectionID: conn.ConnectionID,
		Token:        conn.Token,
		IsNewSession: isNew,
	}, nil
}

// resolveOrCreate finds the active session matching the request, or creates
// one when resolving by name with auto-create enabled. Two callers racing on
// the same name both reach Create; the storage layer rejects the loser, who
// re-reads and proceeds with the winner's row.
func (s *VideoCallService) resolveOrCreate(ctx context.Context, req dtos.QuickJoinRequest) (*models.VideoSession, bool, error) {
	if req.SessionID != "" {
		session, err := s.sessionRepo.GetActiveBySessionID(ctx, req.SessionID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, false, fmt.Errorf("%w: session id %q", models.ErrSessionNotFound, req.SessionID)
		}
		if err != nil {
			return nil, false, err
		}
		return session, false, nil
	}

	session, err := s.sessionRepo.GetActiveBySessionName(ctx, req.SessionName)
	if err == nil {
		return session, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}
	if !req.AutoCreate {
		return nil, false, fmt.Errorf("%w: session name %q", models.ErrSessionNotFound, req.SessionName)
	}

	roomID, err := s.provider.CreateRoom(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("session_name", req.SessionName).Msg("room creation failed")
		return nil, false, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}

	created := &models.VideoSession{
		SessionID:   roomID,
		SessionName: req.SessionName,
	}
	err = s.sessionRepo.Create(ctx, created)
	if errors.Is(err, repositories.ErrDuplicate) {
		// Someone else created the active session with this name first;
		// their row wins and this caller joins it.
		winner, readErr := s.sessionRepo.GetActiveBySessionName(ctx, req.SessionName)
		if readErr != nil {
			return nil, false, readErr
		}
		s.logger.Info().
			Str("session_name", req.SessionName).
			Str("session_id", winner.SessionID).
			Msg("lost session creation race, joining existing session")
		return winner, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.logger.Info().
		Str("session_id", created.SessionID).
		Str("session_name", created.SessionName).
		Msg("session created")
	return created, true, nil
}

// JoinSession is QuickJoin without the create path: the session must already
// exist and be active.
func (s *VideoCallService) JoinSession(ctx context.Context, sessionID, username string) (*dtos.JoinBundle, error) {
	session, err := s.sessionRepo.GetActiveBySessionID(ctx, sessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: session id %q", models.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}

	conn, err := s.issueConnection(ctx, session.SessionID, username)
	if err != nil {
		return nil, err
	}

	return &dtos.JoinBundle{
		SessionID:    session.SessionID,
		SessionName:  session.SessionName,
		Username:     username,
		ConnectionID: conn.ConnectionID,
		Token:        conn.Token,
	}, nil
}

// LeaveSession marks the participant as left. Already-left participants are
// a no-op; an unknown connection id is an error.
func (s *VideoCallService) LeaveSession(ctx context.Context, connectionID string) error {
	participant, err := s.participantRepo.FindByConnectionID(ctx, connectionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: connection id %q", models.ErrParticipantNotFound, connectionID)
	}
	if err != nil {
		return err
	}
	if !participant.IsConnected {
		return nil
	}

	if err := s.participantRepo.MarkLeft(ctx, connectionID); err != nil {
		return err
	}

	s.notifier.ParticipantLeft(participant.SessionID, participant.Username, connectionID)
	s.logger.Info().
		Str("session_id", participant.SessionID).
		Str("connection_id", connectionID).
		Msg("participant left")
	return nil
}

// RefreshToken issues a brand new connection for an active session. The
// participant's previous row, if any, is deliberately left untouched: the
// client keeps its old connection until it swaps tokens.
func (s *VideoCallService) RefreshToken(ctx context.Context, sessionID, username string) (*dtos.JoinBundle, error) {
	session, err := s.sessionRepo.GetActiveBySessionID(ctx, sessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: session id %q", models.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}

	conn, err := s.issueConnection(ctx, session.SessionID, username)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("username", username).
		Msg("token refreshed")

	return &dtos.JoinBundle{
		SessionID:      session.SessionID,
		SessionName:    session.SessionName,
		Username:       username,
		ConnectionID:   conn.ConnectionID,
		Token:          conn.Token,
		IsTokenRefresh: true,
	}, nil
}

// AutoReconnect recovers a participant after network loss. Connection ids
// are single-use, so the old row is closed out (when it still resolves) and
// a new one is appended; history is preserved, never rewritten. A stale or
// unknown lastConnectionID is not an error.
func (s *VideoCallService) AutoReconnect(ctx context.Context, sessionID, username, lastConnectionID string) (*dtos.JoinBundle, error) {
	if lastConnectionID != "" {
		prev, err := s.participantRepo.FindByConnectionID(ctx, lastConnectionID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			s.logger.Debug().
				Str("connection_id", lastConnectionID).
				Msg("previous connection already gone, skipping cleanup")
		case err != nil:
			return nil, fmt.Errorf("%w: %v", models.ErrAutoReconnectFailed, err)
		case prev.SessionID != sessionID:
			s.logger.Warn().
				Str("connection_id", lastConnectionID).
				Str("claimed_session_id", sessionID).
				Str("actual_session_id", prev.SessionID).
				Msg("previous connection belongs to another session, skipping cleanup")
		case prev.IsConnected:
			if err := s.participantRepo.MarkLeft(ctx, lastConnectionID); err != nil {
				return nil, fmt.Errorf("%w: %v", models.ErrAutoReconnectFailed, err)
			}
			s.notifier.ParticipantLeft(sessionID, prev.Username, lastConnectionID)
		}
	}

	session, err := s.sessionRepo.GetActiveBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: session id %q", models.ErrAutoReconnectFailed, sessionID)
	}

	conn, err := s.issueConnection(ctx, session.SessionID, username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAutoReconnectFailed, err)
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("username", username).
		Str("last_connection_id", lastConnectionID).
		Str("connection_id", conn.ConnectionID).
		Msg("auto reconnect completed")

	return &dtos.JoinBundle{
		SessionID:      session.SessionID,
		SessionName:    session.SessionName,
		Username:       username,
		ConnectionID:   conn.ConnectionID,
		Token:          conn.Token,
		IsReconnection: true,
	}, nil
}

// GetSessionStatus returns a read-only snapshot of the session and its
// currently connected participants, for active and ended sessions alike.
func (s *VideoCallService) GetSessionStatus(ctx context.Context, sessionID string) (*dtos.SessionStatusResponse, error) {
	session, err := s.sessionRepo.GetBySessionID(ctx, sessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: session id %q", models.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}

	connected, err := s.participantRepo.ListConnected(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	infos := make([]dtos.ParticipantInfo, 0, len(connected))
	for _, p := range connected {
		infos = append(infos, dtos.ParticipantInfo{
			Username:     p.Username,
			ConnectionID: p.ConnectionID,
			JoinedAt:     p.JoinedAt,
			IsConnected:  p.IsConnected,
		})
	}

	return &dtos.SessionStatusResponse{
		SessionID:        session.SessionID,
		SessionName:      session.SessionName,
		IsActive:         session.IsActive,
		ParticipantCount: len(connected),
		Participants:     infos,
		CreatedAt:        session.CreatedAt,
		EndedAt:          session.EndedAt,
	}, nil
}

// EndSession deactivates the session and closes out any still-connected
// participants. Ending an already-ended session is a no-op.
func (s *VideoCallService) EndSession(ctx context.Context, sessionID string) error {
	session, err := s.sessionRepo.GetBySessionID(ctx, sessionID)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: session id %q", models.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return err
	}
	if !session.IsActive {
		return nil
	}

	connected, err := s.participantRepo.ListConnected(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, p := range connected {
		if err := s.participantRepo.MarkLeft(ctx, p.ConnectionID); err != nil {
			return err
		}
		s.notifier.ParticipantLeft(sessionID, p.Username, p.ConnectionID)
	}

	if err := s.sessionRepo.End(ctx, sessionID); err != nil {
		return err
	}

	s.notifier.SessionEnded(sessionID)
	s.logger.Info().
		Str("session_id", sessionID).
		Int("participants_closed", len(connected)).
		Msg("session ended")
	return nil
}

// issueConnection requests a token from the provider and records the join.
// Provider failures (including timeouts) surface as ErrProviderUnavailable
// and are never retried here; the caller owns the retry decision.
func (s *VideoCallService) issueConnection(ctx context.Context, sessionID, username string) (*rtc.Connection, error) {
	conn, err := s.provider.CreateConnectionToken(ctx, sessionID, map[string]string{"username": username})
	if err != nil {
		s.logger.Error().Err(err).
			Str("session_id", sessionID).
			Str("username", username).
			Msg("connection token request failed")
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}

	participant := &models.Participant{
		ConnectionID: conn.ConnectionID,
		SessionID:    sessionID,
		Token:        conn.Token,
		Username:     username,
	}
	err = s.participantRepo.Register(ctx, participant)
	if errors.Is(err, repositories.ErrDuplicate) {
		// Provider handed out a connection id we have already seen. That
		// breaks its uniqueness guarantee; fail loudly instead of
		// overwriting the existing row.
		return nil, fmt.Errorf("%w: connection id %q", models.ErrDuplicateConnection, conn.ConnectionID)
	}
	if err != nil {
		return nil, err
	}

	s.notifier.ParticipantJoined(sessionID, username, conn.ConnectionID)
	return conn, nil
}
