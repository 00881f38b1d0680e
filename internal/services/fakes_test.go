package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rohitmehra/OpenMentor/internal/models"
	"github.com/rohitmehra/OpenMentor/internal/repositories"
	"github.com/rohitmehra/OpenMentor/internal/rtc"
)

// In-memory stores enforcing the same uniqueness rules as the Postgres
// schema, so the services exercise their conflict paths without a database.

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.VideoSession
	failNext error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*models.VideoSession)}
}

func (s *fakeSessionStore) Create(ctx context.Context, session *models.VideoSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	if _, ok := s.sessions[session.SessionID]; ok {
		return repositories.ErrDuplicate
	}
	for _, existing := range s.sessions {
		if existing.IsActive && existing.SessionName == session.SessionName {
			return repositories.ErrDuplicate
		}
	}
	session.IsActive = true
	session.CreatedAt = time.Now()
	copied := *session
	s.sessions[session.SessionID] = &copied
	return nil
}

func (s *fakeSessionStore) GetBySessionID(ctx context.Context, sessionID string) (*models.VideoSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *fakeSessionStore) GetActiveBySessionID(ctx context.Context, sessionID string) (*models.VideoSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || !session.IsActive {
		return nil, repositories.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *fakeSessionStore) GetActiveBySessionName(ctx context.Context, sessionName string) (*models.VideoSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.IsActive && session.SessionName == sessionName {
			copied := *session
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *fakeSessionStore) End(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return repositories.ErrNotFound
	}
	session.End(time.Now())
	return nil
}

func (s *fakeSessionStore) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

type fakeParticipantStore struct {
	mu           sync.Mutex
	participants map[string]*models.Participant
	order        []string
}

func newFakeParticipantStore() *fakeParticipantStore {
	return &fakeParticipantStore{participants: make(map[string]*models.Participant)}
}

func (s *fakeParticipantStore) Register(ctx context.Context, participant *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[participant.ConnectionID]; ok {
		return repositories.ErrDuplicate
	}
	participant.IsConnected = true
	participant.JoinedAt = time.Now()
	copied := *participant
	s.participants[participant.ConnectionID] = &copied
	s.order = append(s.order, participant.ConnectionID)
	return nil
}

func (s *fakeParticipantStore) MarkLeft(ctx context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	participant, ok := s.participants[connectionID]
	if !ok {
		return repositories.ErrNotFound
	}
	participant.Leave(time.Now())
	return nil
}

func (s *fakeParticipantStore) FindByConnectionID(ctx context.Context, connectionID string) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	participant, ok := s.participants[connectionID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *participant
	return &copied, nil
}

func (s *fakeParticipantStore) ListConnected(ctx context.Context, sessionID string) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var connected []models.Participant
	for _, connectionID := range s.order {
		participant := s.participants[connectionID]
		if participant.SessionID == sessionID && participant.IsConnected {
			connected = append(connected, *participant)
		}
	}
	return connected, nil
}

func (s *fakeParticipantStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants)
}

type fakeChatLogStore struct {
	mu   sync.Mutex
	logs map[string]*models.SessionChatLog

	// afterGet, when set, fires once after the next read. Tests use it to
	// slip a rival write into the read-then-write window.
	afterGet func()
}

func newFakeChatLogStore() *fakeChatLogStore {
	return &fakeChatLogStore{logs: make(map[string]*models.SessionChatLog)}
}

func (s *fakeChatLogStore) GetBySessionID(ctx context.Context, sessionID string) (*models.SessionChatLog, error) {
	s.mu.Lock()
	log, ok := s.logs[sessionID]
	var copied models.SessionChatLog
	if ok {
		copied = *log
	}
	hook := s.afterGet
	s.afterGet = nil
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &copied, nil
}

func (s *fakeChatLogStore) Insert(ctx context.Context, log *models.SessionChatLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.logs[log.SessionID]; ok {
		return repositories.ErrDuplicate
	}
	log.Version = 1
	log.CreatedAt = time.Now()
	copied := *log
	s.logs[log.SessionID] = &copied
	return nil
}

func (s *fakeChatLogStore) UpdateVersioned(ctx context.Context, log *models.SessionChatLog, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.logs[log.SessionID]
	if !ok || existing.Version != expectedVersion {
		return repositories.ErrVersionConflict
	}
	existing.ChatMessages = log.ChatMessages
	existing.TotalMessages = log.TotalMessages
	existing.SessionEndTime = log.SessionEndTime
	existing.SavedBy = log.SavedBy
	existing.Version = expectedVersion + 1
	existing.UpdatedAt = time.Now()
	log.Version = existing.Version
	return nil
}

type fakeSharedFileStore struct {
	mu    sync.Mutex
	files []models.SharedFile
}

func newFakeSharedFileStore() *fakeSharedFileStore {
	return &fakeSharedFileStore{}
}

func (s *fakeSharedFileStore) Create(ctx context.Context, file *models.SharedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.files {
		if s.files[i].SessionID == file.SessionID && s.files[i].ImageKey == file.ImageKey {
			return repositories.ErrDuplicate
		}
	}
	file.UploadedAt = time.Now()
	s.files = append(s.files, *file)
	return nil
}

func (s *fakeSharedFileStore) ExistsByKey(ctx context.Context, sessionID, imageKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.files {
		if s.files[i].SessionID == sessionID && s.files[i].ImageKey == imageKey {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeSharedFileStore) ListBySession(ctx context.Context, sessionID string) ([]models.SharedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SharedFile
	// Newest upload first, matching the repository's ORDER BY.
	for i := len(s.files) - 1; i >= 0; i-- {
		if s.files[i].SessionID == sessionID {
			out = append(out, s.files[i])
		}
	}
	return out, nil
}

func (s *fakeSharedFileStore) FindByKey(ctx context.Context, sessionID, imageKey string) (*models.SharedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.files {
		if s.files[i].SessionID == sessionID && s.files[i].ImageKey == imageKey {
			copied := s.files[i]
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *fakeSharedFileStore) DeleteByKey(ctx context.Context, imageKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []models.SharedFile
	removed := 0
	for i := range s.files {
		if s.files[i].ImageKey == imageKey {
			removed++
			continue
		}
		kept = append(kept, s.files[i])
	}
	if removed == 0 {
		return repositories.ErrNotFound
	}
	s.files = kept
	return nil
}

// fakeProvider hands out sequential room and connection ids and can be told
// to fail specific calls.

type fakeProvider struct {
	mu           sync.Mutex
	rooms        int
	conns        int
	roomErr      error
	tokenErr     error
	tokenErrOnce bool
}

func (p *fakeProvider) CreateRoom(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.roomErr != nil {
		return "", p.roomErr
	}
	p.rooms++
	return fmt.Sprintf("session_room%d", p.rooms), nil
}

func (p *fakeProvider) CreateConnectionToken(ctx context.Context, roomID string, metadata map[string]string) (*rtc.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tokenErr != nil {
		err := p.tokenErr
		if p.tokenErrOnce {
			p.tokenErr = nil
		}
		return nil, err
	}
	p.conns++
	return &rtc.Connection{
		ConnectionID: fmt.Sprintf("con_%d", p.conns),
		Token:        fmt.Sprintf("wss://test.example?sessionId=%s&token=tok_%d", roomID, p.conns),
	}, nil
}

var _ rtc.Provider = (*fakeProvider)(nil)

// recordingNotifier captures presence events for assertions.

type notifierEvent struct {
	kind         string
	sessionID    string
	username     string
	connectionID string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifierEvent
}

func (n *recordingNotifier) ParticipantJoined(sessionID, username, connectionID string) {
	n.record(notifierEvent{kind: "joined", sessionID: sessionID, username: username, connectionID: connectionID})
}

func (n *recordingNotifier) ParticipantLeft(sessionID, username, connectionID string) {
	n.record(notifierEvent{kind: "left", sessionID: sessionID, username: username, connectionID: connectionID})
}

func (n *recordingNotifier) SessionEnded(sessionID string) {
	n.record(notifierEvent{kind: "ended", sessionID: sessionID})
}

func (n *recordingNotifier) record(e notifierEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) byKind(kind string) []notifierEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notifierEvent
	for _, e := range n.events {
		if e.kind == kind {
			out = append(out, e)
		}
	}
	return out
}

var errStorage = errors.New("storage unavailable")
