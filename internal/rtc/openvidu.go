package rtc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	basicAuthUser = "OPENVIDUAPP"

	sessionIDPrefix = "session_"
)

// OpenViduProvider implements Provider against an OpenVidu-compatible REST
// API. Every call is bounded by the configured timeout; a timeout or
// transport failure is returned to the orchestrator, never retried here.
type OpenViduProvider struct {
	baseURL string
	domain  string
	secret  string
	client  *http.Client
	logger  zerolog.Logger
}

func NewOpenViduProvider(baseURL, domain, secret string, timeout time.Duration, logger zerolog.Logger) *OpenViduProvider {
	return &OpenViduProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		domain:  domain,
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "rtc").Logger(),
	}
}

type createSessionRequest struct {
	CustomSessionID string `json:"customSessionId"`
	MediaMode       string `json:"mediaMode"`
	RecordingMode   string `json:"recordingMode"`
}

type createConnectionRequest struct {
	Type string `json:"type"`
	Role string `json:"role"`
	Data string `json:"data,omitempty"`
}

type connectionResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// CreateRoom provisions a routed media room under a generated custom id.
// A 409 from the server means the id already exists, which cannot happen for
// a fresh uuid and is treated as a failure like any other non-2xx status.
func (p *OpenViduProvider) CreateRoom(ctx context.Context) (string, error) {
	roomID := sessionIDPrefix + uuid.NewString()

	body := createSessionRequest{
		CustomSessionID: roomID,
		MediaMode:       "ROUTED",
		RecordingMode:   "MANUAL",
	}

	if err := p.post(ctx, "/openvidu/api/sessions", body, nil); err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}

	p.logger.Debug().Str("room_id", roomID).Msg("rtc room created")
	return roomID, nil
}

// CreateConnectionToken issues a WEBRTC publisher connection for the room.
// Bare "tok_" tokens are expanded into the full websocket URL so clients can
// connect without knowing the provider domain.
func (p *OpenViduProvider) CreateConnectionToken(ctx context.Context, roomID string, metadata map[string]string) (*Connection, error) {
	data := ""
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("encode connection metadata: %w", err)
		}
		data = string(raw)
	}

	body := createConnectionRequest{
		Type: "WEBRTC",
		Role: "PUBLISHER",
		Data: data,
	}

	var resp connectionResponse
	path := fmt.Sprintf("/openvidu/api/sessions/%s/connection", roomID)
	if err := p.post(ctx, path, body, &resp); err != nil {
		return nil, fmt.Errorf("create connection token: %w", err)
	}

	token := resp.Token
	if strings.HasPrefix(token, "tok_") {
		token = fmt.Sprintf("wss://%s?sessionId=%s&token=%s", p.domain, roomID, token)
	}

	p.logger.Debug().
		Str("room_id", roomID).
		Str("connection_id", resp.ID).
		Msg("rtc connection issued")

	return &Connection{ConnectionID: resp.ID, Token: token}, nil
}

func (p *OpenViduProvider) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.SetBasicAuth(basicAuthUser, p.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(snippet))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
