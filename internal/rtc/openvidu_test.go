package rtc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenViduProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenViduProvider(server.URL, "media.example.com", "rtc-secret", 5*time.Second, zerolog.Nop())
}

func TestCreateRoom(t *testing.T) {
	var gotBody createSessionRequest
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/openvidu/api/sessions", r.URL.Path)
		user, secret, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "OPENVIDUAPP", user)
		assert.Equal(t, "rtc-secret", secret)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	})

	roomID, err := provider.CreateRoom(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(roomID, "session_"))
	assert.Equal(t, roomID, gotBody.CustomSessionID)
	assert.Equal(t, "ROUTED", gotBody.MediaMode)
	assert.Equal(t, "MANUAL", gotBody.RecordingMode)
}

func TestCreateRoomServerError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := provider.CreateRoom(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestCreateConnectionTokenExpandsBareToken(t *testing.T) {
	var gotBody createConnectionRequest
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openvidu/api/sessions/session_abc/connection", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(connectionResponse{ID: "con_1", Token: "tok_xyz"})
	})

	conn, err := provider.CreateConnectionToken(context.Background(), "session_abc", map[string]string{"username": "alice"})
	require.NoError(t, err)
	assert.Equal(t, "con_1", conn.ConnectionID)
	assert.Equal(t, "wss://media.example.com?sessionId=session_abc&token=tok_xyz", conn.Token)

	assert.Equal(t, "WEBRTC", gotBody.Type)
	assert.Equal(t, "PUBLISHER", gotBody.Role)
	assert.Contains(t, gotBody.Data, `"username":"alice"`)
}

func TestCreateConnectionTokenKeepsFullURL(t *testing.T) {
	full := "wss://elsewhere.example.com?sessionId=session_abc&token=tok_xyz"
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(connectionResponse{ID: "con_1", Token: full})
	})

	conn, err := provider.CreateConnectionToken(context.Background(), "session_abc", nil)
	require.NoError(t, err)
	assert.Equal(t, full, conn.Token)
}

func TestCreateConnectionTokenUnreachableProvider(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	provider := NewOpenViduProvider(server.URL, "media.example.com", "rtc-secret", time.Second, zerolog.Nop())

	_, err := provider.CreateConnectionToken(context.Background(), "session_abc", nil)
	assert.Error(t, err)
}
