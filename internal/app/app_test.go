package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bookmyseva/darshan/internal/display"
	"github.com/bookmyseva/darshan/internal/player"
	"github.com/bookmyseva/darshan/pkg/wsrouter"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContentServer(t *testing.T, liveVideoURL string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/cms/app-config", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"iosLink":"https://ios","androidLink":"https://android"}`))
	})
	mux.HandleFunc("/api/v1/content/site-config", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": map[string]string{"liveVideoUrl": liveVideoURL},
		})
	})

	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newTestApp(t *testing.T, liveVideoURL string) (*httptest.Server, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	t.Cleanup(func() { rc.Close() })

	cfg := &AppConfig{
		Secret:            "test-secret",
		Port:              8080,
		LogLevel:          "debug",
		ContentAPIURL:     newContentServer(t, liveVideoURL).URL + "/api",
		DefaultVideoID:    "eTWaPQW7rdk",
		SessionExp:        time.Minute,
		CapabilityTimeout: 500 * time.Millisecond,
		EmitRetries:       2,
	}
	require.NoError(t, cfg.Validate())

	srv := newServer(cfg, rc, clockwork.NewFakeClock(), slog.Default())
	ts := httptest.NewServer(srv.handler)
	t.Cleanup(ts.Close)

	return ts, s
}

type preparedSession struct {
	Data struct {
		SessionID    string `json:"session_id"`
		ConnectToken string `json:"connect_token"`
		Video        struct {
			ID        string `json:"id"`
			IsDefault bool   `json:"is_default"`
		} `json:"video"`
	} `json:"data"`
}

func prepare(t *testing.T, ts *httptest.Server, viewerID string) preparedSession {
	t.Helper()

	body, _ := json.Marshal(map[string]any{"viewer_id": viewerID, "viewport_width": 1280})
	resp, err := http.Post(ts.URL+"/api/v1/darshan/sessions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var prepared preparedSession
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&prepared))
	return prepared
}

func dial(t *testing.T, ts *httptest.Server, sessionID, token string) *websocket.Conn {
	t.Helper()

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws/darshan/" + sessionID + "?connect-token=" + url.QueryEscape(token)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, messageType string) wsrouter.Message {
	t.Helper()

	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg wsrouter.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == messageType {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, messageType string, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(wsrouter.Message{Type: messageType, Payload: data}))
}

func TestDarshanSession(t *testing.T) {
	ts, s := newTestApp(t, "https://www.youtube.com/watch?v=eTWaPQW7rdk&t=5")

	prepared := prepare(t, ts, "viewer-1")
	assert.Equal(t, "eTWaPQW7rdk", prepared.Data.Video.ID)
	assert.False(t, prepared.Data.Video.IsDefault)

	conn := dial(t, ts, prepared.Data.SessionID, prepared.Data.ConnectToken)
	readUntil(t, conn, display.TypeSessionOpened)
	readUntil(t, conn, display.TypePlayerStateUpdated)

	// volume change
	send(t, conn, display.TypeUpdateVolume, map[string]int{"volume": 30})
	msg := readUntil(t, conn, display.TypePlayerCommand)
	assert.JSONEq(t, `{"event":"command","func":"setVolume","args":[30]}`, string(msg.Payload))

	msg = readUntil(t, conn, display.TypePlayerStateUpdated)
	var state player.State
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.Equal(t, 30, state.VolumeLevel)

	assert.Eventually(t, func() bool {
		v, err := s.Get("viewer:viewer-1:darshan-player-volume")
		return err == nil && v == "30"
	}, time.Second, 10*time.Millisecond)

	// session state over REST
	resp, err := http.Get(ts.URL + "/api/v1/darshan/sessions/" + prepared.Data.SessionID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// invalid payload
	send(t, conn, display.TypeUpdateVolume, map[string]int{"volume": 300})
	msg = readUntil(t, conn, display.TypeError)
	assert.Contains(t, string(msg.Payload), "volume must be less than or equal to 100")

	// fullscreen request answered by the page
	send(t, conn, display.TypeToggleFullscreen, nil)
	msg = readUntil(t, conn, display.TypeCapabilityRequest)
	var req display.CapabilityRequest
	require.NoError(t, json.Unmarshal(msg.Payload, &req))
	assert.Equal(t, player.CapabilityRequestFullscreen, req.Capability)
	send(t, conn, display.TypeCapabilityResult, display.CapabilityResult{ID: req.ID, OK: true})
	msg = readUntil(t, conn, display.TypePlayerStateUpdated)
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.True(t, state.IsFullscreen)

	// escape closes the overlay
	send(t, conn, display.TypeKeyPressed, map[string]string{"key": "Escape"})
	msg = readUntil(t, conn, display.TypeCapabilityRequest)
	require.NoError(t, json.Unmarshal(msg.Payload, &req))
	assert.Equal(t, player.CapabilityExitFullscreen, req.Capability)
	send(t, conn, display.TypeCapabilityResult, display.CapabilityResult{ID: req.ID, OK: true})
	readUntil(t, conn, display.TypeSessionClosed)

	assert.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/api/v1/darshan/sessions/" + prepared.Data.SessionID)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, time.Second, 10*time.Millisecond)
}

func TestDarshanSessionFallsBackToDefaultVideo(t *testing.T) {
	ts, _ := newTestApp(t, "not-a-url")

	prepared := prepare(t, ts, "viewer-2")
	assert.Equal(t, "eTWaPQW7rdk", prepared.Data.Video.ID)
	assert.True(t, prepared.Data.Video.IsDefault)
}

func TestDarshanSessionRejectsBadToken(t *testing.T) {
	ts, _ := newTestApp(t, "https://youtu.be/eTWaPQW7rdk")

	prepared := prepare(t, ts, "viewer-3")
	conn := dial(t, ts, prepared.Data.SessionID, "not-a-token")

	msg := readUntil(t, conn, display.TypeError)
	assert.Contains(t, string(msg.Payload), "invalid connect token")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, 4001))
}

func TestConfigValidate(t *testing.T) {
	cfg := AppConfig{
		Secret:            "s",
		Port:              80,
		ContentAPIURL:     "http://localhost/api",
		DefaultVideoID:    "eTWaPQW7rdk",
		SessionExp:        time.Minute,
		CapabilityTimeout: time.Second,
		EmitRetries:       1,
	}
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.DefaultVideoID = "nope"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Secret = ""
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.RedisDB = -1
	assert.Error(t, bad.Validate())
}
