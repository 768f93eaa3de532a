package darshan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bookmyseva/darshan/internal/content"
	"github.com/bookmyseva/darshan/internal/display"
	"github.com/bookmyseva/darshan/internal/player"
	"github.com/bookmyseva/darshan/internal/repository/darshan"
	darshanRedis "github.com/bookmyseva/darshan/internal/repository/darshan/redis"
	"github.com/bookmyseva/darshan/internal/repository/live/inmemory"
	"github.com/bookmyseva/darshan/pkg/ctxlogger"
	"github.com/bookmyseva/darshan/pkg/wsrouter"
	"github.com/bookmyseva/darshan/pkg/ytvideodata"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultVideoID = "eTWaPQW7rdk"

type staticContent struct {
	cfg content.AppConfig
}

func (c staticContent) FetchOrFallback(context.Context) content.AppConfig {
	return c.cfg
}

type staticVideoData struct {
	err error
}

func (d staticVideoData) Get(context.Context, string) (*ytvideodata.VideoData, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &ytvideodata.VideoData{Title: "Mangala Aarti", AuthorName: "Temple Live"}, nil
}

type testEnv struct {
	service *service
	repo    iDarshanRepo
	clock   clockwork.FakeClock
}

func newTestEnv(t *testing.T, liveVideoURL string) *testEnv {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	t.Cleanup(func() { rc.Close() })

	repo := darshanRedis.NewRepo(rc)
	clock := clockwork.NewFakeClock()
	svc := NewService(&Params{
		DarshanRepo:       repo,
		LiveRepo:          inmemory.NewRepo[*LiveSession](),
		Content:           staticContent{cfg: content.AppConfig{LiveVideoURL: liveVideoURL}},
		VideoData:         staticVideoData{},
		Clock:             clock,
		Logger:            slog.Default(),
		Secret:            "test-secret",
		DefaultVideoID:    defaultVideoID,
		SessionExp:        10 * time.Minute,
		CapabilityTimeout: 200 * time.Millisecond,
		EmitRetries:       1,
	})

	return &testEnv{service: svc, repo: repo, clock: clock}
}

func TestResolveVideo(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t, "https://www.youtube.com/live/dQw4w9WgXcQ?si=abc")
	video, err := env.service.ResolveVideo(ctx, "https://bookmyseva.com")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", video.ID)
	assert.False(t, video.IsDefault)
	assert.Equal(t, "Mangala Aarti", video.Title)
	assert.Contains(t, video.EmbedURL, "dQw4w9WgXcQ")

	env = newTestEnv(t, "not-a-url")
	video, err = env.service.ResolveVideo(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, defaultVideoID, video.ID)
	assert.True(t, video.IsDefault)
}

func TestResolveVideoWithoutMetadata(t *testing.T) {
	env := newTestEnv(t, "https://youtu.be/eTWaPQW7rdk")
	env.service.videoData = staticVideoData{err: errors.New("offline")}

	video, err := env.service.ResolveVideo(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "eTWaPQW7rdk", video.ID)
	assert.Empty(t, video.Title)
}

func TestPrepareSession(t *testing.T) {
	env := newTestEnv(t, "https://youtu.be/eTWaPQW7rdk")
	ctx := context.Background()

	resp, err := env.service.PrepareSession(ctx, &PrepareSessionParams{ViewerID: "viewer-1", ViewportWidth: 390})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.NotEmpty(t, resp.ConnectToken)
	assert.Equal(t, "eTWaPQW7rdk", resp.Video.ID)

	claims, err := env.service.parseJWT(resp.ConnectToken)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, claims.SessionID)

	env.clock.Advance(11 * time.Minute)
	_, err = env.service.parseJWT(resp.ConnectToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestOpenSessionRejectsBadToken(t *testing.T) {
	env := newTestEnv(t, "https://youtu.be/eTWaPQW7rdk")
	ctx := context.Background()

	resp, err := env.service.PrepareSession(ctx, &PrepareSessionParams{ViewerID: "viewer-1"})
	require.NoError(t, err)

	_, err = env.service.OpenSession(ctx, &OpenSessionParams{SessionID: resp.SessionID, ConnectToken: "garbage"})
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := env.service.PrepareSession(ctx, &PrepareSessionParams{ViewerID: "viewer-2"})
	require.NoError(t, err)
	_, err = env.service.OpenSession(ctx, &OpenSessionParams{SessionID: resp.SessionID, ConnectToken: other.ConnectToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return strings.Split(strings.TrimSpace(b.buf.String()), "\n")
}

func readMessage(t *testing.T, conn *websocket.Conn) wsrouter.Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsrouter.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestOpenAndCloseSession(t *testing.T) {
	env := newTestEnv(t, "https://youtu.be/eTWaPQW7rdk")
	ctx := context.Background()

	require.NoError(t, env.repo.SetVolume(ctx, &darshan.SetVolumeParams{ViewerID: "viewer-1", Volume: 40}))
	resp, err := env.service.PrepareSession(ctx, &PrepareSessionParams{ViewerID: "viewer-1", ViewportWidth: 1280})
	require.NoError(t, err)

	logs := &syncBuffer{}
	env.service.logger = slog.New(ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
	sessionCtx := ctxlogger.AppendCtx(ctx, slog.String("session_id", resp.SessionID))

	opened := make(chan error, 1)
	upgrader := websocket.Upgrader{}
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		session, err := env.service.OpenSession(ctxlogger.AppendCtx(r.Context(), slog.String("session_id", resp.SessionID)), &OpenSessionParams{
			SessionID:    resp.SessionID,
			ConnectToken: resp.ConnectToken,
			Conn:         conn,
		})
		opened <- err
		if err != nil {
			conn.Close()
			return
		}
		_ = session.Link.Serve(r.Context(), wsrouter.New())
	}))
	t.Cleanup(s.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, <-opened)

	msg := readMessage(t, client)
	assert.Equal(t, display.TypeSessionOpened, msg.Type)
	assert.Contains(t, string(msg.Payload), `"session_id":"`+resp.SessionID+`"`)
	assert.NotContains(t, string(msg.Payload), `"state"`, "state is only sent once the player is open")

	msg = readMessage(t, client)
	assert.Equal(t, display.TypePlayerStateUpdated, msg.Type)
	var first player.State
	require.NoError(t, json.Unmarshal(msg.Payload, &first))
	assert.True(t, first.Active)
	assert.Equal(t, uint64(1), first.Version)

	state, err := env.service.GetSessionState(resp.SessionID)
	require.NoError(t, err)
	assert.True(t, state.Active)
	assert.Equal(t, 40, state.VolumeLevel)
	assert.Equal(t, []string{resp.SessionID}, env.service.LiveSessionIDs())

	_, err = env.repo.TakeSession(ctx, resp.SessionID)
	assert.ErrorIs(t, err, darshan.ErrSessionNotFound, "prepared session is consumed on open")

	require.NoError(t, env.service.CloseSession(sessionCtx, resp.SessionID))
	assert.ErrorIs(t, env.service.CloseSession(sessionCtx, resp.SessionID), ErrSessionNotFound)
	_, err = env.service.GetSessionState(resp.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	var types []string
	for {
		require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
		var m wsrouter.Message
		if err := client.ReadJSON(&m); err != nil {
			break
		}
		types = append(types, m.Type)
	}
	assert.Contains(t, types, display.TypeSessionClosed)

	tagged := 0
	for _, line := range logs.lines() {
		if n := strings.Count(line, `"session_id"`); n > 0 {
			tagged++
			assert.Equal(t, 1, n, line)
		}
	}
	assert.NotZero(t, tagged)
}
