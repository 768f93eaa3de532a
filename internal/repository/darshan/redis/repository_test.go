package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bookmyseva/darshan/internal/repository/darshan"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc), s
}

func TestVolume(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetVolume(ctx, "viewer-1")
	assert.ErrorIs(t, err, darshan.ErrVolumeNotFound)

	require.NoError(t, r.SetVolume(ctx, &darshan.SetVolumeParams{ViewerID: "viewer-1", Volume: 40}))
	got, err := s.Get("viewer:viewer-1:darshan-player-volume")
	require.NoError(t, err)
	assert.Equal(t, "40", got)

	volume, err := r.GetVolume(ctx, "viewer-1")
	require.NoError(t, err)
	assert.Equal(t, 40, volume)

	assert.ErrorIs(t, r.SetVolume(ctx, &darshan.SetVolumeParams{ViewerID: "viewer-1", Volume: 101}), darshan.ErrInvalidVolume)
}

func TestVolumeMalformed(t *testing.T) {
	r, s := newTestRepo(t)
	require.NoError(t, s.Set("viewer:viewer-2:darshan-player-volume", "loud"))

	_, err := r.GetVolume(context.Background(), "viewer-2")
	assert.ErrorIs(t, err, darshan.ErrVolumeNotFound)
}

func TestSessionTakenOnce(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	params := darshan.SetSessionParams{
		SessionID:     "session-1",
		ViewerID:      "viewer-1",
		VideoID:       "eTWaPQW7rdk",
		ViewportWidth: 390,
		Origin:        "https://bookmyseva.com",
		ExpireAt:      time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, r.SetSession(ctx, &params))
	assert.ErrorIs(t, r.SetSession(ctx, &params), darshan.ErrSessionAlreadyExists)
	assert.True(t, s.TTL("darshan-session:session-1") > 0, "session must expire")

	session, err := r.TakeSession(ctx, "session-1")
	require.NoError(t, err)
	width, origin := 390, "https://bookmyseva.com"
	assert.Equal(t, darshan.Session{
		ID:            "session-1",
		ViewerID:      "viewer-1",
		VideoID:       "eTWaPQW7rdk",
		ViewportWidth: &width,
		Origin:        &origin,
	}, session)

	_, err = r.TakeSession(ctx, "session-1")
	assert.ErrorIs(t, err, darshan.ErrSessionNotFound)
}

func TestSessionExpires(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetSession(ctx, &darshan.SetSessionParams{
		SessionID: "session-2",
		ViewerID:  "viewer-1",
		VideoID:   "eTWaPQW7rdk",
		ExpireAt:  time.Now().Add(time.Minute),
	}))
	s.FastForward(2 * time.Minute)

	_, err := r.TakeSession(ctx, "session-2")
	assert.ErrorIs(t, err, darshan.ErrSessionNotFound)
}

func TestSessionOptionalFieldsOmitted(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.SetSession(ctx, &darshan.SetSessionParams{
		SessionID: "session-3",
		ViewerID:  "viewer-1",
		VideoID:   "eTWaPQW7rdk",
		ExpireAt:  time.Now().Add(time.Minute),
	}))

	keys, err := s.HKeys("darshan-session:session-3")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"id", "viewer_id", "video_id"}, keys)

	session, err := r.TakeSession(ctx, "session-3")
	require.NoError(t, err)
	assert.Nil(t, session.ViewportWidth)
	assert.Nil(t, session.Origin)
	assert.Equal(t, 0, session.GetViewportWidth())
	assert.Empty(t, session.GetOrigin())
}
