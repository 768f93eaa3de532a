package redis

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/bookmyseva/darshan/internal/repository/darshan"
	"github.com/redis/go-redis/v9"
)

// volumeKeyName is the name the storefront has always stored the level under.
const volumeKeyName = "darshan-player-volume"

func (r repo) getVolumeKey(viewerID string) string {
	return "viewer:" + viewerID + ":" + volumeKeyName
}

func (r repo) SetVolume(ctx context.Context, params *darshan.SetVolumeParams) error {
	funcName := "darshan.redis.SetVolume"
	slog.DebugContext(ctx, funcName, "params", params)

	if params.Volume < 0 || params.Volume > 100 {
		slog.DebugContext(ctx, funcName, "error", darshan.ErrInvalidVolume)
		return darshan.ErrInvalidVolume
	}

	if err := r.rc.Set(ctx, r.getVolumeKey(params.ViewerID), strconv.Itoa(params.Volume), 0).Err(); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return err
	}

	return nil
}

// GetVolume returns the stored level. A malformed value reads as absent.
func (r repo) GetVolume(ctx context.Context, viewerID string) (int, error) {
	funcName := "darshan.redis.GetVolume"
	slog.DebugContext(ctx, funcName, "viewerID", viewerID)

	raw, err := r.rc.Get(ctx, r.getVolumeKey(viewerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			slog.DebugContext(ctx, funcName, "error", darshan.ErrVolumeNotFound)
			return 0, darshan.ErrVolumeNotFound
		}

		slog.ErrorContext(ctx, funcName, "error", err)
		return 0, err
	}

	volume, err := strconv.Atoi(raw)
	if err != nil || volume < 0 || volume > 100 {
		slog.InfoContext(ctx, funcName, "error", "malformed stored volume", "raw", raw)
		return 0, darshan.ErrVolumeNotFound
	}

	slog.DebugContext(ctx, funcName, "volume", volume)
	return volume, nil
}
