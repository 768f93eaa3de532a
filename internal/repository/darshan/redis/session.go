package redis

import (
	"context"
	"log/slog"

	"github.com/bookmyseva/darshan/internal/repository/darshan"
)

func (r repo) getSessionKey(sessionID string) string {
	return "darshan-session:" + sessionID
}

func (r repo) SetSession(ctx context.Context, params *darshan.SetSessionParams) error {
	funcName := "darshan.redis.SetSession"
	slog.DebugContext(ctx, funcName, "params", params)

	key := r.getSessionKey(params.SessionID)
	exists, err := r.rc.Exists(ctx, key).Result()
	if err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return err
	}
	if exists > 0 {
		slog.DebugContext(ctx, funcName, "error", darshan.ErrSessionAlreadyExists)
		return darshan.ErrSessionAlreadyExists
	}

	session := darshan.Session{
		ID:       params.SessionID,
		ViewerID: params.ViewerID,
		VideoID:  params.VideoID,
	}
	if params.ViewportWidth > 0 {
		session.ViewportWidth = &params.ViewportWidth
	}
	if params.Origin != "" {
		session.Origin = &params.Origin
	}

	pipe := r.rc.TxPipeline()
	if err := r.hSetStruct(ctx, pipe, key, session); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return err
	}
	pipe.ExpireAt(ctx, key, params.ExpireAt)

	if err := r.executePipe(ctx, pipe); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return err
	}

	return nil
}

// TakeSession reads and deletes a prepared session so it can be opened once.
func (r repo) TakeSession(ctx context.Context, sessionID string) (darshan.Session, error) {
	funcName := "darshan.redis.TakeSession"
	slog.DebugContext(ctx, funcName, "sessionID", sessionID)

	key := r.getSessionKey(sessionID)
	pipe := r.rc.TxPipeline()
	getCmd := pipe.HGetAll(ctx, key)
	pipe.Del(ctx, key)

	if err := r.executePipe(ctx, pipe); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return darshan.Session{}, err
	}

	fields := getCmd.Val()
	if len(fields) == 0 {
		slog.DebugContext(ctx, funcName, "error", darshan.ErrSessionNotFound)
		return darshan.Session{}, darshan.ErrSessionNotFound
	}

	session := darshan.Session{
		ID:       fields["id"],
		ViewerID: fields["viewer_id"],
		VideoID:  fields["video_id"],
	}
	if raw, ok := fields["viewport_width"]; ok {
		width := r.fieldToInt(raw)
		session.ViewportWidth = &width
	}
	if origin, ok := fields["origin"]; ok {
		session.Origin = &origin
	}

	slog.DebugContext(ctx, funcName, "session", session)
	return session, nil
}
