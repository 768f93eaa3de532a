package controller

import "context"

type contextKey int

const (
	sessionIDCtxKey contextKey = iota
)

func (c controller) getSessionIDFromCtx(ctx context.Context) string {
	sessionID, ok := ctx.Value(sessionIDCtxKey).(string)
	if !ok {
		return ""
	}

	return sessionID
}
