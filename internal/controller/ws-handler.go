package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bookmyseva/darshan/internal/display"
	"github.com/bookmyseva/darshan/internal/player"
	"github.com/bookmyseva/darshan/internal/service/darshan"
	"github.com/bookmyseva/darshan/pkg/ctxlogger"
	"github.com/bookmyseva/darshan/pkg/rest"
	"github.com/bookmyseva/darshan/pkg/validator"
	"github.com/bookmyseva/darshan/pkg/wsrouter"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	closeCodeInvalidToken    = 4001
	closeCodeSessionNotFound = 4004
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type EmptyInput struct{}

// ValidationError is returned by handlers whose payload fails validation.
type ValidationError struct {
	Errors []validator.ValidationError
}

func (e *ValidationError) Error() string {
	return "invalid payload"
}

func (e *ValidationError) Details() any {
	return e.Errors
}

func (c controller) connectDarshan(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session-id")
	connectToken := r.URL.Query().Get("connect-token")
	if connectToken == "" {
		rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "connect-token was not provided"})
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to upgrade connection", "error", err)
		return
	}

	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("session_id", sessionID))
	session, err := c.darshanService.OpenSession(ctx, &darshan.OpenSessionParams{
		SessionID:    sessionID,
		ConnectToken: connectToken,
		Conn:         conn,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to open session", "error", err)
		c.rejectConn(conn, err)
		return
	}

	ctx = context.WithValue(ctx, sessionIDCtxKey, session.ID)
	if err := session.Link.Serve(ctx, c.wsRouter); err != nil {
		c.logger.InfoContext(ctx, "display link ended", "error", err)
	}

	if err := c.darshanService.CloseSession(context.WithoutCancel(ctx), session.ID); err != nil && !errors.Is(err, darshan.ErrSessionNotFound) {
		c.logger.WarnContext(ctx, "failed to close session", "error", err)
	}
}

func (c controller) rejectConn(conn *websocket.Conn, err error) {
	code, reason := websocket.CloseInternalServerErr, "internal error"
	switch {
	case errors.Is(err, darshan.ErrInvalidToken):
		code, reason = closeCodeInvalidToken, "invalid connect token"
	case errors.Is(err, darshan.ErrSessionNotFound):
		code, reason = closeCodeSessionNotFound, "session not found"
	}

	conn.WriteJSON(&Output{
		Type:    display.TypeError,
		Payload: display.ErrorPayload{Message: reason},
	})
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
	conn.Close()
}

func (c controller) getWSRouter() *wsrouter.WSRouter {
	r := wsrouter.New()
	r.Use(c.wsRequestIdMw(), c.loggerWSMw())

	wsrouter.Handle(r, display.TypeAlive, c.handleAlive)
	wsrouter.Handle(r, display.TypeTogglePlayPause, c.handleTogglePlayPause)
	wsrouter.Handle(r, display.TypeToggleMute, c.handleToggleMute)
	wsrouter.Handle(r, display.TypeUpdateVolume, c.handleUpdateVolume)
	wsrouter.Handle(r, display.TypeSetQuality, c.handleSetQuality)
	wsrouter.Handle(r, display.TypeToggleQualityMenu, c.handleToggleQualityMenu)
	wsrouter.Handle(r, display.TypeToggleFullscreen, c.handleToggleFullscreen)
	wsrouter.Handle(r, display.TypeFullscreenChanged, c.handleFullscreenChanged)
	wsrouter.Handle(r, display.TypePointerActivity, c.handlePointerActivity)
	wsrouter.Handle(r, display.TypePointerLeave, c.handlePointerLeave)
	wsrouter.Handle(r, display.TypeToggleControlsLock, c.handleToggleControlsLock)
	wsrouter.Handle(r, display.TypeKeyPressed, c.handleKeyPressed)
	wsrouter.Handle(r, display.TypeClose, c.handleClose)

	return r
}

func (c controller) getPlayer(ctx context.Context) (*player.Controller, error) {
	session, err := c.darshanService.GetSession(c.getSessionIDFromCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session.Player, nil
}

func (c controller) validateInput(input any) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

func (c controller) handleAlive(_ context.Context, _ EmptyInput) error {
	return nil
}

func (c controller) handleTogglePlayPause(ctx context.Context, _ EmptyInput) error {
	p, err := c.getPlayer(ctx)
	if err != nil {
		return err
	}

	p.TogglePlayPause(ctx)
	return nil
}

func (c controller) handleToggleMute(ctx context.Context, _ EmptyInput) error {
	p, err := c.getPlayer(ctx)
	if err != nil {
		return err
	}

	p.ToggleMute(ctx)
	return nil
}

type UpdateVolumeInput struct {
	Volume *int `json:"volume" validate:"required,gte=0,lte=100"`
}

func (c controller) handleUpdateVolume(ctx context.Context, input UpdateVolumeInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	p, err := c.getPlayer(ctx)
	if err != nil {
		return err
	}

	p.UpdateVolume(ctx, *input.Volume)
	return nil
}

type SetQualityInput struct {
	Quality string `json:"quality" validate:"required,max=16"`
}

func (c controller) handleSetQuality(ctx context.Context, input SetQualityInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	p, err := c.getPlayer(ctx)
	if err != nil {
		return err
	}

	p.SetQuality(ctx, input.Quality)
	return nil
}

func (c controller) handleToggleQualityMenu(ctx context.Context, _ EmptyInput) error {
	p, err := c.getPlayer(ctx)
	if err != nil {
		return err
	}

	p.ToggleQualityMenu(ctx)
	return nil
}

func (c controller) handleToggleFullscreen(ctx context.Context, _ EmptyInput) error {
	p, err := c.getPlayer(ctx)
	if err != nil {
		return err
	}

	p.ToggleFullscreen(ctx)
	return nil
}

type FullscreenChangedInput struct {
	IsFullscreen bool `json:"is_fullscreen"`
}

func (c controller) handleFullscreenChanged(ctx context.Context, input FullscreenChangedInput) error {
	p, err := c.getPlayer(ctx)
	if err != nil {
		return err
	}

	p.SyncFullscreen(ctx, input.IsFullscreen)
	return nil
}

func (c controller) handlePointerActivity(ctx context.Context, _ EmptyInput) error {
	p, err := c.getPlayer(ctx)
	if err != nil {
		return err
	}

	p.Activity(ctx)
	return nil
}

func (c controller) handlePointerLeave(ctx context.Context, _ EmptyInput) error {
	p, err := c.getPlayer(ctx)
	if err != nil {
		return err
	}

	p.PointerLeave(ctx)
	return nil
}

func (c controller) handleToggleControlsLock(ctx context.Context, _ EmptyInput) error {
	p, err := c.getPlayer(ctx)
	if err != nil {
		return err
	}

	p.ToggleLock(ctx)
	return nil
}

type KeyPressedInput struct {
	Key string `json:"key" validate:"required,max=32"`
}

func (c controller) handleKeyPressed(ctx context.Context, input KeyPressedInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	p, err := c.getPlayer(ctx)
	if err != nil {
		return err
	}

	if p.HandleKey(ctx, input.Key) {
		return c.handleClose(ctx, EmptyInput{})
	}
	return nil
}

func (c controller) handleClose(ctx context.Context, _ EmptyInput) error {
	if err := c.darshanService.CloseSession(ctx, c.getSessionIDFromCtx(ctx)); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	return nil
}
