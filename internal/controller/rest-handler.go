package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bookmyseva/darshan/internal/player"
	"github.com/bookmyseva/darshan/internal/service/darshan"
	"github.com/bookmyseva/darshan/pkg/ctxlogger"
	"github.com/bookmyseva/darshan/pkg/rest"
	"github.com/go-chi/chi/v5"
)

func (c controller) getVideo(w http.ResponseWriter, r *http.Request) {
	video, err := c.darshanService.ResolveVideo(r.Context(), r.URL.Query().Get("origin"))
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to resolve video", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to resolve video"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": video})
}

type prepareSessionInput struct {
	ViewerID      string `json:"viewer_id" validate:"required,max=64"`
	ViewportWidth int    `json:"viewport_width" validate:"gte=0,lte=10000"`
	Origin        string `json:"origin" validate:"omitempty,url,max=256"`
}

type prepareSessionOutput struct {
	SessionID    string        `json:"session_id"`
	ConnectToken string        `json:"connect_token"`
	ExpiresAt    time.Time     `json:"expires_at"`
	Video        darshan.Video `json:"video"`
}

func (c controller) prepareSession(w http.ResponseWriter, r *http.Request) {
	var input prepareSessionInput
	if err := rest.ReadJSON(r, &input); err != nil {
		c.logger.InfoContext(r.Context(), "prepareSession", "read json err", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.logger.InfoContext(r.Context(), "prepareSession", "validate err", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	resp, err := c.darshanService.PrepareSession(r.Context(), &darshan.PrepareSessionParams{
		ViewerID:      input.ViewerID,
		ViewportWidth: input.ViewportWidth,
		Origin:        input.Origin,
	})
	if err != nil {
		c.logger.ErrorContext(r.Context(), "prepareSession", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to prepare session"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": prepareSessionOutput{
		SessionID:    resp.SessionID,
		ConnectToken: resp.ConnectToken,
		ExpiresAt:    resp.ExpiresAt,
		Video:        resp.Video,
	}})
}

func (c controller) getSession(w http.ResponseWriter, r *http.Request) {
	state, err := c.darshanService.GetSessionState(chi.URLParam(r, "session-id"))
	if err != nil {
		c.writeSessionError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": struct {
		State     player.State     `json:"state"`
		Qualities []player.Quality `json:"qualities"`
	}{
		State:     state,
		Qualities: player.Qualities,
	}})
}

func (c controller) closeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session-id")
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("session_id", sessionID))
	if err := c.darshanService.CloseSession(ctx, sessionID); err != nil {
		c.writeSessionError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c controller) writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, darshan.ErrSessionNotFound) {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "session not found"})
		return
	}

	c.logger.ErrorContext(r.Context(), "session request failed", "error", err)
	rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
}
