package darshan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookmyseva/darshan/internal/display"
	"github.com/bookmyseva/darshan/internal/player"
	"github.com/bookmyseva/darshan/internal/repository/darshan"
	"github.com/bookmyseva/darshan/internal/repository/live"
	"github.com/bookmyseva/darshan/pkg/ctxlogger"
	"github.com/bookmyseva/darshan/pkg/ytid"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	retryInitialDelay = 50 * time.Millisecond
	retryMaxDelay     = 400 * time.Millisecond
)

// LiveSession is an open overlay: the player controller and the display link
// it drives.
type LiveSession struct {
	ID       string
	ViewerID string
	Video    Video
	Link     *display.Link
	Player   *player.Controller
}

type PrepareSessionParams struct {
	ViewerID      string
	ViewportWidth int
	Origin        string
}

type PrepareSessionResponse struct {
	SessionID    string
	ConnectToken string
	ExpiresAt    time.Time
	Video        Video
}

// PrepareSession resolves the video and stores a session the display link can
// open once with the returned connect token.
func (s service) PrepareSession(ctx context.Context, params *PrepareSessionParams) (PrepareSessionResponse, error) {
	video, err := s.ResolveVideo(ctx, params.Origin)
	if err != nil {
		return PrepareSessionResponse{}, fmt.Errorf("resolve video: %w", err)
	}

	sessionID := uuid.NewString()
	expireAt := s.clock.Now().Add(s.sessionExp)
	if err := s.darshanRepo.SetSession(ctx, &darshan.SetSessionParams{
		SessionID:     sessionID,
		ViewerID:      params.ViewerID,
		VideoID:       video.ID,
		ViewportWidth: params.ViewportWidth,
		Origin:        params.Origin,
		ExpireAt:      expireAt,
	}); err != nil {
		return PrepareSessionResponse{}, fmt.Errorf("store session: %w", err)
	}

	connectToken, err := s.generateJWT(sessionID, expireAt)
	if err != nil {
		return PrepareSessionResponse{}, fmt.Errorf("generate connect token: %w", err)
	}

	return PrepareSessionResponse{
		SessionID:    sessionID,
		ConnectToken: connectToken,
		ExpiresAt:    expireAt,
		Video:        video,
	}, nil
}

type OpenSessionParams struct {
	SessionID    string
	ConnectToken string
	Conn         *websocket.Conn
}

type sessionOpenedPayload struct {
	SessionID string   `json:"session_id"`
	Video     Video    `json:"video"`
	Qualities []string `json:"qualities"`
}

// OpenSession consumes the prepared session, attaches a controller to the
// display link and opens the overlay. The caller serves the link.
func (s service) OpenSession(ctx context.Context, params *OpenSessionParams) (*LiveSession, error) {
	claims, err := s.parseJWT(params.ConnectToken)
	if err != nil {
		return nil, err
	}
	if claims.SessionID != params.SessionID {
		return nil, ErrInvalidToken
	}

	prepared, err := s.darshanRepo.TakeSession(ctx, params.SessionID)
	if err != nil {
		if errors.Is(err, darshan.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("take session: %w", err)
	}

	link := display.NewLink(&display.Params{
		Conn:              params.Conn,
		Logger:            s.logger,
		Clock:             s.clock,
		CapabilityTimeout: s.capabilityTimeout,
	})

	var emitter player.Emitter = link
	if s.emitRetries > 1 {
		emitter = player.NewRetryEmitter(link, s.clock, s.emitRetries, retryInitialDelay, retryMaxDelay)
	}

	controller := player.NewController(&player.Params{
		VideoID: prepared.VideoID,
		Emitter: emitter,
		Screen:  link,
		Volumes: viewerVolumes{repo: s.darshanRepo, viewerID: prepared.ViewerID},
		Clock:   s.clock,
		Logger:  s.logger,
		Config:  s.playerConfig,
	})

	thumbnail, fallbackThumbnail := ytid.ThumbnailURLs(prepared.VideoID)
	session := &LiveSession{
		ID:       prepared.ID,
		ViewerID: prepared.ViewerID,
		Video: Video{
			ID:                   prepared.VideoID,
			EmbedURL:             ytid.EmbedURL(prepared.VideoID, prepared.GetOrigin()),
			ThumbnailURL:         thumbnail,
			FallbackThumbnailURL: fallbackThumbnail,
			IsDefault:            prepared.VideoID == s.defaultVideoID,
		},
		Link:   link,
		Player: controller,
	}

	if err := s.liveRepo.Add(session.ID, session); err != nil {
		link.Close()
		return nil, fmt.Errorf("register session: %w", err)
	}

	controller.Subscribe(func(state player.State) {
		if err := link.Send(ctx, display.TypePlayerStateUpdated, state); err != nil {
			s.logger.DebugContext(ctx, "state update not delivered", "version", state.Version, "error", err)
		}
	})

	qualities := make([]string, 0, len(player.Qualities))
	for _, q := range player.Qualities {
		qualities = append(qualities, string(q))
	}
	if err := link.Send(ctx, display.TypeSessionOpened, sessionOpenedPayload{
		SessionID: session.ID,
		Video:     session.Video,
		Qualities: qualities,
	}); err != nil {
		s.logger.InfoContext(ctx, "session opened message not delivered", "error", err)
	}

	if err := controller.Open(ctx, prepared.GetViewportWidth()); err != nil {
		_, _ = s.liveRepo.Remove(session.ID)
		link.Close()
		return nil, fmt.Errorf("open player: %w", err)
	}

	return session, nil
}

// CloseSession closes the overlay and its display link.
func (s service) CloseSession(ctx context.Context, sessionID string) error {
	session, err := s.liveRepo.Remove(sessionID)
	if err != nil {
		if errors.Is(err, live.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	s.closeLive(ctx, session)
	return nil
}

func (s service) closeLive(ctx context.Context, session *LiveSession) {
	if err := session.Player.Close(ctx); err != nil {
		s.logger.DebugContext(ctx, "player close", "error", err)
	}
	_ = session.Link.Send(ctx, display.TypeSessionClosed, nil)
	session.Link.Close()
}

func (s service) GetSession(sessionID string) (*LiveSession, error) {
	session, err := s.liveRepo.Get(sessionID)
	if err != nil {
		if errors.Is(err, live.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return session, nil
}

func (s service) GetSessionState(sessionID string) (player.State, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return player.State{}, err
	}

	return session.Player.State(), nil
}

func (s service) LiveSessionIDs() []string {
	return s.liveRepo.IDs()
}

// Shutdown closes every live session.
func (s service) Shutdown(ctx context.Context) {
	for _, session := range s.liveRepo.Drain() {
		s.closeLive(ctxlogger.AppendCtx(ctx, slog.String("session_id", session.ID)), session)
	}
}
