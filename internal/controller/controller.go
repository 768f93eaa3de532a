package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bookmyseva/darshan/internal/player"
	"github.com/bookmyseva/darshan/internal/service/darshan"
	"github.com/bookmyseva/darshan/pkg/validator"
	"github.com/bookmyseva/darshan/pkg/wsrouter"
	"github.com/gorilla/websocket"
)

type iDarshanService interface {
	ResolveVideo(context.Context, string) (darshan.Video, error)
	PrepareSession(context.Context, *darshan.PrepareSessionParams) (darshan.PrepareSessionResponse, error)
	OpenSession(context.Context, *darshan.OpenSessionParams) (*darshan.LiveSession, error)
	CloseSession(context.Context, string) error
	GetSession(string) (*darshan.LiveSession, error)
	GetSessionState(string) (player.State, error)
}

type controller struct {
	darshanService iDarshanService
	upgrader       websocket.Upgrader
	wsRouter       *wsrouter.WSRouter
	validate       *validator.Validator
	logger         *slog.Logger
}

func NewController(darshanService iDarshanService, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		darshanService: darshanService,
		validate:       validator.NewValidator(),
		logger:         logger,
	}
	c.wsRouter = c.getWSRouter()

	return c
}
