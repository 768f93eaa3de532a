package darshan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bookmyseva/darshan/internal/content"
	"github.com/bookmyseva/darshan/internal/player"
	"github.com/bookmyseva/darshan/internal/repository/darshan"
	"github.com/bookmyseva/darshan/pkg/ytvideodata"
	"github.com/jonboulle/clockwork"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidToken    = errors.New("invalid connect token")
)

type iDarshanRepo interface {
	SetSession(context.Context, *darshan.SetSessionParams) error
	TakeSession(context.Context, string) (darshan.Session, error)
	SetVolume(context.Context, *darshan.SetVolumeParams) error
	GetVolume(context.Context, string) (int, error)
}

type iLiveRepo interface {
	Add(string, *LiveSession) error
	Remove(string) (*LiveSession, error)
	Get(string) (*LiveSession, error)
	IDs() []string
	Drain() []*LiveSession
}

type iContentClient interface {
	FetchOrFallback(context.Context) content.AppConfig
}

type iVideoDataClient interface {
	Get(context.Context, string) (*ytvideodata.VideoData, error)
}

type Params struct {
	DarshanRepo       iDarshanRepo
	LiveRepo          iLiveRepo
	Content           iContentClient
	VideoData         iVideoDataClient
	Clock             clockwork.Clock
	Logger            *slog.Logger
	Secret            string
	DefaultVideoID    string
	SessionExp        time.Duration
	CapabilityTimeout time.Duration
	EmitRetries       int
	PlayerConfig      player.Config
}

type service struct {
	darshanRepo       iDarshanRepo
	liveRepo          iLiveRepo
	content           iContentClient
	videoData         iVideoDataClient
	clock             clockwork.Clock
	logger            *slog.Logger
	secret            []byte
	defaultVideoID    string
	sessionExp        time.Duration
	capabilityTimeout time.Duration
	emitRetries       int
	playerConfig      player.Config
}

func NewService(params *Params) *service {
	clock := params.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &service{
		darshanRepo:       params.DarshanRepo,
		liveRepo:          params.LiveRepo,
		content:           params.Content,
		videoData:         params.VideoData,
		clock:             clock,
		logger:            logger,
		secret:            []byte(params.Secret),
		defaultVideoID:    params.DefaultVideoID,
		sessionExp:        params.SessionExp,
		capabilityTimeout: params.CapabilityTimeout,
		emitRetries:       params.EmitRetries,
		playerConfig:      params.PlayerConfig,
	}
}
