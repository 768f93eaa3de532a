package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bookmyseva/darshan/internal/content"
	"github.com/bookmyseva/darshan/internal/controller"
	darshanRedis "github.com/bookmyseva/darshan/internal/repository/darshan/redis"
	"github.com/bookmyseva/darshan/internal/repository/live/inmemory"
	"github.com/bookmyseva/darshan/internal/service/darshan"
	"github.com/bookmyseva/darshan/pkg/ctxlogger"
	"github.com/bookmyseva/darshan/pkg/redisclient"
	"github.com/bookmyseva/darshan/pkg/ytid"
	"github.com/bookmyseva/darshan/pkg/ytvideodata"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

type AppConfig struct {
	Secret            string        `json:"-"`
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	LogLevel          string        `json:"log_level"`
	RedisPort         int           `json:"redis_port"`
	RedisHost         string        `json:"redis_host"`
	RedisPassword     string        `json:"-"`
	RedisDB           int           `json:"redis_db"`
	ContentAPIURL     string        `json:"content_api_url"`
	DefaultVideoID    string        `json:"default_video_id"`
	SessionExp        time.Duration `json:"session_exp"`
	CapabilityTimeout time.Duration `json:"capability_timeout"`
	EmitRetries       int           `json:"emit_retries"`
	VideoMetadata     bool          `json:"video_metadata"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return errors.New("secret must be set")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port %d is out of range", cfg.Port)
	}
	if cfg.RedisDB < 0 {
		return fmt.Errorf("redis db %d must not be negative", cfg.RedisDB)
	}
	if cfg.ContentAPIURL == "" {
		return errors.New("content api url must be set")
	}
	if !ytid.IsValid(cfg.DefaultVideoID) {
		return fmt.Errorf("default video id %q is not a valid video id", cfg.DefaultVideoID)
	}
	if cfg.SessionExp <= 0 {
		return errors.New("session expiration must be greater than 0")
	}
	if cfg.CapabilityTimeout <= 0 {
		return errors.New("capability timeout must be greater than 0")
	}
	if cfg.EmitRetries < 1 {
		return errors.New("emit retries must be greater than 0")
	}
	return nil
}

type server struct {
	handler  http.Handler
	shutdown func(context.Context)
}

func newServer(cfg *AppConfig, rc *redis.Client, clock clockwork.Clock, logger *slog.Logger) *server {
	var videoData *ytvideodata.Client
	if cfg.VideoMetadata {
		videoData = ytvideodata.NewClient()
	}

	params := &darshan.Params{
		DarshanRepo:       darshanRedis.NewRepo(rc),
		LiveRepo:          inmemory.NewRepo[*darshan.LiveSession](),
		Content:           content.NewClient(cfg.ContentAPIURL, nil, logger),
		Clock:             clock,
		Logger:            logger,
		Secret:            cfg.Secret,
		DefaultVideoID:    cfg.DefaultVideoID,
		SessionExp:        cfg.SessionExp,
		CapabilityTimeout: cfg.CapabilityTimeout,
		EmitRetries:       cfg.EmitRetries,
	}
	// a nil *ytvideodata.Client must not end up in the interface
	if videoData != nil {
		params.VideoData = videoData
	}

	darshanService := darshan.NewService(params)
	controller := controller.NewController(darshanService, logger)

	return &server{
		handler:  controller.GetMux(),
		shutdown: darshanService.Shutdown,
	}
}

func newLogger(level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	srv := newServer(cfg, rc, clockwork.NewRealClock(), logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: srv.handler}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		// hijacked websocket connections are not tracked by Shutdown
		srv.shutdown(shutdownCtx)

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
