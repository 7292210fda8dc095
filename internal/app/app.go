package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/couchsync/server/internal/controller"
	repoRoom "github.com/couchsync/server/internal/repository/room"
	"github.com/couchsync/server/internal/repository/room/inmemory"
	"github.com/couchsync/server/internal/repository/room/redis"
	"github.com/couchsync/server/internal/service/room"
	"github.com/couchsync/server/internal/service/signaling"
	"github.com/couchsync/server/pkg/callsclient"
	"github.com/couchsync/server/pkg/ctxlogger"
	"github.com/couchsync/server/pkg/randstr"
	"github.com/couchsync/server/pkg/redisclient"
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type AppConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	LogLevel       string        `json:"log_level"`
	MembersLimit   int           `json:"members_limit"`
	RoomCodeLength int           `json:"room_code_length"`
	OutboundBuffer int           `json:"outbound_buffer"`
	RedisHost      string        `json:"redis_host"`
	RedisPort      int           `json:"redis_port"`
	RedisPassword  string        `json:"-"`
	RoomTTL        time.Duration `json:"room_ttl"`
	CallsBaseURL   string        `json:"calls_base_url"`
	CallsAppID     string        `json:"calls_app_id"`
	CallsAppSecret string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.MembersLimit < 0 {
		return errors.New("members limit must not be negative")
	}
	if cfg.RoomCodeLength < 1 {
		return errors.New("room code length must be greater than 0")
	}
	if cfg.OutboundBuffer < 1 {
		return errors.New("outbound buffer must be greater than 0")
	}
	if cfg.RedisHost != "" && cfg.RoomTTL <= 0 {
		return errors.New("room ttl must be positive when redis is enabled")
	}
	if cfg.CallsAppID == "" {
		return errors.New("calls app id is required")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return nil
}

func newLogger(cfg *AppConfig) *slog.Logger {
	logLevel := slog.LevelInfo
	_ = logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel)))

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h)
}

type directory interface {
	SetSummary(ctx context.Context, s repoRoom.Summary) error
	RemoveSummary(ctx context.Context, roomID string) error
	GetSummary(ctx context.Context, roomID string) (repoRoom.Summary, error)
}

// newDirectory uses redis when a host is configured and the live registry otherwise.
func newDirectory(ctx context.Context, cfg *AppConfig, registry *inmemory.Registry, logger *slog.Logger) (directory, func(), error) {
	if cfg.RedisHost == "" {
		return inmemory.NewDirectory(registry), func() {}, nil
	}

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	return redis.NewRepo(rc, cfg.RoomTTL, logger), func() { rc.Close() }, nil
}

// newHandler wires the repositories, services and controller into the http handler.
// The returned cleanup releases external clients.
func newHandler(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (http.Handler, func(), error) {
	registry := inmemory.NewRegistry(randstr.New([]byte(roomCodeAlphabet)), &inmemory.Config{
		CodeLength:   cfg.RoomCodeLength,
		MembersLimit: cfg.MembersLimit,
	}, logger)

	dir, cleanup, err := newDirectory(ctx, cfg, registry, logger)
	if err != nil {
		return nil, nil, err
	}

	sfu := signaling.NewCallsSFU(callsclient.New(&callsclient.Config{
		BaseURL:   cfg.CallsBaseURL,
		AppID:     cfg.CallsAppID,
		AppSecret: cfg.CallsAppSecret,
	}))
	relay := signaling.NewRelay(sfu, registry, logger)
	roomService := room.NewService(registry, dir, &room.Config{
		OutboundBuffer: cfg.OutboundBuffer,
	}, logger)

	return controller.NewController(roomService, relay, logger).GetMux(), cleanup, nil
}

// shutdownOnSignal calls shutdown once a signal arrives or ctx ends, whichever is first.
// Run cancels ctx on every return path, so the goroutine never outlives it.
func shutdownOnSignal(ctx context.Context, sig <-chan os.Signal, shutdown func() error) <-chan error {
	done := make(chan error, 1)
	go func() {
		select {
		case <-sig:
		case <-ctx.Done():
		}
		done <- shutdown()
	}()

	return done
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg)

	handler, cleanup, err := newHandler(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: handler,
		// open websockets watch this context and close with "going away"
		BaseContext: func(net.Listener) context.Context { return serverCtx },
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sig)

	shutdownErr := shutdownOnSignal(serverCtx, sig, func() error {
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		// hijacked websockets are not tracked by Shutdown
		serverStopCtx()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
