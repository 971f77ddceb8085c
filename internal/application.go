package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/punto-backend/internal/config"
	"github.com/rocketscienceinc/punto-backend/internal/netsync"
	"github.com/rocketscienceinc/punto-backend/internal/repository"
	"github.com/rocketscienceinc/punto-backend/internal/repository/storage"
	peer "github.com/rocketscienceinc/punto-backend/internal/transport/websocket"
	"github.com/rocketscienceinc/punto-backend/internal/usecase"
	"github.com/rocketscienceinc/punto-backend/transport/rest"
	"github.com/rocketscienceinc/punto-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis host is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions, closeStorage, err := initSessionRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeStorage()

	dialer := func(ctx context.Context, url string) (netsync.Transport, error) {
		return peer.Dial(ctx, logger, url, conf.Relay.SendBuffer)
	}

	games := usecase.NewGameManager(logger, usecase.GameManagerOptions{
		HistoryLimit:  conf.Game.HistoryLimit,
		ThinkMin:      conf.Game.AIThinkMin,
		ThinkMax:      conf.Game.AIThinkMax,
		AllowedRelays: conf.Relay.AllowedURLs,
	}, dialer)
	defer games.Close()

	relay := websocket.New(logger, sessions, conf.Relay.MaxMembers, conf.Relay.SendBuffer)
	server := rest.New(logger, conf.HTTPPort, rest.NewRouter(logger, games, relay))

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := server.Start(); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("Application context canceled, shutting down")

		relay.Shutdown()

		return server.Shutdown(context.WithoutCancel(groupCtx))
	})

	if err = group.Wait(); err != nil {
		return err
	}

	return nil
}

// initSessionRepository - picks the session store named in the config.
func initSessionRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.SessionRepository, func(), error) {
	if conf.Storage != config.StorageRedis {
		log.Info("Keeping sessions in memory")
		return repository.NewMemorySessionRepository(), func() {}, nil
	}

	if conf.Redis.Host == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStorage := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewSessionRepository(redisStorage.Connection, conf.Relay.SessionTTL), closeStorage, nil
}
