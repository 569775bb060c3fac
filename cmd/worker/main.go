package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/cache"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/config"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/database"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/log"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/mailer"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/queue"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer redisClient.Close()

	sessions := repository.NewSessionRepository(dbPool)
	processor := mailer.NewProcessor(mailer.LogSender{Log: logger}, sessions, cfg.Mail, logger)

	consumer := queue.NewConsumer(
		redisClient,
		cfg.Queue.Stream,
		cfg.Queue.Group,
		cfg.Queue.Consumer,
		cfg.Queue.ClaimInterval,
		logger,
		processor,
	)

	if err := consumer.EnsureGroup(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ensure consumer group failed")
	}

	logger.Info().Str("stream", cfg.Queue.Stream).Msg("worker started")

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("consumer stopped")
	}

	logger.Info().Msg("worker exited cleanly")
}
