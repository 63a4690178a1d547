package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"siteforge/api/internal/cache"
	"siteforge/api/internal/config"
	"siteforge/api/internal/database"
	"siteforge/api/internal/generator"
	"siteforge/api/internal/handlers"
	"siteforge/api/internal/jobs"
	"siteforge/api/internal/log"
	"siteforge/api/internal/repository"
	"siteforge/api/internal/server"
	"siteforge/api/internal/service"
	"siteforge/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if err := database.Migrate(ctx, dbPool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	snapshots, err := storage.NewSnapshotStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init snapshot store")
	}
	if err := snapshots.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	userRepo := repository.NewUserRepository(dbPool)
	sessionRepo := repository.NewSessionRepository(dbPool)
	orgRepo := repository.NewOrganizationRepository(dbPool)
	siteRepo := repository.NewSiteRepository(dbPool)
	views := cache.NewViewCounter(redisClient)

	authService := service.NewAuthService(userRepo, sessionRepo, cfg, logger)
	siteService := service.NewSiteService(
		siteRepo, orgRepo, generator.NewClient(cfg.Generator), views, snapshots, cfg, logger)

	handlerSet := handlers.NewHandlerSet(logger, dbPool, redisClient, authService, siteService, cfg)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(views, siteRepo, sessionRepo, siteService, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
