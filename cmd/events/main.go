package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gatherhub/events-service/internal/auth"
	"github.com/gatherhub/events-service/internal/cache"
	"github.com/gatherhub/events-service/internal/config"
	"github.com/gatherhub/events-service/internal/handlers"
	"github.com/gatherhub/events-service/internal/repository"
	"github.com/gatherhub/events-service/internal/server"
	"github.com/gatherhub/events-service/internal/service"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg)
	defer logger.Sync()

	logger.Info("starting events service",
		zap.String("version", cfg.ServiceVersion),
		zap.String("environment", cfg.Environment),
		zap.Bool("cache_enabled", cfg.Features.EnableCache),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	client, err := repository.Connect(ctx, cfg.Mongo)
	cancel()
	if err != nil {
		logger.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Error("mongodb disconnect failed", zap.Error(err))
		}
	}()

	db := client.Database(cfg.Mongo.Database)

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	err = repository.EnsureIndexes(ctx, db)
	cancel()
	if err != nil {
		logger.Fatal("failed to create indexes", zap.Error(err))
	}

	eventStore := repository.NewMongoEventStore(db, logger)
	reviewStore := repository.NewMongoReviewStore(db, logger)
	registrationStore := repository.NewMongoRegistrationStore(db, logger)
	userStore := repository.NewMongoUserStore(db, logger)

	readiness := handlers.ReadinessChecks{
		Mongo: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
	}

	var cacheStore cache.Store = cache.NewNoopStore()
	if cfg.Features.EnableCache {
		redisStore := cache.NewRedisStore(cfg.Redis, logger)
		cacheStore = redisStore
		readiness.Cache = redisStore.Ping

		// A down Redis at boot is not fatal; reads fail open to the store.
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisStore.Ping(ctx); err != nil {
			logger.Warn("redis unreachable at startup, running degraded", zap.Error(err))
		}
		cancel()
	}

	eventService := service.NewEventService(eventStore, registrationStore, userStore, cacheStore, logger)
	reviewService := service.NewReviewService(reviewStore, eventStore, userStore, cacheStore, logger)
	statsService := service.NewStatsService(eventStore, registrationStore, userStore, cacheStore, logger)

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)

	h := handlers.NewHandlers(eventService, reviewService, statsService, tokens, cfg, logger)
	h.SetReadiness(readiness)

	srv := server.New(h, cfg, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		zcfg := zap.NewDevelopmentConfig()
		if cfg.Features.EnableDebugMode {
			zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		logger, err = zcfg.Build()
	}
	if err != nil {
		panic(err)
	}
	return logger.Named(cfg.ServiceName)
}
