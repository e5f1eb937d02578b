package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/avatarctic/social-analytics-cache/go/configs"
	"github.com/avatarctic/social-analytics-cache/go/internal/application/maintenance"
	"github.com/avatarctic/social-analytics-cache/go/internal/application/services"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/ports"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/db"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/health"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/httpserver"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/platforms"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/redis"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/repositories"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger := newLogger(cfg.Log)
	logger.Info("Starting social analytics cache...")

	database, err := db.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()
	logger.Info("Connected to database successfully")

	if err := database.Migrate(cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("Failed to run migrations:", err)
	}

	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis successfully")

	// Repositories: Postgres is the source of truth, Redis fronts point lookups.
	var cacheRepo ports.SocialCacheRepository = repositories.NewSocialCacheRepository(database, logger)
	if cfg.Cache.RedisTTL > 0 {
		cacheRepo = repositories.NewCachingSocialCacheRepository(cacheRepo, redis.NewRedisCache(redisClient, cfg.Cache.RedisPrefix), cfg.Cache.RedisTTL)
	}
	fetchLogRepo := repositories.NewFetchLogRepository(database, logger)
	rateLimitRepo := repositories.NewRateLimitRedisRepository(redisClient)

	cacheService, err := services.NewSocialCacheService(cacheRepo, &services.SocialCacheConfig{
		TTL:             cfg.Cache.TTL,
		FreshnessWindow: cfg.Cache.FreshnessWindow,
	}, logger)
	if err != nil {
		logger.Fatal("Invalid cache configuration:", err)
	}
	fetchLogService := services.NewFetchLogService(fetchLogRepo, logger)

	apiLimiter := services.NewRateLimiterService(rateLimitRepo, &services.RateLimiterConfig{
		DefaultRequestsPerMinute: cfg.RateLimit.DefaultRequestsPerMinute,
		BurstMultiplier:          cfg.RateLimit.BurstMultiplier,
		Window:                   cfg.RateLimit.Window,
		KeyPrefix:                cfg.RateLimit.KeyPrefix,
	}, logger)
	upstreamLimiter := services.NewRateLimiterService(rateLimitRepo, &services.RateLimiterConfig{
		DefaultRequestsPerMinute: cfg.Upstream.RequestsPerMinute,
		Window:                   time.Minute,
		KeyPrefix:                cfg.Upstream.KeyPrefix,
	}, logger)

	statsService := services.NewPlatformStatsService(services.PlatformStatsDeps{
		Cache:     cacheService,
		Fetchers:  platforms.NewRegistryFromConfig(&cfg.Upstream, logger),
		Limiter:   upstreamLimiter,
		FetchLogs: fetchLogService,

		// room for the limiter check and the cache write around the HTTP call
		FetchTimeout: cfg.Upstream.Timeout + 5*time.Second,
	}, logger)

	cleaner := maintenance.NewCleaner(cacheService, logger,
		maintenance.WithSchedule(cfg.Cache.CleanupSchedule),
		maintenance.WithObserver(httpserver.ObserveCleanup),
	)
	if err := cleaner.Start(); err != nil {
		logger.Fatal("Failed to schedule cache cleanup:", err)
	}

	serverConfig := &httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		TLSCertFile:    cfg.Server.TLSCertFile,
		TLSKeyFile:     cfg.Server.TLSKeyFile,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Environment:    cfg.Server.Environment,
	}

	server := httpserver.NewServer(serverConfig, logger, httpserver.ServerDeps{
		SocialCacheService:   cacheService,
		PlatformStatsService: statsService,
		FetchLogService:      fetchLogService,
		RateLimiterService:   apiLimiter,
		HealthCheckers:       []ports.HealthChecker{health.NewDBHealthChecker(database), health.NewRedisHealthChecker(redisClient)},
	})

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown:", err)
	}
	select {
	case <-cleaner.Stop().Done():
	case <-ctx.Done():
		logger.Warn("Cache cleanup still running at shutdown")
	}

	logger.Info("Server exited")
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}
