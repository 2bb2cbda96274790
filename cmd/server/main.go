package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/prperemyshlev/film-service/internal/app"
	"github.com/prperemyshlev/film-service/internal/config"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	infra, err := app.NewInfrastructure(context.Background(), *cfg)
	if err != nil {
		log.Fatalf("Failed to initialize infrastructure: %v", err)
	}

	logger := infra.Logger()
	logger.Info("Film service configured",
		zap.String("env", cfg.Env),
		zap.String("postgres", cfg.Postgres.Host+":"+cfg.Postgres.Port+"/"+cfg.Postgres.DBName),
		zap.Bool("auto_migrate", cfg.Postgres.AutoMigrate),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Duration("cache_ttl", cfg.Cache.TTL.Duration),
		zap.Int("rate_limit_requests", cfg.Security.RateLimitRequests),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.NewApp(infra, cfg).Run(ctx); err != nil {
		logger.Fatal("Film service failed", zap.Error(err))
	}
}
