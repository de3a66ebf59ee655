package app

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/arnavshah/rota-scheduler/pkg/auth"
	"github.com/arnavshah/rota-scheduler/pkg/cache"
	"github.com/arnavshah/rota-scheduler/pkg/config"
	"github.com/arnavshah/rota-scheduler/pkg/database"
	"github.com/arnavshah/rota-scheduler/pkg/handlers"
)

// NewCache returns a redis-backed cache when REDIS_ADDR is configured and
// reachable, and an in-memory one otherwise.
func NewCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache(cfg.CacheTTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis at %s unavailable, using in-memory cache: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return cache.NewMemoryCache(cfg.CacheTTL)
	}
	return cache.NewRedisCache(client, cfg.CacheTTL)
}

// NewHandler opens the database, seeds it and wires every dependency
func NewHandler(ctx context.Context, cfg *config.Config) (*handlers.Handler, error) {
	db, err := database.Open(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		return nil, err
	}

	a := auth.New(cfg.JWTSecret, cfg.APIMasterSecret)
	if err := a.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}

	h := handlers.New(db, a, NewCache(ctx, cfg))
	if err := h.Store.Seed(ctx, cfg.SeedDemoRoster); err != nil {
		return nil, fmt.Errorf("seed roster: %w", err)
	}
	return h, nil
}
