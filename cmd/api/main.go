package main

import (
	"time"

	"pollbox/config"
	"pollbox/internal/handler"
	"pollbox/internal/identity"
	"pollbox/internal/ratelimit"
	"pollbox/internal/redis"
	"pollbox/internal/repository"
	"pollbox/internal/server"
	"pollbox/internal/services"
	"pollbox/pkg/database"
	"pollbox/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	log := logger.New(mode)
	logger.SetGlobalLogger(log)

	database.Connect(cfg)
	defer database.Close()

	redisClient := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	var cache *redis.CacheStore
	if err := redis.Ping(redisClient); err != nil {
		log.Errorf("Redis unavailable, poll list caching disabled: %s", err)
	} else {
		cache = redis.NewCacheStore(redisClient, redis.CacheConfig{
			PollListTTL: time.Duration(cfg.PollListCacheSec) * time.Second,
		})
	}

	// One limiter per process, shared by every action that consumes it.
	limiter := ratelimit.New(ratelimit.Config{
		AuthLimit:    cfg.AuthLimit,
		AuthWindow:   time.Duration(cfg.AuthWindowSec) * time.Second,
		CreateLimit:  cfg.CreateLimit,
		CreateWindow: time.Duration(cfg.CreateWindowSec) * time.Second,
		VoteLimit:    cfg.VoteLimit,
		VoteWindow:   time.Duration(cfg.VoteWindowSec) * time.Second,
	})

	provider := identity.NewClient(cfg.IdentityURL, cfg.IdentityAPIKey)

	pollRepo := repository.NewPollRepository(database.DB)
	voteRepo := repository.NewVoteRepository(database.DB)

	authService := services.NewAuthService(provider, limiter, cfg.IdentityJWTSecret)
	pollService := services.NewPollService(pollRepo, voteRepo, cache, limiter, services.VotePolicy{
		RequireAuth:   cfg.VoteRequireAuth,
		SinglePerUser: cfg.VoteSinglePerUser,
	}, log)

	srv := server.New(cfg, log)
	srv.SetupRoutes(&server.Handlers{
		Auth:  handler.NewAuthHandler(authService),
		Polls: handler.NewPollHandler(pollService),
	}, authService)

	if err := srv.Start(); err != nil {
		log.Errorf("server exited with error: %s", err)
	}
}
