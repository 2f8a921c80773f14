package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"crop-advisor/cache"
	"crop-advisor/confs"
	"crop-advisor/db"
	"crop-advisor/llm"
	"crop-advisor/logging"
	"crop-advisor/metrics"
	"crop-advisor/repositories"
	"crop-advisor/security"
	"crop-advisor/server"
	"crop-advisor/services"
	"crop-advisor/usecases"
	"crop-advisor/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *confs.Config, logger *slog.Logger) error {
	if cfg.UsesDefaultSecret() {
		logger.Warn("SECRET_KEY is not set; using the insecure default")
	}

	tokens, err := security.NewTokenManager(cfg.SecretKey, cfg.JWTAlg, cfg.TokenTTL)
	if err != nil {
		return err
	}
	hasher := security.NewBcryptHasher(cfg.BcryptCost)

	// connect to database Postgres, or keep users in memory
	var (
		database db.Database
		users    repositories.UserRepository
	)
	if cfg.DB.Configured() {
		database, err = db.Connect(cfg.DB, logger)
		if err != nil {
			return err
		}
		defer database.Close()
		users = repositories.NewUserPgRepository(database)
	} else {
		logger.Warn("no database configured; users are kept in memory and lost on restart")
		users = repositories.NewUserMemRepository()
	}

	var generator llm.Generator = llm.Unconfigured{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		generator = gemini
		logger.Info("model client ready", "model", cfg.GeminiModel)
	} else {
		logger.Warn("GEMINI_API_KEY is not set; /ask will answer with an upstream error")
	}

	store := newCache(ctx, cfg, logger)
	m := metrics.New()

	srv := server.NewServer(server.Deps{
		Auth:     usecases.NewAuthUseCase(users, hasher, tokens, logger),
		Advisory: usecases.NewAdvisoryUseCase(generator, store, m, cfg.Region, logger),
		Cache:    store,
		Sessions: ws.NewManager(),
		Metrics:  m,
		DB:       database,
		Log:      logger,
	})

	// run server
	return srv.Start(ctx, "0.0.0.0:"+cfg.Port)
}

// newCache picks Redis when REDIS_ADDR is set and otherwise an in-memory
// cache swept by a janitor. A zero TTL disables caching.
func newCache(ctx context.Context, cfg *confs.Config, logger *slog.Logger) cache.Store {
	if cfg.CacheTTL == 0 {
		logger.Info("advisory cache disabled")
		return nil
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable; lookups will miss until it recovers", "addr", cfg.RedisAddr, "error", err)
		}
		logger.Info("using redis advisory cache", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		return cache.NewRedis(client, cfg.CacheTTL)
	}

	mem := cache.NewMemory(cfg.CacheTTL)
	services.NewCacheJanitor(mem, cfg.CacheSweepInterval, logger).Start(ctx)
	logger.Info("using in-memory advisory cache", "ttl", cfg.CacheTTL)
	return mem
}
