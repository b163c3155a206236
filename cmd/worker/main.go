package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scopeforge/engine/pkg/config"
	"github.com/scopeforge/engine/pkg/database"
	"github.com/scopeforge/engine/pkg/logger"

	"github.com/scopeforge/engine/internal/ai"
	"github.com/scopeforge/engine/internal/metrics"
	"github.com/scopeforge/engine/internal/queue/tasks"
	"github.com/scopeforge/engine/internal/repository"
	"github.com/scopeforge/engine/internal/services"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	_ = rdb.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		},
		asynq.Config{
			Concurrency: cfg.AsynqConcurrency,
			Queues:      map[string]int{tasks.Queue: 1},
			Logger:      log.Sugar(),
		},
	)

	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}

	// The worker never issues tokens, so the bundle gets no issuer.
	m := metrics.New()
	gateway, err := ai.Open(ai.Options{
		Provider: cfg.AIProvider,
		Model:    cfg.AIModel,
		APIKey:   cfg.AIAPIKey,
		BaseURL:  cfg.AIBaseURL,
		Timeout:  cfg.AITimeout,
	}, cfg.AIPromptsFile, repository.NewAIRunRepository(db), m)
	if err != nil {
		log.Fatal("failed to build ai gateway", zap.Error(err))
	}
	bundle := services.NewBundle(db, gateway, nil, m)

	mux := asynq.NewServeMux()
	tasks.NewGenerationTaskHandler(tasks.Generators{
		Requirements: bundle.Requirements,
		Estimates:    bundle.Estimates,
		TechStacks:   bundle.TechStacks,
		UserFlows:    bundle.UserFlows,
		Wireframes:   bundle.Wireframes,
	}).Register(mux)

	log.Info("asynq worker starting", zap.Int("concurrency", cfg.AsynqConcurrency), zap.String("queue", tasks.Queue))
	if err := srv.Start(mux); err != nil {
		log.Fatal("asynq worker failed to start", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	// Waits for in-flight generations up to asynq's shutdown timeout.
	srv.Shutdown()
}
