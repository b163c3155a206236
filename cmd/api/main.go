package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/scopeforge/engine/internal/ai"
	"github.com/scopeforge/engine/internal/api"
	"github.com/scopeforge/engine/internal/api/handlers"
	mw "github.com/scopeforge/engine/internal/api/middleware"
	"github.com/scopeforge/engine/internal/api/validators"
	"github.com/scopeforge/engine/internal/auth"
	"github.com/scopeforge/engine/internal/metrics"
	"github.com/scopeforge/engine/internal/queue/tasks"
	"github.com/scopeforge/engine/internal/repository"
	"github.com/scopeforge/engine/internal/services"
	"github.com/scopeforge/engine/pkg/config"
	"github.com/scopeforge/engine/pkg/database"
	"github.com/scopeforge/engine/pkg/logger"

	_ "github.com/scopeforge/engine/docs"
)

// @title           ScopeForge API
// @version         1.0
// @description     Project scoping engine: requirements, estimates, tech stacks, user flows and wireframes generated from client inputs.

// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("starting scopeforge api",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("ai_provider", cfg.AIProvider),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	log.Info("database connected")

	jwtSecret := []byte(cfg.JWTSecret)
	if len(jwtSecret) == 0 {
		log.Warn("JWT_SECRET not set, using development default")
		jwtSecret = []byte("scopeforge-development-secret")
	}
	tokens := auth.NewTokenIssuer(jwtSecret, cfg.JWTTTL)

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
	bundle := services.NewBundle(db, gateway, tokens, m)

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	queue := asynq.NewClient(redisOpt)
	defer queue.Close()
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()

	limiter := mw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Janitor(ctx, time.Minute, 10*time.Minute)

	v := validators.New()
	router := api.NewRouter(api.Dependencies{
		Tokens:      tokens,
		Metrics:     m,
		RateLimiter: limiter,
		CORSOrigins: cfg.AllowedOrigins(),
		HealthHandler: handlers.NewHealthHandler(map[string]handlers.Checker{
			"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		AuthHandler:          handlers.NewAuthHandler(bundle.Auth, v),
		OrganizationsHandler: handlers.NewOrganizationsHandler(bundle.Organizations, v),
		ProjectsHandler:      handlers.NewProjectsHandler(bundle.Projects, bundle.Inputs, bundle.Activity, v),
		ArtifactsHandler: handlers.NewArtifactsHandler(handlers.ArtifactServices{
			Projects:     bundle.Projects,
			Requirements: bundle.Requirements,
			Estimates:    bundle.Estimates,
			TechStacks:   bundle.TechStacks,
			UserFlows:    bundle.UserFlows,
			Wireframes:   bundle.Wireframes,
		}, tasks.NewEnqueuer(queue), v),
	})

	// Inline requirement generations make two sequential AI calls.
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2*cfg.AITimeout + 30*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
