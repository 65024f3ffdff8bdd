package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ErlanBelekov/taskapi/config"
	"github.com/ErlanBelekov/taskapi/internal/email"
	"github.com/ErlanBelekov/taskapi/internal/health"
	"github.com/ErlanBelekov/taskapi/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/taskapi/internal/log"
	"github.com/ErlanBelekov/taskapi/internal/metrics"
	"github.com/ErlanBelekov/taskapi/internal/token"
	httptransport "github.com/ErlanBelekov/taskapi/internal/transport/http"
	"github.com/ErlanBelekov/taskapi/internal/transport/http/handler"
	"github.com/ErlanBelekov/taskapi/internal/transport/http/middleware"
	"github.com/ErlanBelekov/taskapi/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := ctxlog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	codec := token.NewCodec(token.Config{
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Secret:   []byte(cfg.JWTSecret),
	})

	// Auth
	userRepo := postgres.NewUserRepository(pool)
	tokenRepo := postgres.NewMagicTokenRepository(pool)
	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	authUsecase := usecase.NewAuthUsecase(userRepo, tokenRepo, codec, sender, usecase.AuthConfig{
		MagicLinkTTL:   cfg.MagicLinkTTL(),
		AccessTokenTTL: cfg.AccessTokenTTL(),
		MagicLinkBase:  cfg.MagicLinkBase,
	})
	authHandler := handler.NewAuthHandler(authUsecase, logger)

	// Tasks
	taskRepo := postgres.NewTaskRepository(pool)
	taskUsecase := usecase.NewTaskUsecase(taskRepo)
	taskHandler := handler.NewTaskHandler(taskUsecase, logger)

	metrics.Register(prometheus.DefaultRegisterer)
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer,
		health.Dependency{Name: "postgres", Pinger: pool},
	)

	router, err := httptransport.NewRouter(httptransport.RouterDeps{
		Logger:         logger,
		AuthHandler:    authHandler,
		TaskHandler:    taskHandler,
		Verifier:       codec,
		Users:          userRepo,
		AuthRateLimit:  middleware.NewRateLimiter(cfg.AuthRatePerMinute),
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		stop()
		pool.Close()
		log.Fatalf("router: %v", err)
	}

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}
