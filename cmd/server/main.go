package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nations-server/internal/middleware"
	"nations-server/internal/ratelimit"
	"nations-server/internal/server"
	"nations-server/internal/shared/config"
	"nations-server/internal/shared/database"
	"nations-server/internal/shared/logger"
	"nations-server/internal/shared/redis"
)

const rateLimitCleanupInterval = 10 * time.Minute

func main() {
	if err := config.Init(); err != nil {
		log.Fatal("Failed to initialize config:", err)
	}

	logger.Init()
	cfg := config.GlobalConfig

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := slog.With("component", "main")

	db, err := database.Connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	if err := db.RunMigrations(ctx); err != nil {
		return err
	}

	redisClient, err := redis.Connect(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("Failed to close Redis client", "error", err)
			}
		}()
	}

	limiter := ratelimit.New(cfg.RateLimit, redisClient)
	if memory, ok := limiter.(*ratelimit.Memory); ok {
		go memory.RunCleanup(ctx, rateLimitCleanupInterval)
	}

	services, err := server.NewServices(db, cfg, nil, slog.Default())
	if err != nil {
		return err
	}
	logger.Info("Services initialized")

	mux := server.NewRoutes(db, services, limiter, slog.Default()).Setup()
	handler := middleware.RequestID(middleware.NewCORS(cfg.Frontend).Middleware(mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Nations server starting", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
