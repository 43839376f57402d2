// Command sweep settles due developments and pays daily income, then exits.
// It is meant to run from cron; every step is safe to repeat.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nations-server/internal/server"
	"nations-server/internal/shared/config"
	"nations-server/internal/shared/database"
	"nations-server/internal/shared/logger"
)

func main() {
	if err := config.Init(); err != nil {
		log.Fatal("Failed to initialize config:", err)
	}

	cfg := config.GlobalConfig
	slog.SetDefault(logger.New(os.Stderr, cfg.Logging))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Sweep failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := slog.With("component", "sweep")

	db, err := database.Connect()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		return err
	}

	services, err := server.NewServices(db, cfg, nil, slog.Default())
	if err != nil {
		return err
	}

	now := time.Now()

	completed, err := services.Developments.Sweep(ctx, now)
	if err != nil {
		return err
	}
	for _, d := range completed {
		services.Achievements.Unlock(ctx, d.NationID)
	}

	paid, err := services.Nations.DailyUpdate(ctx, now)
	if err != nil {
		return err
	}

	logger.Info("Sweep finished", "developments_completed", len(completed), "nations_paid", paid)
	return nil
}
