package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"busline/internal/notifications"
	"busline/internal/shared/config"
	"busline/pkg/logger"

	"github.com/joho/godotenv"
)

// worker consumes booking events and emails confirmations and cancellations
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	appLogger := logger.NewWithOptions(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	logger.SetDefault(appLogger)

	worker, err := notifications.NewWorker(cfg)
	if err != nil {
		appLogger.Error("Failed to initialize notification worker", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := worker.Start(ctx); err != nil {
		appLogger.Error("Failed to start notification worker", slog.Any("error", err))
		os.Exit(1)
	}
	appLogger.Info("Notification worker running",
		slog.Any("brokers", cfg.Kafka.Brokers),
		slog.String("topic", cfg.Kafka.BookingTopic),
		slog.String("group", cfg.Kafka.ConsumerGroup),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Stopping notification worker...")
	if err := worker.Stop(); err != nil {
		appLogger.Error("Error stopping notification worker", slog.Any("error", err))
	}
	appLogger.Info("Notification worker exited")
}
