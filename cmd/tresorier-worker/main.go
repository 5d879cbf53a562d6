package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tresorier/internal/config"
	"tresorier/internal/events"
	"tresorier/internal/log"
	"tresorier/internal/storage"
	"tresorier/internal/worker"
)

// tresorier-worker consumes mutation events from the broker and keeps the
// denormalized member flags aligned. Unlike the API server it requires AMQP
// to be configured.
func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{Level: cfg.LogLevel, Component: log.ComponentEvents})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		return err
	}
	if cfg.AMQPURL == "" {
		err := errors.New("AMQP_URL is required for the worker")
		logger.Error("Invalid configuration", log.FieldError, err)
		return err
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, "path", cfg.SQLiteDBPath)
		return err
	}
	defer repo.Close()

	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldError, err)
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	syncWorker := worker.NewMemberSyncWorker(repo, logger)

	logger.Info("Starting tresorier-worker",
		log.FieldOperation, log.OpStartup, "queue", cfg.AMQPQueue)

	if err := syncWorker.Run(ctx, client); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker error", log.FieldError, err)
		return err
	}

	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
	return nil
}
