package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"budgeter/internal/amqp"
	"budgeter/internal/config"
	applog "budgeter/internal/log"
	"budgeter/internal/services"
	"budgeter/internal/sink"
	"budgeter/internal/sink/remote"
	"budgeter/internal/sink/sheets"
	"budgeter/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting budgeter-worker")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", applog.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.SyncBackend == "none" {
		logger.Error("No sync backend configured - nothing for the worker to do")
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open ledger store", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	s := buildSink(cfg, logger)
	engine := services.NewSyncEngine(store, s, cfg.SyncTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processor := services.NewSyncProcessor(engine, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
	})
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", applog.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	// AMQP fast path: push a transaction as soon as the server announces it.
	// The poll loop above covers anything a lost message misses.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeMessages(gctx, func(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
				return engine.PushByID(ctx, msg.ID)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		logger.Info("Consuming sync notifications", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - relying on the poll loop only")
	}

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker error", applog.FieldError, err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Warn("Sync processor did not stop cleanly", applog.FieldError, err)
	}

	logger.Info("Worker shutdown complete")
}

// buildSink selects the configured sync backend. Validation already ensured
// the backend is remote or sheets.
func buildSink(cfg *config.Config, logger *applog.Logger) sink.Sink {
	switch cfg.SyncBackend {
	case "remote":
		client, err := remote.New(cfg.SyncURL)
		if err != nil {
			logger.Error("Failed to initialize remote sink", applog.FieldError, err)
			os.Exit(1)
		}
		return client
	case "sheets":
		client, err := sheets.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets sink", applog.FieldError, err)
			os.Exit(1)
		}
		return client
	}
	return nil
}
