package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgeter/internal/amqp"
	"budgeter/internal/config"
	apphttp "budgeter/internal/http"
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

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", applog.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open ledger store", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	// AMQP is optional. Without it the worker's poll loop still syncs.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", applog.FieldError, err)
			os.Exit(1)
		}
		logger.Info("AMQP notifications enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	ledger := services.NewLedgerService(store, amqpClient)
	defer ledger.Close()

	// The sync engine backs the on-demand /sync endpoint; the worker binary
	// owns the poll loop.
	var engine *services.SyncEngine
	if s := buildSink(cfg, logger); s != nil {
		engine = services.NewSyncEngine(store, s, cfg.SyncTimeout)
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledger, engine, cfg.Categories, cfg.Budgets, logger)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting budgeter server",
		"port", cfg.Port,
		applog.FieldSyncBackend, cfg.SyncBackend,
		"db_path", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// buildSink selects the configured sync backend, or nil for none.
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
	default:
		return nil
	}
}
