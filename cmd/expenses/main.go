package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/auth"
	"expenses/internal/config"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
	"expenses/internal/notify"
	"expenses/internal/rates"
	"expenses/internal/services"
	"expenses/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	authMgr := auth.NewManager(cfg.JWTSecret, cfg.BcryptCost, cfg.TokenTTL)

	// AMQP is optional: without it entries stay local and alerts only reach
	// the log sink.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPAlertQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	var sink notify.Sink = notify.NewSlogSink(logger)
	if amqpClient != nil {
		sink = notify.Multi{notify.NewSlogSink(logger), notify.NewAMQPSink(amqpClient)}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fetch rates once at startup; a failure is not fatal, conversion
	// passes amounts through until the refresher succeeds.
	ratesClient := rates.NewClient(cfg.RatesURL)
	snapshot := rates.NewSnapshot()
	if table, err := ratesClient.Fetch(ctx); err != nil {
		logger.Warn("Initial rates fetch failed", log.FieldError, err)
	} else {
		snapshot.Set(table)
		logger.Info("Initial rates loaded", "currencies", len(table))
	}

	entrySvc := services.NewEntryService(repo, amqpClient)
	srv := apphttp.NewServer(":"+cfg.Port, entrySvc, repo, authMgr, snapshot, sink, logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		refresher := rates.NewRefresher(ratesClient, snapshot, cfg.RatesRefreshInterval, logger)
		return refresher.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("Starting expenses server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-gctx.Done():
			return gctx.Err()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
