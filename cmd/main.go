package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqpadapter "promopilot/internal/adapter/amqp"
	httpadapter "promopilot/internal/adapter/http"
	"promopilot/internal/adapter/logonly"
	"promopilot/internal/adapter/memory"
	"promopilot/internal/adapter/postgres"
	"promopilot/internal/adapter/scheduler"
	"promopilot/internal/adapter/usecase"
	"promopilot/internal/config"
	"promopilot/internal/core/port"
	"promopilot/internal/db"
)

// main is the entry point of promopilot. It loads configuration,
// optionally runs database migrations, wires the selected store, the
// campaign engine, the post scheduler and the broker collaborators, then
// starts the HTTP server. On receiving a termination signal it gracefully
// shuts down the server and the scheduler.
func main() {
	exitCode := 1
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		} else {
			os.Exit(exitCode)
		}
	}()

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		// Initialise structured logger based on configuration.
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		campaignRepo port.CampaignRepository
		postRepo     port.PostRepository
	)
	switch cfg.Store {
	case config.StorePostgres:
		// Optionally run migrations if configured.
		if cfg.Psql.RunMigrations {
			if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
				logger.Error("migration error", slog.Any("error", err))
			} else {
				logger.Info("migrations applied successfully")
			}
		}
		pool, err := db.NewPostgresPool(ctx, cfg.Psql)
		if err != nil {
			logger.Error("database connection error", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		campaignRepo = postgres.NewCampaignRepository(pool)
		postRepo = postgres.NewPostRepository(pool)
	default:
		campaignRepo = memory.NewCampaignRepository()
		postRepo = memory.NewPostRepository()
	}
	logger.Info("store selected", slog.String("store", cfg.Store))

	var (
		publisher port.Publisher
		notifier  port.Notifier
	)
	if cfg.AMQP.Enabled {
		producer, err := amqpadapter.NewProducer(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logger.Error("amqp connection error", slog.Any("error", err))
			os.Exit(1)
		}
		defer producer.Close()
		publisher = producer
		notifier = producer
	} else {
		publisher = logonly.NewPublisher(logger)
		notifier = logonly.NewNotifier(logger)
	}

	clock := scheduler.SystemClock()
	engine := usecase.NewCampaignUseCase(campaignRepo, notifier, clock, logger, cfg.Lottery.DefaultWinProbability)

	sched := scheduler.New(postRepo, publisher, clock, logger, cfg.Scheduler.SweepSpec)
	if err = sched.Start(ctx); err != nil {
		logger.Error("scheduler start error", slog.Any("error", err))
		os.Exit(1)
	}
	defer sched.Stop()

	if cfg.AMQP.Enabled {
		consumer, err := amqpadapter.NewEntryConsumer(cfg.AMQP.URL, engine, logger)
		if err != nil {
			logger.Error("amqp consumer error", slog.Any("error", err))
			os.Exit(1)
		}
		defer consumer.Close()
		go func() {
			err := consumer.Consume(ctx, cfg.AMQP.Exchange, cfg.AMQP.EntryQueue, cfg.AMQP.EntryRoutingKey)
			if err != nil && ctx.Err() == nil {
				logger.Error("entry consumer stopped", slog.Any("error", err))
			}
		}()
	}

	handler := httpadapter.NewHandler(engine, sched, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	value := <-quit
	exitCode = 128 + int(value.(syscall.Signal))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
