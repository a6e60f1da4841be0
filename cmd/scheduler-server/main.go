package main

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"interview-scheduler/internal/booking"
	"interview-scheduler/internal/config"
	"interview-scheduler/internal/hub"
	"interview-scheduler/internal/seed"
	"interview-scheduler/internal/store"
	"interview-scheduler/internal/store/memory"
	"interview-scheduler/internal/store/postgres"
	"interview-scheduler/internal/transport/web"
	"interview-scheduler/migrations"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "scheduler-server"),
	)
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("dotenv load failed", slog.Any("err", err))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "scheduler-server"),
	)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage),
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("log_level", cfg.LogLevel),
		slog.Bool("test_error", cfg.TestError),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generate := func() seed.Data {
		return seed.Generate(rand.New(rand.NewSource(time.Now().UnixNano())))
	}

	var scheduleStore store.ScheduleStore
	switch cfg.Storage {
	case config.StorageMemory:
		scheduleStore = memory.New(generate, cfg.TestError)
		log.Info("using in-memory store")

	case config.StoragePostgres:
		startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		log.Info("connecting to database", databaseLogArgs(cfg)...)
		db, err := postgres.Open(startupCtx, cfg.DatabaseURL(), postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg)...)
			log.Error("database connection failed", args...)
			os.Exit(1)
		}
		defer func() {
			if err := postgres.Close(db); err != nil {
				log.Warn("database close failed", slog.Any("err", err))
			}
		}()

		if err := migrations.Up(startupCtx, db.DB); err != nil {
			log.Error("migrations failed", slog.Any("err", err))
			os.Exit(1)
		}

		repo := postgres.NewScheduleRepo(db, generate, cfg.TestError)
		if err := repo.EnsureSeeded(startupCtx); err != nil {
			log.Error("seeding failed", slog.Any("err", err))
			os.Exit(1)
		}
		scheduleStore = repo
	}

	liveHub := hub.New(log)

	svc := booking.NewService(scheduleStore, liveHub, booking.Config{
		StoreTimeout: cfg.StoreTimeout,
		AllowReset:   !cfg.IsProduction(),
	})

	handlers := web.NewScheduleHandlers(svc, validator.New(), log)
	socket := web.NewSocketHandler(liveHub, log)
	server := web.NewServer(cfg.HTTPAddr, handlers, socket, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, server, liveHub, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func shutdown(log *slog.Logger, server *web.Server, liveHub *hub.Hub, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warn("http shutdown failed", slog.Any("err", err))
	}
	liveHub.CloseAll()
	log.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(cfg config.Config) []any {
	return []any{
		slog.String("db_host", cfg.DBHost),
		slog.Int("db_port", cfg.DBPort),
		slog.String("db_name", cfg.DatabaseName()),
	}
}
