// TaskNest server entry point. Loads configuration, connects the backing
// stores, runs migrations, and serves the API until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tasknest/tasknest/internal/app"
	"github.com/tasknest/tasknest/internal/config"
	"github.com/tasknest/tasknest/internal/database"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	setupLogging(cfg)

	db, err := database.NewMariaDB(cfg.Database)
	if err != nil {
		slog.Error("connecting to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(db, "db/migrations"); err != nil {
		slog.Error("running migrations", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	application := app.New(cfg, db, redisClient)
	application.RegisterRoutes()

	// Serve in the background so the main goroutine can wait for signals.
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		slog.Info("server listening",
			slog.String("addr", addr),
			slog.String("env", cfg.Env),
		)
		if err := application.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutting down", slog.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Echo.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// setupLogging configures the process-wide slog default: human-readable text
// in development, JSON in production for log aggregation.
func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
