package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Black-And-White-Club/party-bot/app"
	"github.com/Black-And-White-Club/party-bot/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(cfg.Observability.Environment)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize app", slog.Any("error", err))
		os.Exit(1)
	}

	runErr := application.Run(ctx)
	if runErr != nil {
		logger.Error("Message router stopped", slog.Any("error", runErr))
	}

	logger.Info("Shutting down application...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := application.Close(shutdownCtx); err != nil {
		logger.Error("Shutdown finished with errors", slog.Any("error", err))
		os.Exit(1)
	}
	if runErr != nil {
		os.Exit(1)
	}
	logger.Info("Application shut down gracefully")
}

// newLogger logs JSON outside local development.
func newLogger(environment string) *slog.Logger {
	if environment == "" || environment == "development" || environment == "local" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
