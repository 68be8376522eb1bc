package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/profitviews/crypto-stock/internal/app"
)

func main() {
	// Venue credentials may live in a local .env instead of the shell.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	bootstrap.StartStreams(ctx)
	defer bootstrap.Shutdown()

	slog.InfoContext(ctx, "✨ crypto-stock core operational. Press Ctrl+C to exit.")

	<-ctx.Done()
	slog.Info("👋 Shutting down gracefully...")
}
