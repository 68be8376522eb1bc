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

// The server binary carries the same core as cmd/app plus the HTTP trigger
// facade, so synthetic orders can be fired from curl or a dashboard.
func main() {
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

	srv := app.NewServer(bootstrap)
	addr := bootstrap.Config.HTTP.Addr

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(addr) }()
	slog.InfoContext(ctx, "✨ HTTP facade listening", "addr", addr)

	select {
	case err := <-errCh:
		slog.Error("HTTP server stopped", slog.Any("error", err))
		os.Exit(1)
	case <-ctx.Done():
		slog.Info("👋 Shutting down gracefully...")
	}
}
