package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/resep-nusantara/backend/internal/config"
	"github.com/onnwee/resep-nusantara/backend/internal/errorreporting"
	"github.com/onnwee/resep-nusantara/backend/internal/logger"
	"github.com/onnwee/resep-nusantara/backend/internal/secrets"
	"github.com/onnwee/resep-nusantara/backend/internal/server"
	"github.com/onnwee/resep-nusantara/backend/internal/tracing"
)

func main() {
	os.Exit(run())
}

func run() int {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	if envErr != nil {
		logger.Debug("no .env file found, using process environment")
	}
	logger.Info("starting recipe backend", secrets.LogAttrs(cfg)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := errorreporting.Init(cfg); err != nil {
		logger.Warn("error reporting disabled", "error", err)
	}
	defer errorreporting.Flush(2 * time.Second)

	shutdownTracing, err := tracing.Init(ctx, "resep-nusantara-backend", cfg)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer func() {
		if shutdownTracing == nil {
			return
		}
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize server", "error", err)
		return 1
	}
	defer srv.Close()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", "error", err)
		errorreporting.CaptureError(err)
		return 1
	}
	logger.Info("server stopped")
	return 0
}
