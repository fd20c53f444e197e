package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"talent-match/internal/app"
	"talent-match/internal/config"
	"talent-match/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format).With(zap.String("app", cfg.App.AppName))
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootstrap, cleanup, err := app.Bootstrap(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to bootstrap app", zap.Error(err))
	}

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		log.Fatal("invalid HTTP port", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		errCh <- bootstrap.Fiber.Listen(addr)
	}()

	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", zap.Error(err))
			exitCode = 1
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := bootstrap.Fiber.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	if err := cleanup(shutdownCtx); err != nil {
		log.Error("cleanup error", zap.Error(err))
	}
	if exitCode != 0 {
		_ = log.Sync()
		os.Exit(exitCode)
	}
}
