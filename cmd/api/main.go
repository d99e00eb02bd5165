package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/app/apiapp"
	"github.com/babymaxMAX/lsj-love/internal/config"
	"github.com/babymaxMAX/lsj-love/internal/infra/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, "api")
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("api server failed", zap.Error(err))
	}
}

// run serves until ctx is cancelled or the listener fails, then drains
// in-flight requests and pending notifications.
func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	app, err := apiapp.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown api app", zap.Error(err))
	}
	return runErr
}
