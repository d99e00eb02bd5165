package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/app/botapp"
	"github.com/babymaxMAX/lsj-love/internal/config"
	"github.com/babymaxMAX/lsj-love/internal/infra/logger"
)

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, "bot")
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := botapp.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("create bot app", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			log.Error("close bot app", zap.Error(err))
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal("bot app failed", zap.Error(err))
	}
}
