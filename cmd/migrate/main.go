package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/config"
	"github.com/babymaxMAX/lsj-love/internal/infra/logger"
	pgrepo "github.com/babymaxMAX/lsj-love/internal/repo/postgres"
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

	log, err := logger.New(cfg.Log.Level, "migrate")
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log, os.Args[1:]); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
}

// run applies the embedded postgres schema. The mongo backend creates its
// indexes at startup and has nothing to migrate.
func run(cfg config.Config, log *zap.Logger, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: migrate <up|down|version> [N]")
	}

	m, err := pgrepo.NewMigrator(cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			log.Warn("migrate source close error", zap.Error(srcErr))
		}
		if dbErr != nil {
			log.Warn("migrate database close error", zap.Error(dbErr))
		}
	}()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up failed: %w", err)
		}
		log.Info("migrations applied")

	case "down":
		steps := 1
		if len(args) > 1 {
			steps, err = strconv.Atoi(args[1])
			if err != nil || steps <= 0 {
				return fmt.Errorf("invalid step count %q", args[1])
			}
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		log.Info("migrations rolled back", zap.Int("steps", steps))

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				log.Info("no migrations applied")
				return nil
			}
			return fmt.Errorf("read version: %w", err)
		}
		log.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))

	default:
		return fmt.Errorf("unknown command: %s (use up, down, or version)", args[0])
	}

	return nil
}
