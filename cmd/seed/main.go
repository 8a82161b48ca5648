package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rechargehub/rechargehub/internal/account"
	"github.com/rechargehub/rechargehub/internal/config"
	"github.com/rechargehub/rechargehub/internal/infra"
	"github.com/rechargehub/rechargehub/internal/ledger"
	"github.com/rechargehub/rechargehub/internal/logging"
	"github.com/rechargehub/rechargehub/internal/plans"
	"github.com/rechargehub/rechargehub/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, "text")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	cfg.RedisURL, cfg.NATSURL = "", ""
	backends, cleanup, err := infra.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()
	db := backends.DB

	accounts := account.NewService(account.NewPostgresRepository(db), ledger.NewPostgresLedger(db))
	catalog := plans.NewService(plans.NewPostgresRepository(db))

	if err := seed.Run(ctx, accounts, catalog, seed.DefaultAdmin(), logger); err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed finished")
}
