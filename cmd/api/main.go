package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rechargehub/rechargehub/internal/config"
	"github.com/rechargehub/rechargehub/internal/infra"
	"github.com/rechargehub/rechargehub/internal/logging"
	"github.com/rechargehub/rechargehub/internal/metrics"
	"github.com/rechargehub/rechargehub/internal/routes"
	"github.com/rechargehub/rechargehub/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// Amounts are JSON numbers on the wire.
	decimal.MarshalJSONWithoutQuotes = true

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server exited cleanly")
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, cleanup, err := infra.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.New(routes.Deps{
		Cfg:     cfg,
		DB:      backends.DB,
		Cache:   backends.Cache,
		NATS:    backends.NATS,
		Metrics: metrics.New(),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Listen()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
