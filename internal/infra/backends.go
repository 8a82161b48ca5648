package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/rechargehub/rechargehub/internal/config"
)

// Backends holds the connections the service runs on. A nil field means the
// corresponding URL was not configured.
type Backends struct {
	DB    *pgxpool.Pool
	Cache *redis.Client
	NATS  *nats.Conn
}

// Open connects every configured backend and returns a cleanup function that
// closes them in reverse order. On error, anything already opened is closed.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Backends, func(), error) {
	b := &Backends{}
	var cleanupFns []func()
	fail := func(err error) (*Backends, func(), error) {
		runCleanup(cleanupFns)()
		return nil, nil, err
	}

	if cfg.DatabaseURL != "" {
		db, err := connectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(err)
		}
		b.DB = db
		cleanupFns = append(cleanupFns, db.Close)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
	}

	if cfg.RedisURL != "" {
		rdb, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fail(err)
		}
		b.Cache = rdb
		cleanupFns = append(cleanupFns, func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("close redis", slog.Any("error", err))
			}
		})
	} else {
		logger.Warn("REDIS_URL not set, idempotency, login limits and plan caching disabled")
	}

	nc, err := NewNATSConn(cfg.NATSURL, cfg.AppName)
	if err != nil {
		return fail(err)
	}
	if nc != nil {
		b.NATS = nc
		cleanupFns = append(cleanupFns, nc.Close)
	}

	return b, runCleanup(cleanupFns), nil
}

func connectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func runCleanup(fns []func()) func() {
	return func() {
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}
