package plans

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const activeCachePrefix = "plans:v1:active:"

// CachedRepository serves ListActive from Redis and drops the cached
// listings on every write. Redis failures fall through to the wrapped
// repository.
type CachedRepository struct {
	Repository
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRepository wraps repo with a Redis listing cache.
func NewCachedRepository(repo Repository, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository{Repository: repo, cache: cache, ttl: ttl, logger: logger}
}

func activeKey(operator string) string {
	if operator == "" {
		return activeCachePrefix + "all"
	}
	return activeCachePrefix + operator
}

func (r *CachedRepository) ListActive(ctx context.Context, operator string) ([]Plan, error) {
	// Only known operators are cached so arbitrary query values cannot
	// grow the keyspace.
	if operator != "" && !ValidOperator(operator) {
		return r.Repository.ListActive(ctx, operator)
	}
	key := activeKey(operator)

	cached, err := r.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []Plan
		if err := json.Unmarshal(cached, &out); err == nil {
			return out, nil
		}
		r.logger.Warn("discarding undecodable plan cache entry", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("plan cache lookup failed", slog.String("key", key), slog.Any("error", err))
	}

	out, err := r.Repository.ListActive(ctx, operator)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(out); err == nil {
		if err := r.cache.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("plan cache store failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return out, nil
}

func (r *CachedRepository) Create(ctx context.Context, p Plan) error {
	if err := r.Repository.Create(ctx, p); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedRepository) Update(ctx context.Context, p Plan) error {
	if err := r.Repository.Update(ctx, p); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedRepository) Delete(ctx context.Context, id string) error {
	if err := r.Repository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedRepository) invalidate(ctx context.Context) {
	keys := []string{activeKey("")}
	for _, op := range Operators {
		keys = append(keys, activeKey(op))
	}
	if err := r.cache.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("plan cache invalidation failed", slog.Any("error", err))
	}
}
