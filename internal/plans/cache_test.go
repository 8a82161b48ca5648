package plans

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rechargehub/rechargehub/internal/logging"
)

type countingRepository struct {
	Repository
	lists atomic.Int32
}

func (r *countingRepository) ListActive(ctx context.Context, operator string) ([]Plan, error) {
	r.lists.Add(1)
	return r.Repository.ListActive(ctx, operator)
}

func setupCache(t *testing.T) (*CachedRepository, *countingRepository, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	inner := &countingRepository{Repository: NewMemoryRepository()}
	return NewCachedRepository(inner, client, time.Minute, logging.Discard()), inner, mr
}

func TestCachedListActive(t *testing.T) {
	cached, inner, mr := setupCache(t)
	svc := NewService(cached)
	ctx := context.Background()
	if _, err := svc.Create(ctx, CreateInput{Operator: "Airtel", Name: "Airtel ₹99", Price: decimal.NewFromInt(99), Validity: "28 days", Data: "2GB/day"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 3; i++ {
		plans, err := svc.ListActive(ctx, "Airtel")
		if err != nil || len(plans) != 1 {
			t.Fatalf("list: %v %v", plans, err)
		}
		if !plans[0].Price.Equal(decimal.NewFromInt(99)) {
			t.Fatalf("cached plan lost its price: %+v", plans[0])
		}
	}
	if n := inner.lists.Load(); n != 1 {
		t.Fatalf("expected one backing lookup, got %d", n)
	}
	if !mr.Exists(activeKey("Airtel")) {
		t.Fatalf("expected cache key to be written")
	}
	if ttl := mr.TTL(activeKey("Airtel")); ttl != time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	if _, err := svc.Create(ctx, CreateInput{Operator: "Airtel", Name: "Airtel ₹149", Price: decimal.NewFromInt(149), Validity: "28 days", Data: "2GB/day"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if mr.Exists(activeKey("Airtel")) {
		t.Fatalf("expected write to invalidate the listing")
	}
	plans, _ := svc.ListActive(ctx, "Airtel")
	if len(plans) != 2 || inner.lists.Load() != 2 {
		t.Fatalf("expected fresh listing after invalidation, got %d plans", len(plans))
	}
}

func TestCachedSkipsUnknownOperator(t *testing.T) {
	cached, inner, mr := setupCache(t)
	ctx := context.Background()
	cached.ListActive(ctx, "Nope")
	cached.ListActive(ctx, "Nope")
	if inner.lists.Load() != 2 || len(mr.Keys()) != 0 {
		t.Fatalf("unknown operators must not be cached")
	}
}

func TestCachedFallsBackWhenRedisDown(t *testing.T) {
	cached, inner, mr := setupCache(t)
	mr.Close()
	if _, err := cached.ListActive(context.Background(), ""); err != nil {
		t.Fatalf("expected fallback to repository, got %v", err)
	}
	if inner.lists.Load() != 1 {
		t.Fatalf("expected repository lookup")
	}
}
