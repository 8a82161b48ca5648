package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rechargehub/rechargehub/internal/httpx"
	"github.com/rechargehub/rechargehub/internal/logging"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})
	return cache, mr
}

func setupIdempotencyApp(t *testing.T) (*fiber.App, *atomic.Int32) {
	t.Helper()
	cache, _ := newRedis(t)
	calls := &atomic.Int32{}

	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(logging.Discard())})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(httpx.LocalAccountID, c.Get("X-Account"))
		return c.Next()
	})
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/resource", func(c *fiber.Ctx) error {
		n := calls.Add(1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": n})
	})
	app.Post("/failing", func(c *fiber.Ctx) error {
		calls.Add(1)
		return fiber.NewError(fiber.StatusBadRequest, "Insufficient wallet balance")
	})
	return app, calls
}

func post(t *testing.T, app *fiber.App, path, account, key string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Account", account)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestIdempotencyKeyIsOptional(t *testing.T) {
	app, calls := setupIdempotencyApp(t)
	post(t, app, "/resource", "a", "")
	post(t, app, "/resource", "a", "")
	if calls.Load() != 2 {
		t.Fatalf("requests without a key must always run, got %d calls", calls.Load())
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, calls := setupIdempotencyApp(t)

	status, first := post(t, app, "/resource", "a", "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected %d got %d", fiber.StatusCreated, status)
	}
	status, second := post(t, app, "/resource", "a", "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected cached status %d got %d", fiber.StatusCreated, status)
	}
	if first != second {
		t.Fatalf("expected cached payload %s got %s", first, second)
	}
	if calls.Load() != 1 {
		t.Fatalf("handler ran %d times", calls.Load())
	}
}

func TestIdempotencyKeysAreScopedPerAccount(t *testing.T) {
	app, calls := setupIdempotencyApp(t)
	post(t, app, "/resource", "a", "same")
	post(t, app, "/resource", "b", "same")
	if calls.Load() != 2 {
		t.Fatalf("expected separate executions per account, got %d", calls.Load())
	}
}

func TestIdempotencyDoesNotStoreErrors(t *testing.T) {
	app, calls := setupIdempotencyApp(t)
	status, _ := post(t, app, "/failing", "a", "retry-me")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	post(t, app, "/failing", "a", "retry-me")
	if calls.Load() != 2 {
		t.Fatalf("failed requests must be retryable, got %d calls", calls.Load())
	}
}
