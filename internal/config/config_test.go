package config

import (
	"testing"
	"time"
)

func envFrom(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestFromEnvDevelopmentDefaults(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppName != defaultAppName || cfg.Port != defaultPort {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected development mode")
	}
	if cfg.JWTSecret == "" || cfg.RefreshSecret == "" {
		t.Fatalf("expected dev secrets to be filled in")
	}
	if cfg.AccessTokenTTL != defaultAccessTokenTTL {
		t.Fatalf("expected access ttl %s, got %s", defaultAccessTokenTTL, cfg.AccessTokenTTL)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
}

func TestFromEnvParsesDurations(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"SHUTDOWN_TIMEOUT": "30",
		"IDEMPOTENCY_TTL":  "90m",
		"PORT":             ":9090",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ShutdownPeriod != 30*time.Second {
		t.Fatalf("expected 30s, got %s", cfg.ShutdownPeriod)
	}
	if cfg.IdempotencyTTL != 90*time.Minute {
		t.Fatalf("expected 90m, got %s", cfg.IdempotencyTTL)
	}
	if cfg.Address() != ":9090" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
}

func TestFromEnvRejectsBadDuration(t *testing.T) {
	if _, err := FromEnv(envFrom(map[string]string{"PLAN_CACHE_TTL": "soon"})); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestFromEnvProductionRequiresBackends(t *testing.T) {
	_, err := FromEnv(envFrom(map[string]string{"APP_ENV": "production"}))
	if err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}

	cfg, err := FromEnv(envFrom(map[string]string{
		"APP_ENV":        "production",
		"DATABASE_URL":   "postgres://localhost/recharge",
		"REDIS_URL":      "redis://localhost:6379/0",
		"JWT_SECRET":     "a",
		"REFRESH_SECRET": "b",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.IsDev() {
		t.Fatal("production must not be treated as dev")
	}
}
