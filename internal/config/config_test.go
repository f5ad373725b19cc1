package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "DATABASE_URL", "REDIS_ADDR", "JWT_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected HTTPAddr %q", cfg.HTTPAddr)
	}
	if cfg.JWTIssuer != "codeceylon-portal" {
		t.Fatalf("unexpected JWTIssuer %q", cfg.JWTIssuer)
	}
	if cfg.AccessTokenTTL != 24*time.Hour {
		t.Fatalf("unexpected AccessTokenTTL %v", cfg.AccessTokenTTL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("ACCESS_TOKEN_TTL", "45m")

	cfg := Load()
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("unexpected HTTPAddr %q", cfg.HTTPAddr)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Fatalf("unexpected JWTSecret %q", cfg.JWTSecret)
	}
	if cfg.AccessTokenTTL != 45*time.Minute {
		t.Fatalf("unexpected AccessTokenTTL %v", cfg.AccessTokenTTL)
	}
}

func TestLoadBadDurationFallsBack(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "not-a-duration")

	cfg := Load()
	if cfg.AccessTokenTTL != 24*time.Hour {
		t.Fatalf("expected fallback TTL, got %v", cfg.AccessTokenTTL)
	}
}
