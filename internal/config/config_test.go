package config

import (
	"testing"
	"time"
)

func baseConfig() *Config {
	return &Config{
		Port:            "8000",
		Env:             "development",
		DatabaseURL:     "postgres://localhost/caretrack",
		JWTSecret:       "dev-only-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 168 * time.Hour,
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/caretrack_test")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9000")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/caretrack_test" {
		t.Fatalf("unexpected database url %q", cfg.DatabaseURL)
	}
	if cfg.Port != "9000" {
		t.Fatalf("unexpected port %q", cfg.Port)
	}
	if cfg.AccessTokenTTL != 5*time.Minute {
		t.Fatalf("unexpected access ttl %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 168*time.Hour {
		t.Fatalf("expected default refresh ttl, got %v", cfg.RefreshTokenTTL)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestValidateRequiresSecret(t *testing.T) {
	cfg := baseConfig()
	cfg.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestValidateProductionSecret(t *testing.T) {
	cfg := baseConfig()
	cfg.Env = "production"

	cfg.JWTSecret = "changeme"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected placeholder secret to be rejected in production")
	}

	cfg.JWTSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected short secret to be rejected in production")
	}

	cfg.JWTSecret = "a-sufficiently-long-production-secret-value"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected long secret to pass: %v", err)
	}
}

func TestValidateTTLs(t *testing.T) {
	cfg := baseConfig()
	cfg.AccessTokenTTL = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive access ttl")
	}

	cfg = baseConfig()
	cfg.RefreshTokenTTL = cfg.AccessTokenTTL
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when refresh ttl does not exceed access ttl")
	}
}

func TestEnvHelpers(t *testing.T) {
	cfg := baseConfig()
	if !cfg.IsDev() || cfg.IsProduction() {
		t.Fatal("development config misclassified")
	}
	cfg.Env = "production"
	if cfg.IsDev() || !cfg.IsProduction() {
		t.Fatal("production config misclassified")
	}
}
