package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

const sample = `
server:
  port: "9090"
  env: development
log:
  level: debug
  format: json
redis:
  addr: localhost:6379
postgres:
  url: postgres://quiz@localhost/quiz
questions:
  ttl: 2m
auth:
  jwtSecret: from-file
  issuer: nihongo-quiz
`

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Postgres.URL != "postgres://quiz@localhost/quiz" {
		t.Fatalf("unexpected file values: %+v", cfg)
	}
	if cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("expected JWT_SECRET override, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Redis.Addr != "" {
		t.Fatalf("expected empty REDIS_ADDR to disable redis, got %q", cfg.Redis.Addr)
	}
	if !cfg.Production() {
		t.Fatalf("expected production env")
	}
	if TTLDuration(cfg.Questions.TTL, time.Minute) != 2*time.Minute {
		t.Fatalf("unexpected questions ttl")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for invalid, got %v", got)
	}
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(LogConfig{Level: "warn", Format: "json"})
	if logger.GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level, got %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected json formatter, got %T", logger.Formatter)
	}
	if NewLogger(LogConfig{Level: "nope"}).GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level fallback")
	}
}
