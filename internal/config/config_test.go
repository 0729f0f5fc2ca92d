package config_test

import (
	"testing"

	"github.com/nikshvein/personhub/internal/config"
)

func TestLoadDefaultsPortWhenUnset(t *testing.T) {
	t.Setenv("port6", "")
	cfg := config.Load()
	if cfg.Port != config.DefaultPort {
		t.Fatalf("expected default port %d, got %d", config.DefaultPort, cfg.Port)
	}
}

func TestLoadReadsPortFromEnv(t *testing.T) {
	t.Setenv("port6", "9090")
	cfg := config.Load()
	if cfg.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Port)
	}
}

func TestLoadFallsBackOnGarbagePort(t *testing.T) {
	t.Setenv("port6", "not-a-number")
	cfg := config.Load()
	if cfg.Port != config.DefaultPort {
		t.Fatalf("expected default port on garbage input, got %d", cfg.Port)
	}
}

func TestLoadReadsDBSettings(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_NAME", "personhub")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")

	cfg := config.Load()
	if cfg.DBHost != "db.internal" || cfg.DBPort != "5432" || cfg.DBName != "personhub" || cfg.DBUser != "app" || cfg.DBPassword != "secret" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
