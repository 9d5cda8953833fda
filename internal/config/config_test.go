package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BOOKING_INTERVAL", "")
	t.Setenv("SWEEP_INTERVAL", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BookingInterval != 10*time.Second {
		t.Fatalf("expected default booking interval, got %s", cfg.BookingInterval)
	}
	if cfg.SweepInterval != time.Hour {
		t.Fatalf("expected default sweep interval, got %s", cfg.SweepInterval)
	}
	if cfg.GorzdravBaseURL != "https://gorzdrav.spb.ru" {
		t.Fatalf("expected default gorzdrav base url, got %s", cfg.GorzdravBaseURL)
	}
	if !cfg.DirectoryCacheEnable {
		t.Fatal("expected directory cache enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("BOOKING_INTERVAL", "30s")
	t.Setenv("SWEEP_INTERVAL", "2h")
	t.Setenv("GORZDRAV_TIMEOUT", "15s")
	t.Setenv("DIRECTORY_CACHE_ENABLE", "false")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected database url override, got %s", cfg.DatabaseURL)
	}
	if cfg.BookingInterval != 30*time.Second {
		t.Fatalf("expected booking interval override, got %s", cfg.BookingInterval)
	}
	if cfg.SweepInterval != 2*time.Hour {
		t.Fatalf("expected sweep interval override, got %s", cfg.SweepInterval)
	}
	if cfg.GorzdravTimeout != 15*time.Second {
		t.Fatalf("expected gorzdrav timeout override, got %s", cfg.GorzdravTimeout)
	}
	if cfg.DirectoryCacheEnable {
		t.Fatal("expected directory cache disabled")
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("BOOKING_INTERVAL", "not-a-duration")
	cfg := Load()
	if cfg.BookingInterval != 10*time.Second {
		t.Fatalf("expected fallback to default, got %s", cfg.BookingInterval)
	}
}
