package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Fatalf("port=%d", cfg.Server.Port)
	}
	if cfg.Session.MaxSessions != 8 {
		t.Fatalf("max sessions=%d", cfg.Session.MaxSessions)
	}
	if cfg.Session.IdleTimeout != 30*time.Minute {
		t.Fatalf("idle timeout=%v", cfg.Session.IdleTimeout)
	}
	if cfg.Navigator.MaxAttempts != 3 {
		t.Fatalf("attempts=%d", cfg.Navigator.MaxAttempts)
	}
	if cfg.Navigator.Timeout != 90*time.Second {
		t.Fatalf("nav timeout=%v", cfg.Navigator.Timeout)
	}
	if cfg.Poller.Ceiling != 10*time.Second || cfg.Poller.Interval != 100*time.Millisecond {
		t.Fatalf("poller=%+v", cfg.Poller)
	}
	if !cfg.Browser.Headless {
		t.Fatal("headless default off")
	}
	if cfg.Auth.Enabled {
		t.Fatal("auth default on")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ITDOG_PORT", "9000")
	t.Setenv("ITDOG_NAV_ATTEMPTS", "5")
	t.Setenv("ITDOG_SESSION_IDLE_TIMEOUT", "10m")
	t.Setenv("ITDOG_API_KEYS", "k1, k2 ,")
	t.Setenv("ITDOG_RATE_RPS", "0.5")

	cfg := Load()

	if cfg.Server.Port != 9000 {
		t.Fatalf("port=%d", cfg.Server.Port)
	}
	if cfg.Navigator.MaxAttempts != 5 {
		t.Fatalf("attempts=%d", cfg.Navigator.MaxAttempts)
	}
	if cfg.Session.IdleTimeout != 10*time.Minute {
		t.Fatalf("idle timeout=%v", cfg.Session.IdleTimeout)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[1] != "k2" {
		t.Fatalf("keys=%v", cfg.Auth.APIKeys)
	}
	if cfg.RateLimit.RequestsPerSecond != 0.5 {
		t.Fatalf("rps=%v", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("ITDOG_PORT", "not-a-port")
	t.Setenv("ITDOG_POLL_CEILING", "soon")

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Fatalf("port=%d", cfg.Server.Port)
	}
	if cfg.Poller.Ceiling != 10*time.Second {
		t.Fatalf("ceiling=%v", cfg.Poller.Ceiling)
	}
}
