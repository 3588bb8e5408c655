package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Session   SessionConfig
	Navigator NavigatorConfig
	Poller    PollerConfig
	Drift     DriftConfig
	Nodes     NodesConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the shared Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is a proxy URL for the browser. Empty means direct, which the
	// measurement site expects: a proxied vantage would skew every result.
	Proxy string
}

// SessionConfig controls the browser session pool.
type SessionConfig struct {
	// MaxSessions caps concurrently live sessions.
	MaxSessions int // default: 8

	// IdleTimeout is how long an unused session survives before the
	// sweep reclaims it.
	IdleTimeout time.Duration // default: 30m

	// SweepInterval is the reclaim cadence; the sweep also refuses to
	// run more often than this.
	SweepInterval time.Duration // default: 5m
}

// NavigatorConfig controls retried navigation.
type NavigatorConfig struct {
	// Timeout bounds one navigation attempt end to end.
	Timeout time.Duration // default: 90s

	// MaxAttempts is the number of navigation attempts before giving up.
	MaxAttempts int // default: 3

	// RetryBackoff is the pause between attempts.
	RetryBackoff time.Duration // default: 1s

	// SettleDelay is the pause after a successful navigation before the
	// page is considered usable.
	SettleDelay time.Duration // default: 1s
}

// PollerConfig controls measurement completion polling.
type PollerConfig struct {
	// Ceiling is the hard polling budget; reaching it counts as soft
	// completion.
	Ceiling time.Duration // default: 10s

	// Interval is the progress check cadence.
	Interval time.Duration // default: 100ms
}

// DriftConfig controls result-region structure monitoring.
type DriftConfig struct {
	// Threshold is the Hamming distance above which a region's structure
	// counts as drifted from the first one seen.
	Threshold int // default: 10
}

// NodesConfig controls the vantage-point directory.
type NodesConfig struct {
	// WarmOnStart fetches both directories in the background at startup.
	WarmOnStart bool // default: true

	// RefreshCron is the schedule for directory refreshes.
	RefreshCron string // default: "@daily"

	// FetchTimeout bounds the direct HTTP fast path.
	FetchTimeout time.Duration // default: 15s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-client rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per client.
	Burst int // default: 4
}

// WebhookConfig controls measurement.completed notifications.
type WebhookConfig struct {
	// URL receives signed event deliveries. Empty disables webhooks.
	URL string

	// Secret signs the payload (HMAC-SHA256 in X-Itdog-Signature).
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("ITDOG_HOST", "0.0.0.0"),
			Port: envIntOr("ITDOG_PORT", 8080),
			Mode: envOr("ITDOG_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("ITDOG_HEADLESS", true),
			NoSandbox:  envBoolOr("ITDOG_NO_SANDBOX", false),
			BrowserBin: os.Getenv("ITDOG_BROWSER_BIN"),
			Proxy:      os.Getenv("ITDOG_PROXY"),
		},
		Session: SessionConfig{
			MaxSessions:   envIntOr("ITDOG_MAX_SESSIONS", 8),
			IdleTimeout:   envDurationOr("ITDOG_SESSION_IDLE_TIMEOUT", 30*time.Minute),
			SweepInterval: envDurationOr("ITDOG_SESSION_SWEEP_INTERVAL", 5*time.Minute),
		},
		Navigator: NavigatorConfig{
			Timeout:      envDurationOr("ITDOG_NAV_TIMEOUT", 90*time.Second),
			MaxAttempts:  envIntOr("ITDOG_NAV_ATTEMPTS", 3),
			RetryBackoff: envDurationOr("ITDOG_NAV_BACKOFF", time.Second),
			SettleDelay:  envDurationOr("ITDOG_NAV_SETTLE", time.Second),
		},
		Poller: PollerConfig{
			Ceiling:  envDurationOr("ITDOG_POLL_CEILING", 10*time.Second),
			Interval: envDurationOr("ITDOG_POLL_INTERVAL", 100*time.Millisecond),
		},
		Drift: DriftConfig{
			Threshold: envIntOr("ITDOG_DRIFT_THRESHOLD", 10),
		},
		Nodes: NodesConfig{
			WarmOnStart:  envBoolOr("ITDOG_NODES_WARM", true),
			RefreshCron:  envOr("ITDOG_NODES_REFRESH_CRON", "@daily"),
			FetchTimeout: envDurationOr("ITDOG_NODES_FETCH_TIMEOUT", 15*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("ITDOG_AUTH_ENABLED", false),
			APIKeys: envSliceOr("ITDOG_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("ITDOG_RATE_RPS", 2.0),
			Burst:             envIntOr("ITDOG_RATE_BURST", 4),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("ITDOG_WEBHOOK_URL"),
			Secret: os.Getenv("ITDOG_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("ITDOG_LOG_LEVEL", "info"),
			Format: envOr("ITDOG_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
