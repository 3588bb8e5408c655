package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/itdog/config"
	"github.com/use-agent/itdog/nodecache"
	"github.com/use-agent/itdog/probe"
)

func testRouterConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}
}

func TestRouter_RoutesNodes(t *testing.T) {
	cfg := testRouterConfig()
	pr := probe.NewProber(cfg, nil, nodecache.New())
	r := NewRouter(pr, nil, cfg, time.Now())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nodes?type=ipv5", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouter_AuthGuardsMeasure(t *testing.T) {
	cfg := testRouterConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, APIKeys: []string{"k1"}}
	pr := probe.NewProber(cfg, nil, nodecache.New())
	r := NewRouter(pr, nil, cfg, time.Now())

	body := `{"target":"example.com","type":"smokeping"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/measure", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated: status=%d body=%s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/measure", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "k1")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("authenticated: status=%d body=%s", rec.Code, rec.Body.String())
	}
}
