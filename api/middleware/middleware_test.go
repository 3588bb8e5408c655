package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/itdog/config"
)

func protectedEngine(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestAuth_MissingKey(t *testing.T) {
	r := protectedEngine(Auth([]string{"k1"}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "missing API key") {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestAuth_InvalidKey(t *testing.T) {
	r := protectedEngine(Auth([]string{"k1"}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAuth_AcceptsBothHeaderStyles(t *testing.T) {
	r := protectedEngine(Auth([]string{"k1"}))

	for name, set := range map[string]func(*http.Request){
		"x-api-key": func(req *http.Request) { req.Header.Set("X-API-Key", "k1") },
		"bearer":    func(req *http.Request) { req.Header.Set("Authorization", "Bearer k1") },
	} {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		set(req)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status=%d body=%s", name, rec.Code, rec.Body.String())
		}
	}
}

func TestAuth_OpenAccessWithoutKeys(t *testing.T) {
	r := protectedEngine(Auth(nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRateLimit_RejectsBeyondBurst(t *testing.T) {
	r := protectedEngine(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.1, Burst: 1}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first: status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second: status=%d body=%s", rec.Code, rec.Body.String())
	}
}
