package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte("<html>directory</html>"))
	}))
	defer srv.Close()

	body, err := newFetcher().fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if body != "<html>directory</html>" {
		t.Fatalf("body = %q", body)
	}
	if ua := got.Get("User-Agent"); !strings.Contains(ua, "Chrome/") {
		t.Fatalf("user agent = %q", ua)
	}
	if al := got.Get("Accept-Language"); !strings.HasPrefix(al, "zh-CN") {
		t.Fatalf("accept-language = %q", al)
	}
	if ae := got.Get("Accept-Encoding"); ae != "identity" {
		t.Fatalf("accept-encoding = %q", ae)
	}
}

func TestFetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := newFetcher().fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for HTTP 403")
	}
}

func TestFetch_ContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newFetcher().fetch(ctx, srv.URL); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
