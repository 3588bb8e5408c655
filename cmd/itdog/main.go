package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/use-agent/itdog/api"
	"github.com/use-agent/itdog/config"
	"github.com/use-agent/itdog/nodecache"
	"github.com/use-agent/itdog/probe"
	"github.com/use-agent/itdog/session"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("itdog starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxSessions", cfg.Session.MaxSessions,
	)

	// ── 3. Launch browser and session pool ──────────────────────────
	pool, err := session.NewPool(cfg.Browser, cfg.Session)
	if err != nil {
		slog.Error("failed to launch browser", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// ── 4. Prober and vantage directory ─────────────────────────────
	nodes := nodecache.New()
	pr := probe.NewProber(cfg, pool, nodes)

	if cfg.Nodes.WarmOnStart {
		warmCtx, warmCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		go func() {
			defer warmCancel()
			pr.WarmNodes(warmCtx)
		}()
	}

	// ── 5. Background schedules ─────────────────────────────────────
	sched := cron.New()
	if _, err := sched.AddFunc("@every "+cfg.Session.SweepInterval.String(), func() {
		if n := pool.Sweep(); n > 0 {
			slog.Info("sweep reclaimed idle sessions", "count", n)
		}
	}); err != nil {
		slog.Error("invalid sweep schedule", "error", err)
		os.Exit(1)
	}
	if _, err := sched.AddFunc(cfg.Nodes.RefreshCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		pr.RefreshNodes(ctx)
	}); err != nil {
		slog.Error("invalid node refresh schedule", "cron", cfg.Nodes.RefreshCron, "error", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	// ── 6. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(pr, pool, cfg, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// pool.Close() runs via the defer above and kills Chrome.
	slog.Info("itdog stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
