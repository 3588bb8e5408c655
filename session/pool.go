package session

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/google/uuid"
	"github.com/use-agent/itdog/config"
	"github.com/use-agent/itdog/models"
	"github.com/ysmood/gson"
)

// createFunc builds one session for a device profile. Swappable in tests so
// pool behaviour can be exercised without a browser.
type createFunc func(device models.DeviceProfile, initScript, id string) (*Session, error)

// Pool owns the shared browser process and the registry of live sessions.
// It is safe for concurrent use.
type Pool struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      config.SessionConfig

	mu        sync.Mutex
	sessions  map[string]*Session
	pending   int // sessions being created, counted against the cap
	lastSweep time.Time

	create createFunc
}

// NewPool launches the shared headless browser and returns an empty pool.
func NewPool(browserCfg config.BrowserConfig, sessionCfg config.SessionConfig) (*Pool, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.Proxy != "" {
		l = l.Proxy(browserCfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewMeasureError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewMeasureError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	p := &Pool{
		browser:   browser,
		launcher:  l,
		cfg:       sessionCfg,
		sessions:  make(map[string]*Session),
		lastSweep: time.Now(),
	}
	p.create = p.newBrowserSession
	return p, nil
}

// Acquire opens a session for the device profile and registers it under a
// fresh ID. initScript is installed so it runs before any document script on
// every navigation. When the pool is at capacity Acquire fails immediately
// with SESSION_POOL_EXHAUSTED rather than queueing.
func (p *Pool) Acquire(device models.DeviceProfile, initScript string) (*Session, error) {
	id := uuid.NewString()

	p.mu.Lock()
	if len(p.sessions)+p.pending >= p.cfg.MaxSessions {
		live := len(p.sessions)
		p.mu.Unlock()
		return nil, models.NewMeasureError(
			models.ErrCodePoolExhausted,
			fmt.Sprintf("session pool full: %d of %d sessions live", live, p.cfg.MaxSessions),
			nil,
		)
	}
	p.pending++
	p.mu.Unlock()

	s, err := p.create(device, initScript, id)

	p.mu.Lock()
	p.pending--
	if err == nil {
		p.sessions[id] = s
	}
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	slog.Debug("session opened", "session", id, "device", device.Name)
	return s, nil
}

// Get returns the live session for id. A miss is a normal outcome: the
// sweep may have reclaimed the session in the meantime.
func (p *Pool) Get(id string) (*Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[id]
	if ok {
		s.lastUsed = time.Now()
	}
	return s, ok
}

// Release removes the session from the registry and tears it down.
// Releasing an unknown or already-released id is a no-op.
func (p *Pool) Release(id string) {
	p.mu.Lock()
	s, ok := p.sessions[id]
	if ok {
		delete(p.sessions, id)
	}
	p.mu.Unlock()

	if !ok {
		return
	}
	s.Close()
	slog.Debug("session released", "session", id)
}

// Sweep reclaims sessions idle past IdleTimeout and reports how many it
// closed. Calls arriving before SweepInterval has elapsed since the last
// sweep do nothing, so overlapping tickers cannot stampede the registry.
func (p *Pool) Sweep() int {
	now := time.Now()

	p.mu.Lock()
	if now.Sub(p.lastSweep) < p.cfg.SweepInterval {
		p.mu.Unlock()
		return 0
	}
	p.lastSweep = now

	var stale []*Session
	for id, s := range p.sessions {
		if now.Sub(s.lastUsed) > p.cfg.IdleTimeout {
			stale = append(stale, s)
			delete(p.sessions, id)
		}
	}
	p.mu.Unlock()

	for _, s := range stale {
		s.Close()
		slog.Info("idle session reclaimed",
			"session", s.ID,
			"age", now.Sub(s.CreatedAt).Round(time.Second),
		)
	}
	if len(stale) > 0 {
		// Closed pages strand large buffers until the next collection.
		runtime.GC()
	}
	return len(stale)
}

// Stats returns a snapshot of the pool's current state.
func (p *Pool) Stats() models.PoolStats {
	p.mu.Lock()
	live := len(p.sessions)
	p.mu.Unlock()

	pid := 0
	if p.launcher != nil {
		pid = p.launcher.PID()
	}
	return models.PoolStats{
		MaxSessions:  p.cfg.MaxSessions,
		LiveSessions: live,
		BrowserPID:   pid,
	}
}

// Close tears down all live sessions and kills the browser process.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (p *Pool) Close() {
	p.mu.Lock()
	live := make([]*Session, 0, len(p.sessions))
	for id, s := range p.sessions {
		live = append(live, s)
		delete(p.sessions, id)
	}
	p.mu.Unlock()

	slog.Info("session pool shutting down", "live", len(live))
	for _, s := range live {
		s.Close()
	}
	if p.browser != nil {
		p.browser.MustClose()
	}
	if p.launcher != nil {
		p.launcher.Cleanup()
	}
	slog.Info("session pool shutdown complete")
}

// newBrowserSession is the production createFunc: an incognito context with
// one prepared page. Any mid-sequence failure tears down what was already
// created and nothing is registered.
func (p *Pool) newBrowserSession(device models.DeviceProfile, initScript, id string) (*Session, error) {
	incognito, err := p.browser.Incognito()
	if err != nil {
		return nil, models.NewMeasureError(
			models.ErrCodeBrowserCrash,
			"failed to create incognito context",
			err,
		)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, models.NewMeasureError(
			models.ErrCodeBrowserCrash,
			"failed to open session page",
			err,
		)
	}

	if err := preparePage(page, device, initScript); err != nil {
		_ = page.Close()
		_ = incognito.Close()
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:        id,
		Page:      page,
		Device:    device,
		CreatedAt: now,
		browser:   incognito,
		lastUsed:  now,
	}, nil
}

// preparePage applies the device profile and installs headers and scripts.
// Everything here has to happen before the first navigation: scripts added
// via EvalOnNewDocument only run for documents loaded after installation.
func preparePage(page *rod.Page, device models.DeviceProfile, initScript string) error {
	if err := page.Emulate(device.Descriptor()); err != nil {
		return models.NewMeasureError(
			models.ErrCodeBrowserCrash,
			"failed to apply device profile",
			err,
		)
	}

	setHeaders := proto.NetworkSetExtraHTTPHeaders{Headers: baselineHeaders()}
	if err := setHeaders.Call(page); err != nil {
		return models.NewMeasureError(
			models.ErrCodeBrowserCrash,
			"failed to set session headers",
			err,
		)
	}

	// The measurement page inlines trigger scripts; CSP must not block them.
	bypassCSP := proto.PageSetBypassCSP{Enabled: true}
	if err := bypassCSP.Call(page); err != nil {
		return models.NewMeasureError(
			models.ErrCodeBrowserCrash,
			"failed to bypass CSP",
			err,
		)
	}

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		return models.NewMeasureError(
			models.ErrCodeBrowserCrash,
			"failed to install stealth script",
			err,
		)
	}
	if initScript != "" {
		if _, err := page.EvalOnNewDocument(initScript); err != nil {
			return models.NewMeasureError(
				models.ErrCodeBrowserCrash,
				"failed to install init script",
				err,
			)
		}
	}
	return nil
}

// baselineHeaders go out on every request the session makes. The target
// serves Chinese-locale pages and the result tables depend on that variant.
func baselineHeaders() proto.NetworkHeaders {
	raw := map[string]string{
		"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
		"Sec-Fetch-Dest":  "document",
		"Sec-Fetch-Mode":  "navigate",
		"Sec-Fetch-Site":  "none",
		"Sec-Fetch-User":  "?1",
	}
	m := make(proto.NetworkHeaders, len(raw))
	for k, v := range raw {
		m[k] = gson.New(v)
	}
	return m
}
