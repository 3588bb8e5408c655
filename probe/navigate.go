package probe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/itdog/config"
)

// WaitPolicy names the lifecycle event that counts as "arrived".
type WaitPolicy string

const (
	WaitDOMContentLoaded WaitPolicy = "domcontentloaded"
	WaitLoad             WaitPolicy = "load"
	WaitNetworkIdle      WaitPolicy = "networkidle"
)

func (w WaitPolicy) event() proto.PageLifecycleEventName {
	switch w {
	case WaitLoad:
		return proto.PageLifecycleEventNameLoad
	case WaitNetworkIdle:
		return proto.PageLifecycleEventNameNetworkIdle
	default:
		return proto.PageLifecycleEventNameDOMContentLoaded
	}
}

// allowedResources is everything a measurement page legitimately loads.
// Requests of any other type (websockets, beacons, prefetch) are aborted
// at the network layer.
var allowedResources = map[proto.NetworkResourceType]struct{}{
	proto.NetworkResourceTypeDocument:    {},
	proto.NetworkResourceTypeScript:      {},
	proto.NetworkResourceTypeStylesheet:  {},
	proto.NetworkResourceTypeImage:       {},
	proto.NetworkResourceTypeFont:        {},
	proto.NetworkResourceTypeXHR:         {},
	proto.NetworkResourceTypeFetch:       {},
	proto.NetworkResourceTypeMedia:       {},
	proto.NetworkResourceTypeTextTrack:   {},
	proto.NetworkResourceTypeEventSource: {},
	proto.NetworkResourceTypeManifest:    {},
	proto.NetworkResourceTypeOther:       {},
}

// Navigator steers a session's page to a URL with retries. It never
// panics and never returns an error; arrival is a yes or no question.
type Navigator struct {
	cfg config.NavigatorConfig

	// attempt is swappable in tests.
	attempt func(ctx context.Context, page *rod.Page, url string, policy WaitPolicy) error
}

func NewNavigator(cfg config.NavigatorConfig) *Navigator {
	n := &Navigator{cfg: cfg}
	n.attempt = n.attemptNavigate
	return n
}

// Navigate tries up to MaxAttempts times with RetryBackoff between tries,
// each attempt bounded by the configured timeout. Returns false after the
// final failed attempt or when ctx ends first.
func (n *Navigator) Navigate(ctx context.Context, page *rod.Page, rawURL string, policy WaitPolicy) bool {
	target := ensureScheme(rawURL)

	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
		err := n.attempt(attemptCtx, page, target, policy)
		cancel()
		if err == nil {
			return true
		}

		slog.Warn("navigation attempt failed",
			"url", target,
			"attempt", attempt,
			"maxAttempts", n.cfg.MaxAttempts,
			"error", err,
		)
		if ctx.Err() != nil {
			return false
		}
		if attempt < n.cfg.MaxAttempts {
			if sleepCtx(ctx, n.cfg.RetryBackoff) != nil {
				return false
			}
		}
	}
	return false
}

// attemptNavigate is one full try: mount the allow-list router, register
// the lifecycle waiter, navigate, wait, check the response status, settle,
// then neuter dialogs. The waiter must be registered before Navigate or
// the event can fire unobserved.
func (n *Navigator) attemptNavigate(ctx context.Context, page *rod.Page, url string, policy WaitPolicy) error {
	p := page.Context(ctx)

	router := mountAllowList(p)
	defer func() { _ = router.Stop() }()

	wait := p.WaitNavigation(policy.event())
	if err := p.Navigate(url); err != nil {
		return err
	}
	wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	// Status 0 means the page did not expose one; only a definite error
	// status fails the attempt.
	if status := navStatus(p); status >= 400 {
		return fmt.Errorf("target answered %d", status)
	}

	if err := sleepCtx(ctx, n.cfg.SettleDelay); err != nil {
		return err
	}
	_, _ = p.Eval(jsDisableDialogs)
	return nil
}

// mountAllowList intercepts every request on the page and aborts those
// whose resource type is not allowed. Returns the running router; the
// caller stops it.
func mountAllowList(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()

	_ = router.Add("*", "", func(h *rod.Hijack) {
		if _, ok := allowedResources[h.Request.Type()]; !ok {
			h.Response.Fail(proto.NetworkErrorReasonAborted)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks, so it must live in its own goroutine.
	go router.Run()
	return router
}

// navStatus reads the last navigation's HTTP status from the page's
// performance entries, 0 when unknown.
func navStatus(page *rod.Page) int {
	res, err := page.Eval(jsNavStatus)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// ensureScheme prefixes bare hosts with http://.
func ensureScheme(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "http://" + u
}

// sleepCtx pauses for d unless ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
