package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/use-agent/itdog/extract"
	"github.com/use-agent/itdog/models"
)

// nodeSelectorWait bounds how long a rendered page may take to attach the
// vantage select element.
const nodeSelectorWait = 10 * time.Second

// ListNodes serves the vantage directory for an IP version, from cache
// unless refresh is forced or the cache is cold.
func (p *Prober) ListNodes(ctx context.Context, version string, refresh bool) *models.Envelope {
	pageURL, ok := nodePages[version]
	if !ok {
		return models.Rejected("unsupported node type, use ipv4 or ipv6")
	}

	if !refresh {
		if dir, _, ok := p.nodes.Get(version); ok {
			return models.OK(dir)
		}
	}

	dir, err := p.fetchDirectory(ctx, version, pageURL)
	if err != nil {
		// A failed refresh keeps serving the previous snapshot.
		if cached, at, ok := p.nodes.Get(version); ok {
			slog.Warn("node refresh failed, serving cached directory",
				"version", version,
				"age", time.Since(at).Round(time.Second),
				"error", err)
			return models.OK(cached)
		}
		return models.FromError(err)
	}
	p.nodes.Set(version, dir)
	return models.OK(dir)
}

// WarmNodes fetches both directories so the first caller does not pay for
// them. Meant to run in the background at startup.
func (p *Prober) WarmNodes(ctx context.Context) {
	for _, version := range []string{"ipv4", "ipv6"} {
		dir, err := p.fetchDirectory(ctx, version, nodePages[version])
		if err != nil {
			slog.Warn("node directory warmup failed", "version", version, "error", err)
			continue
		}
		p.nodes.Set(version, dir)
		slog.Info("node directory warmed",
			"version", version,
			"nodes", dir.TotalNodes,
			"groups", len(dir.Groups),
		)
	}
}

// RefreshNodes re-fetches every cached directory. Wired to the cron
// schedule; failures keep the old snapshots.
func (p *Prober) RefreshNodes(ctx context.Context) {
	versions := p.nodes.Versions()
	if len(versions) == 0 {
		versions = []string{"ipv4", "ipv6"}
	}
	for _, version := range versions {
		dir, err := p.fetchDirectory(ctx, version, nodePages[version])
		if err != nil {
			slog.Warn("scheduled node refresh failed", "version", version, "error", err)
			continue
		}
		p.nodes.Set(version, dir)
	}
}

// fetchDirectory pulls the vantage selector, first over plain HTTP with
// the Chrome fingerprint, then through a browser session when the cheap
// path yields nothing usable.
func (p *Prober) fetchDirectory(ctx context.Context, version, pageURL string) (*models.NodeDirectory, error) {
	fctx, cancel := context.WithTimeout(ctx, p.cfg.Nodes.FetchTimeout)
	pageHTML, err := p.fetch(fctx, pageURL)
	cancel()
	if err == nil {
		groups, total, perr := extract.ParseNodeGroups(pageHTML)
		if perr == nil {
			return &models.NodeDirectory{NodeType: version, TotalNodes: total, Groups: groups}, nil
		}
		slog.Debug("direct fetch had no usable selector, falling back to browser",
			"version", version, "error", perr)
	} else {
		slog.Debug("direct node fetch failed, falling back to browser",
			"version", version, "error", err)
	}

	return p.browserDirectory(ctx, version, pageURL)
}

// browserDirectory renders the selector page in a session and reads the
// select element out of the live DOM.
func (p *Prober) browserDirectory(ctx context.Context, version, pageURL string) (*models.NodeDirectory, error) {
	sess, err := p.acquire(models.DeviceByName("pc"), sessionInit)
	if err != nil {
		return nil, err
	}
	defer p.release(sess.ID)

	if !p.nav.Navigate(ctx, sess.Page, pageURL, WaitLoad) {
		return nil, models.NewMeasureError(
			models.ErrCodeNavigation,
			"failed to reach the vantage selector page",
			nil,
		)
	}

	page := sess.Page.Context(ctx)
	el, err := page.Timeout(nodeSelectorWait).ElementX(xNodeSelect)
	if err != nil {
		return nil, models.NewMeasureError(
			models.ErrCodeExtraction,
			"no vantage selector in page",
			err,
		)
	}
	selectorHTML, err := el.HTML()
	if err != nil {
		return nil, models.NewMeasureError(
			models.ErrCodeExtraction,
			"failed to read vantage selector",
			err,
		)
	}

	groups, total, err := extract.ParseNodeGroups(selectorHTML)
	if err != nil {
		return nil, err
	}
	return &models.NodeDirectory{NodeType: version, TotalNodes: total, Groups: groups}, nil
}
