package probe

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/google/uuid"
	"github.com/use-agent/itdog/config"
	"github.com/use-agent/itdog/extract"
	"github.com/use-agent/itdog/models"
	"github.com/use-agent/itdog/nodecache"
	"github.com/use-agent/itdog/session"
	"github.com/use-agent/itdog/simhash"
	"github.com/use-agent/itdog/validate"
	"github.com/use-agent/itdog/webhook"
)

// Prober runs measurements and serves the vantage directory. One Prober
// serves the whole process.
type Prober struct {
	cfg   *config.Config
	nav   *Navigator
	nodes *nodecache.Cache
	drift *simhash.Monitor

	// Seams over the session pool and the direct HTTP path, swappable
	// in tests.
	acquire func(device models.DeviceProfile, initScript string) (*session.Session, error)
	release func(id string)
	fetch   func(ctx context.Context, url string) (string, error)
}

func NewProber(cfg *config.Config, pool *session.Pool, nodes *nodecache.Cache) *Prober {
	return &Prober{
		cfg:     cfg,
		nav:     NewNavigator(cfg.Navigator),
		nodes:   nodes,
		drift:   simhash.NewMonitor(cfg.Drift.Threshold),
		acquire: pool.Acquire,
		release: pool.Release,
		fetch:   newFetcher().fetch,
	}
}

// RunMeasurement drives one measurement end to end. It never returns an
// error: every outcome folds into an envelope, and the webhook (when
// configured) sees each one.
func (p *Prober) RunMeasurement(ctx context.Context, req *models.MeasureRequest) *models.Envelope {
	req.Defaults()

	pageURL, ok := measurePages[req.Kind]
	if !ok {
		return p.finish(req, models.Rejected("unsupported measurement type"))
	}
	if req.IsTraceroute() && req.Node == "" {
		return p.finish(req, models.Failed("a vantage node is required for traceroute"))
	}
	if req.Target == "" {
		return p.finish(req, models.Rejected("target must not be empty"))
	}
	if err := validate.Check(req.Target, req.Kind); err != nil {
		return p.finish(req, models.FromError(err))
	}

	sess, err := p.acquire(models.DeviceByName(req.Device), sessionInit)
	if err != nil {
		return p.finish(req, models.FromError(err))
	}
	defer p.release(sess.ID)

	started := time.Now()
	env := p.measure(ctx, sess, req, pageURL)
	slog.Info("measurement finished",
		"target", req.Target,
		"kind", req.Kind,
		"code", env.Code,
		"took", time.Since(started).Round(time.Millisecond),
	)
	return p.finish(req, env)
}

// measure is the in-session flow: navigate, steer, poll, extract.
func (p *Prober) measure(ctx context.Context, sess *session.Session, req *models.MeasureRequest, pageURL string) *models.Envelope {
	if !p.nav.Navigate(ctx, sess.Page, pageURL, WaitLoad) {
		return models.Failed("failed to reach the measurement page")
	}
	page := sess.Page.Context(ctx)

	if req.DNS != "" {
		if _, err := page.Eval(jsDNSOverride, req.DNS); err != nil {
			slog.Warn("resolver override failed", "server", req.DNS, "error", err)
		}
	}

	if req.IsTraceroute() {
		if env := p.selectNode(page, req.Node); env != nil {
			return env
		}
	}

	if _, err := page.Eval(jsTrigger, req.Target); err != nil {
		return models.Failed("failed to start the measurement")
	}
	_ = sleepCtx(ctx, time.Second)

	state := AwaitCompletion(ctx, progressReader(page), p.cfg.Poller.Ceiling, p.cfg.Poller.Interval)
	if state == StateTimedOut {
		// Soft completion: read whatever the vantage points reported so far.
		slog.Debug("progress ceiling reached", "target", req.Target, "kind", req.Kind)
	}

	_, _ = page.Eval(jsRemoveAds)
	_ = sleepCtx(ctx, 500*time.Millisecond)

	if req.IsTraceroute() {
		return p.extractTraceroute(page)
	}
	return p.extractOverview(ctx, page, req)
}

// extractTraceroute reads the single hop-table region.
func (p *Prober) extractTraceroute(page *rod.Page) *models.Envelope {
	regionHTML, err := p.regionHTML(page, xTraceroute)
	if err != nil {
		return models.Failed("measurement failed")
	}
	p.observeDrift(xTraceroute, regionHTML)

	records, err := extract.ParseTable(regionHTML, extract.SchemaTraceroute)
	if err != nil {
		return models.FromError(err)
	}
	return models.OK(map[string]any{models.BucketTraceroute: records})
}

// extractOverview reads the domestic table, switches tabs, then reads the
// global table and the resolution panel. A missing tabs region skips its
// buckets; a table that should be there but is unreadable fails the
// measurement.
func (p *Prober) extractOverview(ctx context.Context, page *rod.Page, req *models.MeasureRequest) *models.Envelope {
	results := make(map[string]any)

	var chinaHTML string
	if p.hasRegion(page, xTabs) {
		regionHTML, err := p.regionHTML(page, xChinaTable)
		if err != nil {
			return models.FromError(err)
		}
		p.observeDrift(xChinaTable, regionHTML)
		records, err := extract.ParseTable(regionHTML, extract.SchemaOverview)
		if err != nil {
			return models.FromError(err)
		}
		results[models.BucketZhOverview] = records
		chinaHTML = regionHTML
	}

	// The global region renders only after its tab is shown.
	_, _ = page.Eval(jsShowGlobal)
	_ = sleepCtx(ctx, 500*time.Millisecond)

	if p.hasRegion(page, xTabs) {
		regionHTML, err := p.regionHTML(page, xGlobalTable)
		if err != nil {
			return models.FromError(err)
		}
		p.observeDrift(xGlobalTable, regionHTML)
		records, err := extract.ParseTable(regionHTML, extract.SchemaOverview)
		if err != nil {
			return models.FromError(err)
		}
		results[models.BucketOverview] = records
	}

	if regionHTML, err := p.regionHTML(page, xDNSPanel); err == nil {
		p.observeDrift(xDNSPanel, regionHTML)
		if stats, err := extract.ParseDNSList(regionHTML); err == nil {
			results[models.BucketDNSStats] = stats
		}
	}

	if req.IncludeMap {
		if img := CaptureCanvas(ctx, page, extract.BuildSelector("canvas", "first", "")); img != nil {
			results[models.BucketMapImage] = base64.StdEncoding.EncodeToString(img)
		}
	}
	if req.Report && chinaHTML != "" {
		if md, err := extract.RenderReport(chinaHTML); err == nil && md != "" {
			results[models.BucketReport] = md
		}
	}

	return models.OK(results)
}

// selectNode verifies the vantage node exists in the live selector, then
// picks it through the page's own change handler.
func (p *Prober) selectNode(page *rod.Page, node string) *models.Envelope {
	has, el, err := page.HasX(xNodeSelect)
	if err != nil || !has {
		return models.Failed("no vantage selector in page")
	}
	labels, err := el.Text()
	if err != nil {
		return models.Failed("failed to read the vantage selector")
	}
	if !strings.Contains(labels, node) {
		return models.Failed("vantage node not found")
	}
	if _, err := page.Eval(jsSelectNode, node); err != nil {
		return models.Failed("failed to select the vantage node")
	}
	return nil
}

// hasRegion is an immediate presence check, no waiting.
func (p *Prober) hasRegion(page *rod.Page, xpath string) bool {
	has, _, err := page.HasX(xpath)
	return err == nil && has
}

// regionHTML reads the outer HTML of the region at xpath.
func (p *Prober) regionHTML(page *rod.Page, xpath string) (string, error) {
	has, el, err := page.HasX(xpath)
	if err != nil {
		return "", models.NewMeasureError(
			models.ErrCodeExtraction,
			"failed to locate result region",
			err,
		)
	}
	if !has {
		return "", models.NewMeasureError(
			models.ErrCodeExtraction,
			"result region missing",
			nil,
		)
	}
	regionHTML, err := el.HTML()
	if err != nil {
		return "", models.NewMeasureError(
			models.ErrCodeExtraction,
			"failed to read result region",
			err,
		)
	}
	return regionHTML, nil
}

// observeDrift warns when a region's structure moved away from the first
// one seen this process.
func (p *Prober) observeDrift(region, regionHTML string) {
	if drifted, distance := p.drift.Observe(region, regionHTML); drifted {
		slog.Warn("result region drifted from its baseline",
			"region", region,
			"distance", distance,
		)
	}
}

// progressReader adapts the page's progress widget to a ProgressFunc.
func progressReader(page *rod.Page) ProgressFunc {
	return func() (string, string, bool) {
		has, el, err := page.HasX(xProgress)
		if err != nil || !has {
			return "", "", false
		}
		current, err := el.Attribute("aria-valuenow")
		if err != nil || current == nil {
			return "", "", false
		}
		total, err := el.Attribute("aria-valuemax")
		if err != nil || total == nil {
			return "", "", false
		}
		return *current, *total, true
	}
}

// finish fires the webhook when configured and passes the envelope on.
func (p *Prober) finish(req *models.MeasureRequest, env *models.Envelope) *models.Envelope {
	if p.cfg.Webhook.URL != "" {
		webhook.DeliverAsync(p.cfg.Webhook.URL, p.cfg.Webhook.Secret, &webhook.Event{
			Type:          webhook.EventMeasurementCompleted,
			MeasurementID: uuid.NewString(),
			Target:        req.Target,
			Kind:          req.Kind,
			Timestamp:     time.Now().Unix(),
			Data:          env,
		})
	}
	return env
}
