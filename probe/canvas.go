package probe

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

const canvasWait = 30 * time.Second

// jsCanvasData reads a canvas's pixels as a PNG data URL. Yields an empty
// string for non-canvas elements and for tainted canvases, where toDataURL
// throws.
const jsCanvasData = `(sel) => {
	const canvas = document.querySelector(sel);
	if (!canvas || !(canvas instanceof HTMLCanvasElement)) {
		return '';
	}
	try {
		return canvas.toDataURL('image/png');
	} catch (e) {
		return '';
	}
}`

// CaptureCanvas returns the PNG contents of the canvas at selector. The
// in-page toDataURL path is tried first; a CDP element screenshot covers
// tainted canvases. Returns nil when the element never shows up.
func CaptureCanvas(ctx context.Context, page *rod.Page, selector string) []byte {
	p := page.Context(ctx)

	el, err := p.Timeout(canvasWait).Element(selector)
	if err != nil {
		slog.Warn("canvas not found", "selector", selector, "error", err)
		return nil
	}
	if err := el.WaitVisible(); err != nil {
		slog.Warn("canvas never became visible", "selector", selector, "error", err)
		return nil
	}
	if err := el.ScrollIntoView(); err == nil {
		_ = sleepCtx(ctx, 500*time.Millisecond)
	}

	if res, err := p.Eval(jsCanvasData, selector); err == nil {
		if img := decodeDataURL(res.Value.Str()); img != nil {
			return img
		}
	}

	// Tainted or unreadable canvas: screenshot the element instead.
	img, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		slog.Warn("canvas screenshot failed", "selector", selector, "error", err)
		return nil
	}
	return img
}

// decodeDataURL strips the "data:image/png;base64," prefix and decodes the
// remainder. Returns nil for anything that does not parse as a data URL.
func decodeDataURL(dataURL string) []byte {
	_, b64, found := strings.Cut(dataURL, ",")
	if !found {
		return nil
	}
	img, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil
	}
	return img
}
