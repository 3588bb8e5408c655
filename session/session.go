// Package session manages isolated browser sessions for measurements.
//
// Each session is its own incognito context holding one prepared page, so
// cookies, storage and cache never leak between measurements. The Pool owns
// the shared browser process, caps how many sessions are live at once, and
// reclaims the ones nobody has touched in a while.
package session

import (
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/use-agent/itdog/models"
)

// Session is one isolated measurement context. It is handed out by
// Pool.Acquire and must be returned with Pool.Release when the measurement
// is done.
type Session struct {
	// ID is the registry key under which the pool tracks this session.
	ID string

	// Page is the prepared page: device profile emulated, baseline headers
	// set, CSP bypassed, hardening scripts installed.
	Page *rod.Page

	// Device is the profile the page was created with.
	Device models.DeviceProfile

	// CreatedAt is when the session was opened.
	CreatedAt time.Time

	browser  *rod.Browser // incognito context owning Page
	lastUsed time.Time    // guarded by the pool mutex
}

// Close tears the session down: page first, then its incognito context.
// Errors are logged and swallowed; a dead page must not block reclaim.
func (s *Session) Close() {
	if s.Page != nil {
		if err := s.Page.Close(); err != nil {
			slog.Debug("session page close failed", "session", s.ID, "error", err)
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			slog.Debug("session context close failed", "session", s.ID, "error", err)
		}
	}
}
