package session

import (
	"errors"
	"testing"
	"time"

	"github.com/use-agent/itdog/config"
	"github.com/use-agent/itdog/models"
)

// newTestPool builds a pool with an injected create func so no browser is
// involved. Fake sessions carry nil pages, which Close treats as a no-op.
func newTestPool(maxSessions int, idle, sweep time.Duration) *Pool {
	p := &Pool{
		cfg: config.SessionConfig{
			MaxSessions:   maxSessions,
			IdleTimeout:   idle,
			SweepInterval: sweep,
		},
		sessions:  make(map[string]*Session),
		lastSweep: time.Now().Add(-24 * time.Hour),
	}
	p.create = func(device models.DeviceProfile, initScript, id string) (*Session, error) {
		now := time.Now()
		return &Session{ID: id, Device: device, CreatedAt: now, lastUsed: now}, nil
	}
	return p
}

func TestAcquire_RegistersSession(t *testing.T) {
	p := newTestPool(2, time.Hour, time.Minute)

	s, err := p.Acquire(models.DeviceByName("pc"), "")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if s.ID == "" {
		t.Fatal("session has empty ID")
	}
	got, ok := p.Get(s.ID)
	if !ok || got != s {
		t.Fatalf("Get(%q) = %v, %v; want the acquired session", s.ID, got, ok)
	}
	if live := p.Stats().LiveSessions; live != 1 {
		t.Fatalf("LiveSessions = %d, want 1", live)
	}
}

func TestAcquire_PoolExhausted(t *testing.T) {
	p := newTestPool(2, time.Hour, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := p.Acquire(models.DeviceByName("pc"), ""); err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
	}

	_, err := p.Acquire(models.DeviceByName("pc"), "")
	if err == nil {
		t.Fatal("Acquire beyond capacity succeeded")
	}
	var me *models.MeasureError
	if !errors.As(err, &me) || me.Code != models.ErrCodePoolExhausted {
		t.Fatalf("error = %v, want code %s", err, models.ErrCodePoolExhausted)
	}
}

func TestAcquire_FailedCreateNotRegistered(t *testing.T) {
	p := newTestPool(1, time.Hour, time.Minute)
	p.create = func(models.DeviceProfile, string, string) (*Session, error) {
		return nil, errors.New("boom")
	}

	if _, err := p.Acquire(models.DeviceByName("pc"), ""); err == nil {
		t.Fatal("Acquire with failing create succeeded")
	}
	if live := p.Stats().LiveSessions; live != 0 {
		t.Fatalf("LiveSessions = %d after failed create, want 0", live)
	}

	// The reserved slot must be returned, or the pool can never fill again.
	p.create = func(device models.DeviceProfile, initScript, id string) (*Session, error) {
		return &Session{ID: id, lastUsed: time.Now()}, nil
	}
	if _, err := p.Acquire(models.DeviceByName("pc"), ""); err != nil {
		t.Fatalf("Acquire after failed create: %v", err)
	}
}

func TestRelease_Idempotent(t *testing.T) {
	p := newTestPool(2, time.Hour, time.Minute)

	s, err := p.Acquire(models.DeviceByName("phone"), "")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	p.Release(s.ID)
	p.Release(s.ID) // second release is a no-op

	if _, ok := p.Get(s.ID); ok {
		t.Fatal("released session still registered")
	}
	if live := p.Stats().LiveSessions; live != 0 {
		t.Fatalf("LiveSessions = %d, want 0", live)
	}
}

func TestSweep_ReclaimsIdleOnly(t *testing.T) {
	p := newTestPool(4, time.Minute, time.Millisecond)

	stale, err := p.Acquire(models.DeviceByName("pc"), "")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	fresh, err := p.Acquire(models.DeviceByName("pc"), "")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	p.mu.Lock()
	stale.lastUsed = time.Now().Add(-2 * time.Minute)
	p.mu.Unlock()

	if n := p.Sweep(); n != 1 {
		t.Fatalf("Sweep reclaimed %d sessions, want 1", n)
	}
	if _, ok := p.Get(stale.ID); ok {
		t.Fatal("idle session survived the sweep")
	}
	if _, ok := p.Get(fresh.ID); !ok {
		t.Fatal("fresh session was reclaimed")
	}
}

func TestSweep_Throttled(t *testing.T) {
	p := newTestPool(4, time.Minute, time.Hour)

	s, err := p.Acquire(models.DeviceByName("pc"), "")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if n := p.Sweep(); n != 0 {
		t.Fatalf("first Sweep reclaimed %d sessions, want 0", n)
	}

	p.mu.Lock()
	s.lastUsed = time.Now().Add(-2 * time.Minute)
	p.mu.Unlock()

	// Within SweepInterval of the previous sweep: must not run again.
	if n := p.Sweep(); n != 0 {
		t.Fatalf("throttled Sweep reclaimed %d sessions, want 0", n)
	}
	if _, ok := p.Get(s.ID); !ok {
		t.Fatal("session reclaimed by a throttled sweep")
	}
}

func TestGet_RefreshesIdleClock(t *testing.T) {
	p := newTestPool(4, time.Minute, time.Millisecond)

	s, err := p.Acquire(models.DeviceByName("pc"), "")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	p.mu.Lock()
	s.lastUsed = time.Now().Add(-2 * time.Minute)
	p.mu.Unlock()

	p.Get(s.ID) // touching the session resets its idle clock

	if n := p.Sweep(); n != 0 {
		t.Fatalf("Sweep reclaimed %d sessions, want 0", n)
	}
	if _, ok := p.Get(s.ID); !ok {
		t.Fatal("recently used session was reclaimed")
	}
}

func TestStats(t *testing.T) {
	p := newTestPool(8, time.Hour, time.Minute)

	if _, err := p.Acquire(models.DeviceByName("tablet"), ""); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	st := p.Stats()
	if st.MaxSessions != 8 {
		t.Fatalf("MaxSessions = %d, want 8", st.MaxSessions)
	}
	if st.LiveSessions != 1 {
		t.Fatalf("LiveSessions = %d, want 1", st.LiveSessions)
	}
	if st.BrowserPID != 0 {
		t.Fatalf("BrowserPID = %d for a browserless pool, want 0", st.BrowserPID)
	}
}
