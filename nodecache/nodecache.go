// Package nodecache holds the process-wide vantage-point directory. The
// directory is written only by its refresh operation (startup warmup, the
// daily schedule, or an explicit refresh request) and read by everyone
// else; a failed refresh leaves the previous snapshot in place.
package nodecache

import (
	"sync"
	"time"

	"github.com/use-agent/itdog/models"
)

// entry holds a directory snapshot with its fetch timestamp.
type entry struct {
	dir       *models.NodeDirectory
	fetchedAt time.Time
}

// Cache stores one directory per ip version. Safe for concurrent use.
type Cache struct {
	mu    sync.RWMutex
	store map[string]*entry
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{store: make(map[string]*entry)}
}

// Get returns the cached directory for an ip version and its age.
// The directory value is shared; callers must not mutate it.
func (c *Cache) Get(version string) (*models.NodeDirectory, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.store[version]
	if !ok {
		return nil, time.Time{}, false
	}
	return e.dir, e.fetchedAt, true
}

// Set replaces the snapshot for an ip version.
func (c *Cache) Set(version string, dir *models.NodeDirectory) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[version] = &entry{dir: dir, fetchedAt: time.Now()}
}

// Versions returns the ip versions currently cached.
func (c *Cache) Versions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.store))
	for v := range c.store {
		out = append(out, v)
	}
	return out
}
