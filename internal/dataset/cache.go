// Package dataset serves read-only snapshots of the derived notice tier.
//
// The cache reloads from storage when its TTL elapses or the underlying
// snapshot file changes, and recomputes the two time-sensitive status fields
// against the current instant on every reload. Readers always get a deep
// copy — nothing handed out can reach back into cache state.
package dataset

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/model"
)

// ErrUnavailable is returned when the derived tier cannot be served right
// now: the snapshot file is missing, or it failed to load and there is no
// previous snapshot to fall back on. Callers reply "data unavailable" and
// retry on the next access.
var ErrUnavailable = errors.New("notice dataset unavailable")

// GoldReader is the slice of the storage layer the cache needs.
type GoldReader interface {
	LoadGold() ([]model.Notice, error)
	GoldModTime() (time.Time, error)
}

// Cache holds the in-memory snapshot. The zero state is "nothing loaded";
// the first Snapshot call populates it.
type Cache struct {
	store GoldReader
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	snapshot  []model.Notice
	loadedAt  time.Time
	modTime   time.Time
	loadCount int
}

// New returns a cache over store with the given refresh TTL, using the wall
// clock.
func New(store GoldReader, ttl time.Duration) *Cache {
	return NewWithClock(store, ttl, time.Now)
}

// NewWithClock injects the clock for deterministic tests.
func NewWithClock(store GoldReader, ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{store: store, ttl: ttl, now: now}
}

// Snapshot returns a defensive copy of the derived dataset, refreshing it
// first when required.
func (c *Cache) Snapshot() ([]model.Notice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refreshIfNeeded(); err != nil {
		return nil, err
	}
	return model.CloneNotices(c.snapshot), nil
}

// refreshIfNeeded implements the three reload triggers: empty cache, TTL
// elapsed, or a newer snapshot file on disk. Callers hold c.mu.
func (c *Cache) refreshIfNeeded() error {
	now := c.now()

	stale := c.snapshot == nil || now.Sub(c.loadedAt) > c.ttl

	modTime, statErr := c.store.GoldModTime()
	if statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			// Recoverable: the pipeline may simply not have run yet.
			// Drop the snapshot so the next call reloads from scratch.
			log.Printf("[dataset] gold snapshot missing: %v", statErr)
			c.snapshot = nil
			return ErrUnavailable
		}
		return fmt.Errorf("stat gold snapshot: %w", statErr)
	}
	if modTime.After(c.modTime) {
		stale = true
	}
	if !stale {
		return nil
	}

	rows, err := c.store.LoadGold()
	if err != nil {
		// Possibly a transient write race with the pipeline. Keep the
		// previous snapshot around but report unavailable for this call.
		log.Printf("[dataset] reload failed: %v", err)
		return ErrUnavailable
	}

	// Build the new snapshot fully off to the side, then swap the reference.
	// A concurrent reader never observes a half-refreshed state.
	fresh := model.CloneNotices(rows)
	if fresh == nil {
		fresh = []model.Notice{}
	}
	for i := range fresh {
		fresh[i].RecomputeStatus(now)
	}

	c.snapshot = fresh
	c.loadedAt = now
	c.modTime = modTime
	c.loadCount++
	log.Printf("[dataset] snapshot refreshed — %d records", len(fresh))
	return nil
}

// LoadCount reports how many times the cache has reloaded from storage.
func (c *Cache) LoadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadCount
}
