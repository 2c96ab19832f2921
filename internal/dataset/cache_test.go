package dataset_test

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/dataset"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/model"
)

func strPtr(s string) *string         { return &s }
func intPtr(i int64) *int64           { return &i }
func timePtr(t time.Time) *time.Time  { return &t }

// fakeStore is a scriptable GoldReader with a load-count probe.
type fakeStore struct {
	rows    []model.Notice
	loadErr error
	modTime time.Time
	statErr error
	loads   int
}

func (f *fakeStore) LoadGold() ([]model.Notice, error) {
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.rows, nil
}

func (f *fakeStore) GoldModTime() (time.Time, error) {
	if f.statErr != nil {
		return time.Time{}, f.statErr
	}
	return f.modTime, nil
}

// clock is an adjustable test clock.
type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newCache(store *fakeStore, c *clock) *dataset.Cache {
	return dataset.NewWithClock(store, 60*time.Second, c.now)
}

var baseTime = time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)

func openNotice(num int64, end time.Time) model.Notice {
	return model.Notice{
		CallNumber: intPtr(num),
		Year:       strPtr("2024"),
		EndDate:    timePtr(end),
	}
}

// ── Refresh triggers ───────────────────────────────────────────────────────

func TestSnapshot_LoadsOnFirstCall(t *testing.T) {
	store := &fakeStore{rows: []model.Notice{openNotice(1, baseTime.AddDate(0, 0, 5))}, modTime: baseTime.Add(-time.Hour)}
	cache := newCache(store, &clock{t: baseTime})

	got, err := cache.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot returned unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Snapshot returned %d records, want 1", len(got))
	}
	if cache.LoadCount() != 1 {
		t.Errorf("LoadCount = %d, want 1", cache.LoadCount())
	}
}

func TestSnapshot_NoReloadWhenFreshAndUnmodified(t *testing.T) {
	// Scenario D: mtime older than the last refresh, TTL not elapsed —
	// the second call must be served from memory.
	store := &fakeStore{rows: []model.Notice{openNotice(1, baseTime.AddDate(0, 0, 5))}, modTime: baseTime.Add(-time.Hour)}
	c := &clock{t: baseTime}
	cache := newCache(store, c)

	if _, err := cache.Snapshot(); err != nil {
		t.Fatalf("first Snapshot: %v", err)
	}
	c.advance(10 * time.Second)
	if _, err := cache.Snapshot(); err != nil {
		t.Fatalf("second Snapshot: %v", err)
	}

	if cache.LoadCount() != 1 {
		t.Errorf("LoadCount = %d after a fresh second call, want 1", cache.LoadCount())
	}
}

func TestSnapshot_ReloadsAfterTTL(t *testing.T) {
	store := &fakeStore{rows: []model.Notice{openNotice(1, baseTime.AddDate(0, 0, 5))}, modTime: baseTime.Add(-time.Hour)}
	c := &clock{t: baseTime}
	cache := newCache(store, c)

	cache.Snapshot()
	c.advance(61 * time.Second)
	cache.Snapshot()

	if cache.LoadCount() != 2 {
		t.Errorf("LoadCount = %d after TTL expiry, want 2", cache.LoadCount())
	}
}

func TestSnapshot_ReloadsWhenFileModified(t *testing.T) {
	store := &fakeStore{rows: []model.Notice{openNotice(1, baseTime.AddDate(0, 0, 5))}, modTime: baseTime.Add(-time.Hour)}
	c := &clock{t: baseTime}
	cache := newCache(store, c)

	cache.Snapshot()
	store.modTime = baseTime.Add(time.Second) // pipeline wrote a new snapshot
	c.advance(10 * time.Second)               // TTL not elapsed
	cache.Snapshot()

	if cache.LoadCount() != 2 {
		t.Errorf("LoadCount = %d after file modification, want 2", cache.LoadCount())
	}
}

// ── Derived-field recomputation ────────────────────────────────────────────

func TestSnapshot_RecomputesStatusOnRefresh(t *testing.T) {
	// Stored as open with stale hours; the end date is already past at
	// refresh time, so the served snapshot must say closed.
	stale := openNotice(1, baseTime.AddDate(0, 0, -3))
	stale.IsOpen = true
	stale.HoursRemaining = 48

	store := &fakeStore{rows: []model.Notice{stale}, modTime: baseTime.Add(-time.Hour)}
	cache := newCache(store, &clock{t: baseTime})

	got, err := cache.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got[0].IsOpen || got[0].HoursRemaining != 0 {
		t.Errorf("stale stored status must be recomputed: open=%v hours=%v",
			got[0].IsOpen, got[0].HoursRemaining)
	}
}

// ── Defensive copies ───────────────────────────────────────────────────────

func TestSnapshot_ReturnsDefensiveCopy(t *testing.T) {
	store := &fakeStore{rows: []model.Notice{openNotice(7, baseTime.AddDate(0, 0, 5))}, modTime: baseTime.Add(-time.Hour)}
	c := &clock{t: baseTime}
	cache := newCache(store, c)

	first, _ := cache.Snapshot()
	*first[0].CallNumber = 999
	first[0].Year = nil

	c.advance(time.Second) // still fresh — served from memory
	second, err := cache.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if *second[0].CallNumber != 7 || second[0].Year == nil {
		t.Error("mutating a returned snapshot leaked into cache state")
	}
}

// ── Failure semantics ──────────────────────────────────────────────────────

func TestSnapshot_MissingFileReportsUnavailable(t *testing.T) {
	store := &fakeStore{statErr: fmt.Errorf("stat gold tier: %w", os.ErrNotExist)}
	cache := newCache(store, &clock{t: baseTime})

	if _, err := cache.Snapshot(); !errors.Is(err, dataset.ErrUnavailable) {
		t.Errorf("missing artifact should yield ErrUnavailable, got %v", err)
	}
}

func TestSnapshot_MissingFileInvalidatesSnapshot(t *testing.T) {
	store := &fakeStore{rows: []model.Notice{openNotice(1, baseTime.AddDate(0, 0, 5))}, modTime: baseTime.Add(-time.Hour)}
	c := &clock{t: baseTime}
	cache := newCache(store, c)

	cache.Snapshot() // populate

	store.statErr = fmt.Errorf("stat gold tier: %w", os.ErrNotExist)
	if _, err := cache.Snapshot(); !errors.Is(err, dataset.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable while file is gone, got %v", err)
	}

	// File comes back; the invalidated cache must reload even though the TTL
	// never elapsed.
	store.statErr = nil
	c.advance(time.Second)
	if _, err := cache.Snapshot(); err != nil {
		t.Fatalf("Snapshot after file restored: %v", err)
	}
	if cache.LoadCount() != 2 {
		t.Errorf("LoadCount = %d, want 2 (forced reload after invalidation)", cache.LoadCount())
	}
}

func TestSnapshot_LoadFailureKeepsPreviousSnapshot(t *testing.T) {
	store := &fakeStore{rows: []model.Notice{openNotice(1, baseTime.AddDate(0, 0, 5))}, modTime: baseTime.Add(-time.Hour)}
	c := &clock{t: baseTime}
	cache := newCache(store, c)

	cache.Snapshot() // populate

	// A newer file that fails to parse: unavailable for this call only, the
	// previous snapshot survives and is served once the load succeeds again.
	store.loadErr = errors.New("parquet: corrupted page")
	store.modTime = baseTime.Add(time.Second)
	c.advance(2 * time.Second)

	if _, err := cache.Snapshot(); !errors.Is(err, dataset.ErrUnavailable) {
		t.Fatalf("parse failure should yield ErrUnavailable, got %v", err)
	}

	store.loadErr = nil
	c.advance(time.Second)
	got, err := cache.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot after recovery: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("recovered snapshot has %d records, want 1", len(got))
	}
}
