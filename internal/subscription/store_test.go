package subscription_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/subscription"
)

func tempStore(t *testing.T) *subscription.FileStore {
	t.Helper()
	return subscription.NewFileStore(filepath.Join(t.TempDir(), "usuarios_bot.json"))
}

// ── Load ───────────────────────────────────────────────────────────────────

func TestFileStore_LoadMissingFileReturnsEmpty(t *testing.T) {
	users, err := tempStore(t).Load()
	if err != nil {
		t.Fatalf("Load on a missing file should not fail: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("Load returned %d users, want 0", len(users))
	}
}

func TestFileStore_LoadCorruptFileReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usuarios_bot.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	users, err := subscription.NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("corrupt file should recover to empty, not fail: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("Load returned %d users from a corrupt file, want 0", len(users))
	}
}

// ── Save / round-trip ──────────────────────────────────────────────────────

func TestFileStore_RoundTrip(t *testing.T) {
	store := tempStore(t)
	want := map[string]bool{"111": true, "222": false, "333": true}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip changed content: got %v, want %v", got, want)
	}

	// save(load()) is a no-op on content
	if err := store.Save(got); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	again, err := store.Load()
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !reflect.DeepEqual(again, want) {
		t.Errorf("save(load()) changed content: got %v, want %v", again, want)
	}
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	store := tempStore(t)

	store.Save(map[string]bool{"111": true, "222": true})
	store.Save(map[string]bool{"333": false})

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]bool{"333": false}) {
		t.Errorf("Save must fully replace the store, got %v", got)
	}
}
