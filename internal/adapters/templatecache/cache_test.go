package templatecache

import (
	"path/filepath"
	"testing"
	"time"

	perr "enrollcam/internal/platform/errors"
	"enrollcam/internal/platform/store/sqlite"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	db, err := sqlite.Open(t.Context(), filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	c, err := New(t.Context(), db)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestMarkThenInvalidate(t *testing.T) {
	t.Parallel()

	c := newCache(t)
	if _, ok, err := c.LastSynced(t.Context()); ok || err != nil {
		t.Fatalf("fresh cache ok=%v err=%v", ok, err)
	}

	at := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	if err := c.MarkSynced(t.Context(), at); err != nil {
		t.Fatal(err)
	}
	if err := c.MarkSynced(t.Context(), at.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.LastSynced(t.Context())
	if err != nil || !ok || !got.Equal(at.Add(time.Hour)) {
		t.Fatalf("LastSynced = %v %v %v", got, ok, err)
	}

	if err := c.Invalidate(t.Context()); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.LastSynced(t.Context()); ok {
		t.Fatal("timestamp survived Invalidate")
	}
	// invalidating an empty cache is fine
	if err := c.Invalidate(t.Context()); err != nil {
		t.Fatal(err)
	}
}

func TestNewNeedsDatabase(t *testing.T) {
	t.Parallel()

	if _, err := New(t.Context(), nil); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("err = %v", err)
	}
}

func TestInvalidateOnClosedDB(t *testing.T) {
	t.Parallel()

	db, err := sqlite.Open(t.Context(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(t.Context(), db)
	if err != nil {
		t.Fatal(err)
	}
	_ = db.Close()
	if err := c.Invalidate(t.Context()); !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("err = %v", err)
	}
}
