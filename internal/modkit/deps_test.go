package modkit

import (
	"context"
	"path/filepath"
	"testing"

	"enrollcam/internal/platform/config"
	"enrollcam/internal/platform/logger"
	"enrollcam/internal/platform/store"
)

func TestFromStoreNil(t *testing.T) {
	d := FromStore(*logger.Get(), config.New(), nil)
	if d.PG != nil || d.CH != nil || d.Lite != nil {
		t.Fatalf("nil store should leave backends nil: %+v", d)
	}
}

func TestFromStoreCopiesBackends(t *testing.T) {
	s, err := store.Open(context.Background(), store.Config{
		SQLite: store.SQLiteConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "c.db")},
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer s.Close(context.Background())

	d := FromStore(*logger.Get(), config.New(), s)
	if d.Lite != s.Lite || d.PG != nil {
		t.Fatalf("unexpected deps %+v", d)
	}
}
