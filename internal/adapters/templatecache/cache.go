// Package templatecache keeps the local recognition template sync timestamp
// Recognition consumers re-fetch templates when the timestamp is missing
package templatecache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	perr "enrollcam/internal/platform/errors"
	"enrollcam/internal/platform/store/sqlite"
	dom "enrollcam/internal/services/capture/domain"
)

// LastSyncKey is the row that records when templates were last pulled
const LastSyncKey = "faceCacheLastSync"

const schema = `CREATE TABLE IF NOT EXISTS sync_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Cache is the SQLite backed sync state
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

var _ dom.CacheInvalidator = (*Cache)(nil)

// New ensures the schema exists on db
func New(ctx context.Context, db *sql.DB) (*Cache, error) {
	if db == nil {
		return nil, perr.Unavailablef("template cache database not configured")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "create sync_state")
	}
	return &Cache{db: db, now: time.Now}, nil
}

// Invalidate clears the last sync timestamp so consumers refresh their templates
func (c *Cache) Invalidate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM sync_state WHERE key = ?`, LastSyncKey); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "clear face cache timestamp")
	}
	return nil
}

// MarkSynced records a completed template pull at t
func (c *Cache) MarkSynced(ctx context.Context, t time.Time) error {
	return sqlite.ExecTx(ctx, c.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sync_state (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			LastSyncKey, t.UTC().Format(time.RFC3339Nano), c.now().Unix())
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeDB, "store face cache timestamp")
		}
		return nil
	})
}

// LastSynced returns the last sync time; ok is false when templates must be re-fetched
func (c *Cache) LastSynced(ctx context.Context) (t time.Time, ok bool, err error) {
	var v string
	err = c.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, LastSyncKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, perr.Wrap(err, perr.ErrorCodeDB, "read face cache timestamp")
	}
	t, err = time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false, perr.Wrap(err, perr.ErrorCodeDB, "corrupt face cache timestamp")
	}
	return t, true, nil
}
