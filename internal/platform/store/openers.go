package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"enrollcam/internal/platform/logger"
	chx "enrollcam/internal/platform/store/ch"
	"enrollcam/internal/platform/store/pg"
	"enrollcam/internal/platform/store/sqlite"
)

var (
	openPGPool = pg.Open
	pgSleep    = time.Sleep
)

// openPG opens the pool and pings it with capped exponential backoff before publishing the adapter
func openPG(ctx context.Context, cfg Config, log logger.Logger) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(log)
	}
	p, err := openPGPool(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
		AppName:  cfg.AppName,
	}, tracer)
	if err != nil {
		return nil, err
	}

	attempts := max(cfg.PG.ConnectRetries, 1)
	timeout := cfg.PG.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	backoff := 150 * time.Millisecond

	var lastErr error
	for i := range attempts {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		lastErr = p.Ping(pctx)
		cancel()
		if lastErr == nil {
			return newPGAdapter(p), nil
		}
		if ctx.Err() != nil {
			p.Close()
			return nil, ctx.Err()
		}
		log.Warn().Err(lastErr).Int("attempt", i+1).Dur("backoff", backoff).Msg("postgres not ready")
		pgSleep(backoff)
		backoff = min(backoff*2, 2*time.Second)
	}
	p.Close()
	return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, lastErr)
}

func openCH(ctx context.Context, cfg Config) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{
		URL:        cfg.CH.URL,
		ClientInfo: chx.BuildClientInfo(cfg.AppName, cfg.CH.ClientTag),
	})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}

func openSQLite(ctx context.Context, cfg Config) (*sql.DB, error) {
	return sqlite.Open(ctx, cfg.SQLite.Path)
}
