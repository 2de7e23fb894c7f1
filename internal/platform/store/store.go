// Package store opens the optional storage backends behind small seams
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"enrollcam/internal/platform/logger"
)

// Store holds whichever backends were enabled; the zero value has none
type Store struct {
	Log logger.Logger

	// PG is the enrollment attempt ledger, nil when disabled
	PG TxRunner

	// CH is the capture statistics sink, nil when disabled
	CH Clickhouse

	// Lite is the local template cache database, nil when disabled
	Lite *sql.DB
}

// Row is the single row scan contract
type Row interface {
	Scan(dest ...any) error
}

// Rows is the iteration contract for result sets
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// CommandTag reports write results
type CommandTag interface {
	RowsAffected() int64
}

// RowQuerier is the surface repos use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner adds transactions to RowQuerier
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is the columnar write and read seam
type Clickhouse interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Pinger reports readiness
type Pinger interface{ Ping(context.Context) error }

// Option mutates the Store before backends open
type Option func(*Store) error

// WithLogger sets the logger handed to backend tracers
func WithLogger(l logger.Logger) Option {
	return func(s *Store) error { s.Log = l; return nil }
}

// Open constructs a Store with the enabled backends
// Anything opened before a failure is closed again
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{Log: *logger.Named("store")}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	if cfg.PG.Enabled {
		pg, err := openPG(ctx, cfg, s.Log)
		if err != nil {
			return nil, fmt.Errorf("pg: %w", err)
		}
		s.PG = pg
	}
	if cfg.CH.Enabled {
		ch, err := openCH(ctx, cfg)
		if err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("ch: %w", err)
		}
		s.CH = ch
	}
	if cfg.SQLite.Enabled {
		db, err := openSQLite(ctx, cfg)
		if err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		s.Lite = db
	}

	s.Log.Info().
		Bool("pg", s.PG != nil).
		Bool("ch", s.CH != nil).
		Bool("sqlite", s.Lite != nil).
		Msg("store opened")
	return s, nil
}

// Guard pings every enabled backend
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	if p, ok := s.PG.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("pg: %w", err))
		}
	}
	if p, ok := s.CH.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("ch: %w", err))
		}
	}
	if s.Lite != nil {
		if err := s.Lite.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("sqlite: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every opened backend
func (s *Store) Close(_ context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.CH != nil {
		errs = append(errs, s.CH.Close())
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	if s.Lite != nil {
		errs = append(errs, s.Lite.Close())
	}
	return errors.Join(errs...)
}
