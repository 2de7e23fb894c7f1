// Package repo persists capture attempts
package repo

import (
	"context"
	"errors"

	"enrollcam/internal/modkit/repokit"
	perr "enrollcam/internal/platform/errors"
	"enrollcam/internal/platform/store"
	dom "enrollcam/internal/services/capture/domain"
)

// Schema creates the Postgres ledger table
const Schema = `
CREATE TABLE IF NOT EXISTS enrollment_attempts (
	session_id       TEXT PRIMARY KEY,
	subject_id       TEXT NOT NULL,
	strategy         TEXT NOT NULL,
	outcome          TEXT NOT NULL,
	frames_submitted INT  NOT NULL DEFAULT 0,
	images_used      INT  NOT NULL DEFAULT 0,
	message          TEXT NOT NULL DEFAULT '',
	used_fallback    BOOLEAN NOT NULL DEFAULT FALSE,
	started_at       TIMESTAMPTZ NOT NULL,
	finished_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS enrollment_attempts_subject_idx
	ON enrollment_attempts (subject_id, finished_at DESC);
`

// StatsTable is the ClickHouse table fed with one row per session
const StatsTable = "capture_sessions"

// StatsSchema creates StatsTable; column order matches the stats row
const StatsSchema = `
CREATE TABLE IF NOT EXISTS capture_sessions (
	session_id         String,
	subject_id         String,
	strategy           LowCardinality(String),
	outcome            LowCardinality(String),
	used_fallback      Bool,
	captured           UInt32,
	accepted           UInt32,
	duplicates         UInt32,
	blurry             UInt32,
	undersized         UInt32,
	gate_skips         UInt32,
	capture_failures   UInt32,
	thumbnail_failures UInt32,
	no_face            UInt32,
	duration_ms        UInt32,
	finished_at        DateTime64(3, 'UTC')
)
ENGINE = MergeTree
ORDER BY (subject_id, finished_at)
`

// Repo is the attempt ledger surface
type Repo interface {
	InsertAttempt(ctx context.Context, a dom.Attempt) error
	RecentAttempts(ctx context.Context, subjectID string, limit int) ([]dom.Attempt, error)
}

type (
	// PG is a Postgres implementation of the ledger
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// EnsureSchema creates the ledger table when missing
func EnsureSchema(ctx context.Context, q repokit.Queryer) error {
	if _, err := q.Exec(ctx, Schema); err != nil {
		return perr.FromPostgres(err, "create enrollment_attempts")
	}
	return nil
}

// EnsureStatsSchema creates the ClickHouse stats table when missing
func EnsureStatsSchema(ctx context.Context, ch store.Clickhouse) error {
	if err := ch.Exec(ctx, StatsSchema); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "create %s", StatsTable)
	}
	return nil
}

// InsertAttempt records a finished session; replays of the same session id are ignored
func (r *queries) InsertAttempt(ctx context.Context, a dom.Attempt) error {
	const sql = `
		INSERT INTO enrollment_attempts
			(session_id, subject_id, strategy, outcome, frames_submitted, images_used,
			 message, used_fallback, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (session_id) DO NOTHING`
	_, err := r.q.Exec(ctx, sql,
		a.SessionID, a.SubjectID, string(a.Strategy), string(a.Outcome),
		a.FramesSubmitted, a.ImagesUsed, a.Message, a.UsedFallback,
		a.StartedAt, a.FinishedAt,
	)
	if err != nil {
		return perr.FromPostgres(err, "insert enrollment attempt")
	}
	return nil
}

// RecentAttempts lists a subject's attempts, newest first
func (r *queries) RecentAttempts(ctx context.Context, subjectID string, limit int) ([]dom.Attempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const sql = `
		SELECT session_id, subject_id, strategy, outcome, frames_submitted, images_used,
		       message, used_fallback, started_at, finished_at
		FROM enrollment_attempts
		WHERE subject_id = $1
		ORDER BY finished_at DESC
		LIMIT $2`
	rows, err := r.q.Query(ctx, sql, subjectID, limit)
	if err != nil {
		return nil, perr.FromPostgres(err, "list enrollment attempts")
	}
	defer rows.Close()

	var out []dom.Attempt
	for rows.Next() {
		var (
			a                 dom.Attempt
			strategy, outcome string
		)
		if err := rows.Scan(&a.SessionID, &a.SubjectID, &strategy, &outcome,
			&a.FramesSubmitted, &a.ImagesUsed, &a.Message, &a.UsedFallback,
			&a.StartedAt, &a.FinishedAt); err != nil {
			return nil, perr.FromPostgres(err, "scan enrollment attempt")
		}
		a.Strategy, a.Outcome = dom.Strategy(strategy), dom.State(outcome)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.FromPostgres(err, "list enrollment attempts")
	}
	return out, nil
}

// Ledger fans a terminal session out to whichever stores are enabled
type Ledger struct {
	repo Repo
	ch   store.Clickhouse
}

var _ dom.Recorder = (*Ledger)(nil)

// NewLedger builds a ledger; either side may be nil
func NewLedger(repo Repo, ch store.Clickhouse) *Ledger {
	return &Ledger{repo: repo, ch: ch}
}

// Enabled reports whether any store is wired
func (l *Ledger) Enabled() bool { return l != nil && (l.repo != nil || l.ch != nil) }

// Repo exposes the Postgres side for reads, nil when disabled
func (l *Ledger) Repo() Repo { return l.repo }

// RecordAttempt writes the ledger row and the stats row
func (l *Ledger) RecordAttempt(ctx context.Context, a dom.Attempt, s dom.Stats) error {
	var errs []error
	if l.repo != nil {
		errs = append(errs, l.repo.InsertAttempt(ctx, a))
	}
	if l.ch != nil {
		if err := l.ch.Insert(ctx, StatsTable, [][]any{statsRow(a, s)}); err != nil {
			errs = append(errs, perr.Wrap(err, perr.ErrorCodeDB, "insert capture stats"))
		}
	}
	return errors.Join(errs...)
}

func statsRow(a dom.Attempt, s dom.Stats) []any {
	return []any{
		a.SessionID, a.SubjectID, string(a.Strategy), string(a.Outcome), a.UsedFallback,
		uint32(s.Captured), uint32(s.Accepted), uint32(s.Duplicates), uint32(s.Blurry),
		uint32(s.Undersized), uint32(s.GateSkips), uint32(s.CaptureFailures),
		uint32(s.ThumbnailFailures), uint32(s.NoFace),
		uint32(a.FinishedAt.Sub(a.StartedAt).Milliseconds()), a.FinishedAt,
	}
}
