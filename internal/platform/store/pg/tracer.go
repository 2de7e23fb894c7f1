package pg

import (
	"context"
	"strings"

	"enrollcam/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one statement
type QueryEvent struct {
	SQL       string
	Args      []any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives an event per statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs every statement at info, slow ones at warn, regardless of the root level
func Tracer(root logger.Logger) QueryTracer {
	return &zlTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	evt := z.log.Info()
	if ev.Slow {
		evt = z.log.Warn()
	}
	if sid := logger.SessionID(ctx); sid != "" {
		evt = evt.Str("session_id", sid)
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000).
		Bool("slow", ev.Slow).
		Str("sql", strings.Join(strings.Fields(ev.SQL), " ")).
		Int("args", len(ev.Args)).
		Err(ev.Err).
		Msg("pg query")
}
