package pg

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"enrollcam/internal/platform/logger"
	kit "enrollcam/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestTracerLogsCompactSQL(t *testing.T) {
	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf).Level(zerolog.ErrorLevel))
	ctx := logger.WithSession(context.Background(), "sess-42", "burst")

	tr.OnQuery(ctx, QueryEvent{
		SQL:       "INSERT INTO enrollment_attempts\n\t(session_id)\n  VALUES ($1)",
		Args:      []any{"sess-42"},
		ElapsedUS: 1500,
	})
	tr.OnQuery(context.Background(), QueryEvent{SQL: "SELECT 1", Slow: true, Err: errors.New("boom")})

	out := buf.String()
	kit.MustContain(t, out, `"sql":"INSERT INTO enrollment_attempts (session_id) VALUES ($1)"`)
	kit.MustContain(t, out, `"session_id":"sess-42"`)
	kit.MustContain(t, out, `"elapsed_ms":1.5`)
	kit.MustContain(t, out, `"level":"warn"`)
	kit.MustContain(t, out, `"error":"boom"`)
}

func TestOpenRejectsBadURL(t *testing.T) {
	if _, err := Open(context.Background(), Config{URL: "postgres://%zz"}, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCloseNilSafe(t *testing.T) {
	var p *PG
	p.Close()
}
