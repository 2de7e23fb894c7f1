package repokit

import (
	"context"
	"testing"

	"enrollcam/internal/platform/store"
	"enrollcam/internal/platform/testkit"
)

type fakeQ struct{}

func (fakeQ) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (fakeQ) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (fakeQ) QueryRow(context.Context, string, ...any) store.Row            { return nil }

type ledgerBinder struct{ seen *Queryer }

func (b ledgerBinder) Bind(q Queryer) string {
	*b.seen = q
	return "ledger"
}

func TestMustBindPassesQueryer(t *testing.T) {
	t.Parallel()

	var seen Queryer
	if got := MustBind[string](ledgerBinder{seen: &seen}, fakeQ{}); got != "ledger" {
		t.Fatalf("MustBind = %q, want ledger", got)
	}
	if seen == nil {
		t.Fatal("queryer not passed through")
	}
}

func TestMustBindPanicsWithoutQueryer(t *testing.T) {
	t.Parallel()

	var seen Queryer
	testkit.MustPanic(t, func() { MustBind[string](ledgerBinder{seen: &seen}, nil) })
}
