// Package repokit holds the binding glue between module repos and the store seams
package repokit

import "enrollcam/internal/platform/store"

// Queryer is what a ledger or cache repo needs from the database
type Queryer = store.RowQuerier

// Binder attaches a repo implementation to a Queryer, usually the pool or a tx
type Binder[T any] interface {
	Bind(Queryer) T
}

// MustBind binds b to q and panics when the module was wired without a database
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: bind without a queryer")
	}
	return b.Bind(q)
}
