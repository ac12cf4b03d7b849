// Package repokit binds domain repos to the store seams
package repokit

import "insightsdb/internal/platform/store"

type (
	// Queryer is the read and write surface a bound repo runs on, either the
	// pool or an open transaction
	Queryer = store.RowQuerier

	// TxRunner opens transactions a repo can be bound inside
	TxRunner = store.TxRunner
)
